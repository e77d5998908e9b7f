package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Lotes-api/internal/application/dto"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// ProductUseCase casos de uso del catálogo de productos. Las cantidades de stock viven en los lotes.
type ProductUseCase struct {
	tx  lot.TxRunner
	now func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx lot.TxRunner) *ProductUseCase {
	return &ProductUseCase{tx: tx, now: time.Now}
}

// Create da de alta un producto. Devuelve ErrDuplicate si el código ya existe
// y ErrInvalidInput si falta el código o el nombre o la unidad no es conocida.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	u, err := unit.Parse(in.Unit)
	if err != nil {
		return nil, err
	}
	product := &entity.Product{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Unit:      u,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: uc.now(),
	}
	err = uc.tx.Run(ctx, func(s lot.Stores) error {
		existing, err := s.Products.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return s.Products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID; (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.tx.Run(ctx, func(s lot.Stores) error {
		var err error
		product, err = s.Products.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza nombre, unidad o estado. Desactivar un producto impide nuevos ingresos
// pero no afecta a los lotes existentes.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.tx.Run(ctx, func(s lot.Stores) error {
		var err error
		product, err = s.Products.FindByID(ctx, id)
		if err != nil || product == nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.ErrInvalidInput
			}
			product.Name = name
		}
		if in.Unit != nil {
			u, err := unit.Parse(*in.Unit)
			if err != nil {
				return err
			}
			product.Unit = u
		}
		if in.Active != nil {
			product.Active = *in.Active
		}
		return s.Products.Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	var list []*entity.Product
	err := uc.tx.Run(ctx, func(s lot.Stores) error {
		var err error
		list, err = s.Products.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Unit:      string(p.Unit),
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
}
