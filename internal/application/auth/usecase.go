package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Lotes-api/internal/application/dto"
	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: alta de operadores y login.
type AuthUseCase struct {
	tx     lot.TxRunner
	jwtCfg JWTConfig
	now    func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx lot.TxRunner, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{tx: tx, jwtCfg: jwtCfg, now: time.Now}
}

// RegisterOperator da de alta un operador: hashea el password con bcrypt y persiste.
// Devuelve ErrDuplicate si el email ya existe y ErrInvalidInput si el rol no es conocido.
func (uc *AuthUseCase) RegisterOperator(ctx context.Context, in dto.RegisterOperatorRequest) (*dto.OperatorResponse, error) {
	role := entity.Role(strings.ToUpper(in.Role))
	if !role.Valid() {
		return nil, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	name := in.Name
	if name == "" {
		name = in.Email
	}
	op := &entity.Operator{
		ID:           uuid.New().String(),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.OperatorStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.tx.Run(ctx, func(s lot.Stores) error {
		existing, err := s.Operators.FindByEmail(ctx, op.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return s.Operators.Save(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	return toOperatorResponse(op), nil
}

// Login verifica email/password, genera JWT y retorna token + operador.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	var op *entity.Operator
	err := uc.tx.Run(ctx, func(s lot.Stores) error {
		var err error
		op, err = s.Operators.FindByEmail(ctx, in.Email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if op.Status != entity.OperatorStatusActive {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, op.ID, string(op.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:    token,
		Operator: *toOperatorResponse(op),
	}, nil
}

func toOperatorResponse(o *entity.Operator) *dto.OperatorResponse {
	if o == nil {
		return nil
	}
	return &dto.OperatorResponse{
		ID:        o.ID,
		Email:     o.Email,
		Name:      o.Name,
		Role:      string(o.Role),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// EnsureAdmin crea un operador ADMIN con ese email si no existe. Devuelve true si lo creó.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := uc.RegisterOperator(ctx, dto.RegisterOperatorRequest{
		Email:    email,
		Password: password,
		Name:     "Administrador",
		Role:     string(entity.RoleAdmin),
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
