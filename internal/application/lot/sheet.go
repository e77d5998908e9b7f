package lot

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// Sheet reúne lo que se imprime en la ficha de trazabilidad de un lote.
type Sheet struct {
	CompanyName string
	GeneratedAt time.Time
	View        *LotView
	Movements   []*entity.Movement
}

// SheetGenerator arma el documento (PDF) de la ficha.
type SheetGenerator interface {
	GenerateLotSheet(ctx context.Context, sheet *Sheet) ([]byte, error)
}

// SheetArchive guarda una copia de cada ficha emitida.
type SheetArchive interface {
	Archive(ctx context.Context, key string, doc []byte, metadata map[string]string) error
}

// SheetUseCase genera la ficha de trazabilidad de un lote.
type SheetUseCase struct {
	svc         *Service
	generator   SheetGenerator
	archive     SheetArchive
	companyName string
}

// NewSheetUseCase construye el caso de uso.
func NewSheetUseCase(svc *Service, generator SheetGenerator, companyName string) *SheetUseCase {
	return &SheetUseCase{svc: svc, generator: generator, companyName: companyName}
}

// WithArchive activa el archivo de las fichas emitidas.
func (uc *SheetUseCase) WithArchive(a SheetArchive) *SheetUseCase {
	uc.archive = a
	return uc
}

// DownloadLotSheet devuelve el PDF de la ficha y el nombre de archivo sugerido.
// Retorna domain.ErrNotFound si el lote no existe.
func (uc *SheetUseCase) DownloadLotSheet(ctx context.Context, code string) (doc []byte, filename string, err error) {
	view, err := uc.svc.GetLot(ctx, code)
	if err != nil {
		return nil, "", err
	}
	movements, err := uc.svc.ListMovements(ctx, code)
	if err != nil {
		return nil, "", err
	}
	generatedAt := uc.svc.clock.Now()
	doc, err = uc.generator.GenerateLotSheet(ctx, &Sheet{
		CompanyName: uc.companyName,
		GeneratedAt: generatedAt,
		View:        view,
		Movements:   movements,
	})
	if err != nil {
		return nil, "", fmt.Errorf("ficha del lote %s: %w", code, err)
	}
	filename = fmt.Sprintf("ficha-%s.pdf", view.Lot.Code)

	// Con archivo activo la ficha sólo se entrega si quedó archivada.
	if uc.archive != nil {
		key := fmt.Sprintf("%s/%s-%s", view.Lot.Code, generatedAt.UTC().Format("20060102T150405Z"), filename)
		meta := map[string]string{
			"lote":     view.Lot.Code,
			"dictamen": string(view.Lot.Verdict),
		}
		if actor, err := ActorFrom(ctx); err == nil {
			meta["operador"] = actor.ID
		}
		if err := uc.archive.Archive(ctx, key, doc, meta); err != nil {
			return nil, "", fmt.Errorf("archivar ficha del lote %s: %w", code, err)
		}
	}
	return doc, filename, nil
}
