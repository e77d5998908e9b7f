package lot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

type stubGenerator struct{ last *lot.Sheet }

func (g *stubGenerator) GenerateLotSheet(_ context.Context, s *lot.Sheet) ([]byte, error) {
	g.last = s
	return []byte("%PDF-stub"), nil
}

type stubArchive struct {
	keys []string
	meta map[string]string
	err  error
}

func (a *stubArchive) Archive(_ context.Context, key string, _ []byte, meta map[string]string) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	a.meta = meta
	return nil
}

type countingObserver struct {
	registered, rejected, failed int
}

func (o *countingObserver) Registered(string, *entity.Movement) { o.registered++ }
func (o *countingObserver) Rejected(string, validation.Errors) { o.rejected++ }
func (o *countingObserver) Failed(string, error) { o.failed++ }

// ──────────────────────────────────────────────────────────────────────────────
// Ficha de trazabilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestDownloadLotSheet_ArchivaCopia(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-700")
	f.sample(t, "L-700", "A-700")

	gen := &stubGenerator{}
	archive := &stubArchive{}
	uc := lot.NewSheetUseCase(f.svc, gen, "Laboratorio Test").WithArchive(archive)

	doc, filename, err := uc.DownloadLotSheet(f.admin, "L-700")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(doc))
	assert.Equal(t, "ficha-L-700.pdf", filename)
	require.NotNil(t, gen.last)
	assert.Len(t, gen.last.Movements, 2, "ingreso y muestreo")

	require.Len(t, archive.keys, 1)
	assert.Equal(t, "L-700/20250310T090200Z-ficha-L-700.pdf", archive.keys[0], "la clave lleva el instante de emisión")
	assert.Equal(t, "CUARENTENA", archive.meta["dictamen"])
	assert.Equal(t, "op-admin", archive.meta["operador"])
}

func TestDownloadLotSheet_FalloDeArchivoNoEntregaFicha(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "L-701")

	uc := lot.NewSheetUseCase(f.svc, &stubGenerator{}, "Lab").WithArchive(&stubArchive{err: errors.New("s3 caído")})

	doc, _, err := uc.DownloadLotSheet(f.admin, "L-701")
	assert.Error(t, err)
	assert.Nil(t, doc)
}

func TestDownloadLotSheet_LoteInexistente(t *testing.T) {
	f := newFixture(t)
	uc := lot.NewSheetUseCase(f.svc, &stubGenerator{}, "Lab")

	_, _, err := uc.DownloadLotSheet(f.admin, "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Observador
// ──────────────────────────────────────────────────────────────────────────────

func TestService_NotificaDesenlaces(t *testing.T) {
	f := newFixture(t)
	obs := &countingObserver{}
	f.svc.WithObserver(obs)

	f.intake(t, "L-702")
	in := f.purchaseInput("L-702")
	res, err := f.svc.RegisterPurchaseIntake(f.admin, in)
	require.NoError(t, err)
	require.False(t, res.OK(), "el código ya existe")

	assert.Equal(t, 1, obs.registered)
	assert.Equal(t, 1, obs.rejected)
	assert.Equal(t, 0, obs.failed)
}
