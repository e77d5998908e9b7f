package lot

import (
	"context"
	"time"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/repository"
)

// Stores agrupa los repositorios atados a una misma transacción.
type Stores struct {
	Lots      repository.LotRepository
	Packages  repository.PackageRepository
	Movements repository.MovementRepository
	Analyses  repository.AnalysisRepository
	Traces    repository.TraceRepository
	Products  repository.ProductRepository
	Operators repository.OperatorRepository
}

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a ella.
// Si fn devuelve error la transacción se descarta. Las escrituras sobre un mismo lote
// deben quedar serializadas (bloqueo de fila o equivalente).
type TxRunner interface {
	Run(ctx context.Context, fn func(s Stores) error) error
}

// Clock provee el instante de cada operación. Inyectable para tests deterministas.
type Clock interface {
	Now() time.Time
}

// SystemClock es el reloj del sistema expresado en Location.
type SystemClock struct {
	Location *time.Location
}

// Now devuelve la hora actual en la zona configurada (UTC si no hay).
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock devuelve siempre el mismo instante.
type FixedClock struct {
	At time.Time
}

// Now devuelve At.
func (c *FixedClock) Now() time.Time { return c.At }

// Advance corre el reloj d hacia adelante.
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }

// Actor es el operador que ejecuta la operación.
type Actor struct {
	ID   string
	Role entity.Role
}

type actorKey struct{}

// WithActor adjunta el operador actuante al contexto.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom obtiene el operador actuante del contexto.
func ActorFrom(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || a.ID == "" {
		return Actor{}, domain.ErrOperatorMissing
	}
	return a, nil
}
