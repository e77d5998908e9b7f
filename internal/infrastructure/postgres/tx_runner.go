package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
)

var _ lot.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Stores arma los repositorios sobre q (pool o tx).
func Stores(q Querier) lot.Stores {
	return lot.Stores{
		Lots:      NewLotRepository(q),
		Packages:  NewPackageRepository(q),
		Movements: NewMovementRepository(q),
		Analyses:  NewAnalysisRepository(q),
		Traces:    NewTraceRepository(q),
		Products:  NewProductRepository(q),
		Operators: NewOperatorRepository(q),
	}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. El bloqueo por lote lo toma LotRepository.GetForUpdate.
func (r *TxRunner) Run(ctx context.Context, fn func(s lot.Stores) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Stores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
