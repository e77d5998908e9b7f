package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx; los repositorios aceptan cualquiera.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// sendBatch envía b y consume todos sus resultados; devuelve el primer error.
func sendBatch(ctx context.Context, q Querier, b *pgx.Batch) error {
	br := q.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// nullable convierte "" en NULL para columnas de referencia opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// deref devuelve "" para NULL.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
