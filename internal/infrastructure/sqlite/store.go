// Package sqlite persiste el almacén en memoria en un archivo SQLite.
//
// Tras cada transacción exitosa se guarda una instantánea completa, un blob JSON por
// colección, en la tabla state. Al abrir se carga la última instantánea.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // driver sqlite en Go puro

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/infrastructure/memory"
)

var _ lot.TxRunner = (*Store)(nil)

// DefaultPath es el archivo usado cuando no se configura otro.
const DefaultPath = "data/lotes.db"

// Store es un memory.Store que se vuelca a SQLite después de cada transacción.
type Store struct {
	mem  *memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore abre (o crea) la base en path y carga la instantánea guardada.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("crear directorios: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket  TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crear tabla state: %w", err)
	}
	s := &Store{mem: memory.New(), db: db, path: path}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// buckets asocia cada colección de la instantánea a su fila en state.
func buckets(snap *memory.Snapshot) map[string]any {
	return map[string]any{
		"lots":      &snap.Lots,
		"packages":  &snap.Packages,
		"movements": &snap.Movements,
		"analyses":  &snap.Analyses,
		"traces":    &snap.Traces,
		"products":  &snap.Products,
		"operators": &snap.Operators,
	}
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("leer state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snap memory.Snapshot
	targets := buckets(&snap)
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		target, ok := targets[bucket]
		if !ok {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("decodificar %s: %w", bucket, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("leer state: %w", err)
	}
	if found {
		s.mem.Import(snap)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, snap memory.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("iniciar transacción sqlite: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for bucket, value := range buckets(&snap) {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("codificar %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
			bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Run ejecuta fn en memoria y, si termina bien, persiste la instantánea resultante.
func (s *Store) Run(ctx context.Context, fn func(lot.Stores) error) error {
	snap, err := s.mem.RunAndExport(ctx, fn)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return fmt.Errorf("persistir instantánea: %w", err)
	}
	return nil
}

// Close cierra la base.
func (s *Store) Close() error { return s.db.Close() }

// Path devuelve la ruta del archivo.
func (s *Store) Path() string { return s.path }
