// Package memory implementa los repositorios del libro de lotes en memoria.
//
// Cada transacción trabaja sobre una copia del estado y la publica sólo si la función
// termina sin error. Un único mutex serializa las transacciones, con lo que las escrituras
// sobre un mismo lote nunca se pisan. Pensado para tests y entornos efímeros; el paquete
// sqlite lo usa como base y persiste instantáneas.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/repository"
)

var (
	_ lot.TxRunner                  = (*Store)(nil)
	_ repository.LotRepository      = (*lotRepo)(nil)
	_ repository.PackageRepository  = (*packageRepo)(nil)
	_ repository.MovementRepository = (*movementRepo)(nil)
	_ repository.AnalysisRepository = (*analysisRepo)(nil)
	_ repository.TraceRepository    = (*traceRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.OperatorRepository = (*operatorRepo)(nil)
)

// Snapshot es una copia completa del estado, serializable a JSON.
type Snapshot struct {
	Lots      []entity.Lot      `json:"lots"`
	Packages  []entity.Package  `json:"packages"`
	Movements []entity.Movement `json:"movements"`
	Analyses  []entity.Analysis `json:"analyses"`
	Traces    []entity.Trace    `json:"traces"`
	Products  []entity.Product  `json:"products"`
	Operators []entity.Operator `json:"operators"`
}

type state struct {
	lots      map[string]entity.Lot
	packages  map[string]entity.Package
	movements []entity.Movement // orden de inserción
	analyses  map[string]entity.Analysis
	traces    map[string]entity.Trace
	products  map[string]entity.Product
	operators map[string]entity.Operator
}

func newState() *state {
	return &state{
		lots:      make(map[string]entity.Lot),
		packages:  make(map[string]entity.Package),
		analyses:  make(map[string]entity.Analysis),
		traces:    make(map[string]entity.Trace),
		products:  make(map[string]entity.Product),
		operators: make(map[string]entity.Operator),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.packages {
		c.packages[k] = v
	}
	c.movements = make([]entity.Movement, len(s.movements))
	for i, m := range s.movements {
		c.movements[i] = cloneMovement(m)
	}
	for k, v := range s.analyses {
		c.analyses[k] = v
	}
	for k, v := range s.traces {
		c.traces[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.operators {
		c.operators[k] = v
	}
	return c
}

func cloneMovement(m entity.Movement) entity.Movement {
	m.Details = append([]entity.MovementDetail(nil), m.Details...)
	return m
}

func (s *state) stores() lot.Stores {
	return lot.Stores{
		Lots:      &lotRepo{s},
		Packages:  &packageRepo{s},
		Movements: &movementRepo{s},
		Analyses:  &analysisRepo{s},
		Traces:    &traceRepo{s},
		Products:  &productRepo{s},
		Operators: &operatorRepo{s},
	}
}

// Store es el almacén en memoria. El valor cero no es usable; usar New.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{state: newState()}
}

// Run ejecuta fn sobre una copia del estado y la publica si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(lot.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(work.stores()); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Export devuelve una instantánea del estado publicado.
func (s *Store) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

func (s *Store) exportLocked() Snapshot {
	st := s.state
	snap := Snapshot{Movements: make([]entity.Movement, 0, len(st.movements))}
	for _, v := range st.lots {
		snap.Lots = append(snap.Lots, v)
	}
	for _, v := range st.packages {
		snap.Packages = append(snap.Packages, v)
	}
	for _, m := range st.movements {
		snap.Movements = append(snap.Movements, cloneMovement(m))
	}
	for _, v := range st.analyses {
		snap.Analyses = append(snap.Analyses, v)
	}
	for _, v := range st.traces {
		snap.Traces = append(snap.Traces, v)
	}
	for _, v := range st.products {
		snap.Products = append(snap.Products, v)
	}
	for _, v := range st.operators {
		snap.Operators = append(snap.Operators, v)
	}
	sort.Slice(snap.Lots, func(i, j int) bool { return snap.Lots[i].ID < snap.Lots[j].ID })
	sort.Slice(snap.Packages, func(i, j int) bool { return snap.Packages[i].ID < snap.Packages[j].ID })
	sort.Slice(snap.Analyses, func(i, j int) bool { return snap.Analyses[i].ID < snap.Analyses[j].ID })
	sort.Slice(snap.Traces, func(i, j int) bool { return snap.Traces[i].ID < snap.Traces[j].ID })
	sort.Slice(snap.Products, func(i, j int) bool { return snap.Products[i].ID < snap.Products[j].ID })
	sort.Slice(snap.Operators, func(i, j int) bool { return snap.Operators[i].ID < snap.Operators[j].ID })
	return snap
}

// Import reemplaza el estado por el de la instantánea.
func (s *Store) Import(snap Snapshot) {
	st := newState()
	for _, v := range snap.Lots {
		st.lots[v.ID] = v
	}
	for _, v := range snap.Packages {
		st.packages[v.ID] = v
	}
	for _, m := range snap.Movements {
		st.movements = append(st.movements, cloneMovement(m))
	}
	for _, v := range snap.Analyses {
		st.analyses[v.ID] = v
	}
	for _, v := range snap.Traces {
		st.traces[v.ID] = v
	}
	for _, v := range snap.Products {
		st.products[v.ID] = v
	}
	for _, v := range snap.Operators {
		st.operators[v.ID] = v
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// RunAndExport ejecuta fn como Run y devuelve la instantánea resultante bajo el mismo bloqueo.
func (s *Store) RunAndExport(ctx context.Context, fn func(lot.Stores) error) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(work.stores()); err != nil {
		return Snapshot{}, err
	}
	s.state = work
	return s.exportLocked(), nil
}
