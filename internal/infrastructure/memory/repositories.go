package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// Los repositorios devuelven copias: los cambios sólo llegan al estado vía Save.

type lotRepo struct{ s *state }

func (r *lotRepo) Save(_ context.Context, l *entity.Lot) error {
	r.s.lots[l.ID] = *l
	return nil
}

func (r *lotRepo) FindByID(_ context.Context, id string) (*entity.Lot, error) {
	l, ok := r.s.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *lotRepo) FindByCode(_ context.Context, code string) (*entity.Lot, error) {
	var found *entity.Lot
	for _, l := range r.s.sortedLots() {
		if l.Code == code {
			if l.Active {
				return l, nil
			}
			if found == nil {
				found = l
			}
		}
	}
	return found, nil
}

func (r *lotRepo) FindAllActiveByCode(_ context.Context, code string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.s.sortedLots() {
		if l.Active && l.Code == code {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetForUpdate equivale a FindByID: el mutex del Store ya serializa la transacción.
func (r *lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.FindByID(ctx, id)
}

func (r *lotRepo) ListActiveByVerdict(_ context.Context, verdicts ...entity.Verdict) ([]*entity.Lot, error) {
	want := make(map[entity.Verdict]bool, len(verdicts))
	for _, v := range verdicts {
		want[v] = true
	}
	var out []*entity.Lot
	for _, l := range r.s.sortedLots() {
		if l.Active && want[l.Verdict] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *lotRepo) List(_ context.Context, limit, offset int) ([]*entity.Lot, error) {
	all := r.s.sortedLots()
	if offset >= len(all) {
		return []*entity.Lot{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// sortedLots devuelve copias ordenadas por fecha de alta y código.
func (s *state) sortedLots() []*entity.Lot {
	out := make([]*entity.Lot, 0, len(s.lots))
	for _, l := range s.lots {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// ──────────────────────────────────────────────────────────────────────────────

type packageRepo struct{ s *state }

func (r *packageRepo) SaveAll(_ context.Context, packages []*entity.Package) error {
	for _, p := range packages {
		r.s.packages[p.ID] = *p
	}
	return nil
}

func (r *packageRepo) FindByID(_ context.Context, id string) (*entity.Package, error) {
	p, ok := r.s.packages[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *packageRepo) ListByLot(_ context.Context, lotID string) ([]*entity.Package, error) {
	var out []*entity.Package
	for _, p := range r.s.packages {
		if p.LotID == lotID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────

type movementRepo struct{ s *state }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	for _, existing := range r.s.movements {
		if existing.ID == m.ID {
			return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrDuplicate)
		}
	}
	r.s.movements = append(r.s.movements, cloneMovement(*m))
	return nil
}

func (r *movementRepo) Deactivate(_ context.Context, id string) error {
	for i := range r.s.movements {
		if r.s.movements[i].ID == id {
			r.s.movements[i].Active = false
			return nil
		}
	}
	return fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
}

func (r *movementRepo) FindByID(_ context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			c := cloneMovement(m)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) FindByCode(_ context.Context, code string) (*entity.Movement, error) {
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].Code == code {
			c := cloneMovement(r.s.movements[i])
			return &c, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByLot(_ context.Context, lotID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.LotID == lotID {
			c := cloneMovement(m)
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────

type analysisRepo struct{ s *state }

func (r *analysisRepo) Save(_ context.Context, a *entity.Analysis) error {
	r.s.analyses[a.ID] = *a
	return nil
}

func (r *analysisRepo) FindByNumber(_ context.Context, number string) (*entity.Analysis, error) {
	for _, a := range r.s.analyses {
		if a.Number == number && a.Active {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *analysisRepo) ListByLot(_ context.Context, lotID string) ([]*entity.Analysis, error) {
	var out []*entity.Analysis
	for _, a := range r.s.analyses {
		if a.LotID == lotID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────

type traceRepo struct{ s *state }

func (r *traceRepo) SaveAll(_ context.Context, traces []*entity.Trace) error {
	for _, t := range traces {
		r.s.traces[t.ID] = *t
	}
	return nil
}

func (r *traceRepo) ListByLot(_ context.Context, lotID string) ([]*entity.Trace, error) {
	var out []*entity.Trace
	for _, t := range r.s.traces {
		if t.LotID == lotID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────

type productRepo struct{ s *state }

func (r *productRepo) Save(_ context.Context, p *entity.Product) error {
	r.s.products[p.ID] = *p
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) FindByCode(_ context.Context, code string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// ──────────────────────────────────────────────────────────────────────────────

type operatorRepo struct{ s *state }

func (r *operatorRepo) Save(_ context.Context, o *entity.Operator) error {
	r.s.operators[o.ID] = *o
	return nil
}

func (r *operatorRepo) FindByID(_ context.Context, id string) (*entity.Operator, error) {
	o, ok := r.s.operators[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *operatorRepo) FindByEmail(_ context.Context, email string) (*entity.Operator, error) {
	for _, o := range r.s.operators {
		if strings.EqualFold(o.Email, email) {
			return &o, nil
		}
	}
	return nil, nil
}
