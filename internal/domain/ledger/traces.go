package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
)

// AssignTraces ajusta las trazas de un lote trazable para que cada bulto tenga tantas
// trazas activas como unidades en su saldo. Se consumen primero los números más bajos;
// al recuperar saldo se reactivan las últimas consumidas y, si no alcanzan, se numeran
// trazas nuevas a continuación de la mayor existente.
//
// Devuelve el conjunto completo de trazas del lote (modificadas y nuevas). Para lotes no
// trazables devuelve traces sin cambios.
func AssignTraces(lot *entity.Lot, packages []*entity.Package, traces []*entity.Trace) ([]*entity.Trace, error) {
	if !lot.Traceable {
		return traces, nil
	}
	if !lot.Unit.IsCount() {
		return nil, fmt.Errorf("%w: lote trazable %s con unidad %s", domain.ErrTraceMismatch, lot.Code, lot.Unit)
	}

	byPackage := make(map[string][]*entity.Trace)
	next := 1
	for _, t := range traces {
		byPackage[t.PackageID] = append(byPackage[t.PackageID], t)
		if t.Number >= next {
			next = t.Number + 1
		}
	}

	out := append([]*entity.Trace(nil), traces...)
	ordered := append([]*entity.Package(nil), packages...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	for _, p := range ordered {
		if !p.Quantity.Equal(p.Quantity.Truncate(0)) {
			return nil, fmt.Errorf("%w: bulto %d con saldo fraccionario %s", domain.ErrTraceMismatch, p.Number, p.Quantity)
		}
		want := int(p.Quantity.IntPart())
		if !lot.Active || !p.Active {
			want = 0
		}

		own := byPackage[p.ID]
		sort.SliceStable(own, func(i, j int) bool { return own[i].Number < own[j].Number })
		active := 0
		for _, t := range own {
			if t.Active {
				active++
			}
		}

		for i := 0; i < len(own) && active > want; i++ {
			if own[i].Active {
				own[i].Active = false
				active--
			}
		}
		for i := len(own) - 1; i >= 0 && active < want; i-- {
			if !own[i].Active {
				own[i].Active = true
				active++
			}
		}
		for ; active < want; active++ {
			t := &entity.Trace{
				ID:            uuid.New().String(),
				LotID:         lot.ID,
				PackageID:     p.ID,
				PackageNumber: p.Number,
				Number:        next,
				Active:        true,
			}
			next++
			out = append(out, t)
		}
	}

	if lot.Active {
		count := 0
		for _, t := range out {
			if t.Active {
				count++
			}
		}
		if !lot.Quantity.Equal(lot.Quantity.Truncate(0)) || int64(count) != lot.Quantity.IntPart() {
			return nil, fmt.Errorf("%w: %d trazas activas para %s unidades", domain.ErrTraceMismatch, count, lot.Quantity)
		}
	}
	return out, nil
}
