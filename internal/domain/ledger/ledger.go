// Package ledger reconstruye saldos, estados y trazas a partir del historial de movimientos.
//
// Los movimientos son inmutables; la cantidad vigente de un bulto es la suma de las
// altas menos las bajas, y una reversa resta la contribución del movimiento que anula.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// Balance es el saldo reconstruido de un bulto.
type Balance struct {
	Quantity   decimal.Decimal // en la unidad del bulto
	LastMotive entity.Motive   // último motivo no revertido que tocó el bulto; "" si ninguno
}

// PackageBalances calcula el saldo de cada bulto (clave: ID del bulto).
// Un bulto sin movimientos tiene saldo cero.
func PackageBalances(packages []*entity.Package, movements []*entity.Movement) (map[string]Balance, error) {
	byID := make(map[string]*entity.Package, len(packages))
	out := make(map[string]Balance, len(packages))
	for _, p := range packages {
		byID[p.ID] = p
		out[p.ID] = Balance{Quantity: decimal.Zero}
	}

	ordered := chronological(movements)
	index := make(map[string]*entity.Movement, len(ordered))
	reversed := make(map[string]bool)
	for _, m := range ordered {
		index[m.ID] = m
		if m.Motive == entity.MotiveReverso && m.OriginMovementID != "" {
			reversed[m.OriginMovementID] = true
		}
	}

	for _, m := range ordered {
		if m.Motive == entity.MotiveReverso {
			origin, ok := index[m.OriginMovementID]
			if !ok {
				return nil, &domain.MovementNotFoundError{Ref: m.OriginMovementID}
			}
			if err := apply(out, byID, origin, -1); err != nil {
				return nil, err
			}
			continue
		}
		if err := apply(out, byID, m, 1); err != nil {
			return nil, err
		}
		if reversed[m.ID] {
			continue
		}
		for _, det := range m.Details {
			if b, ok := out[det.PackageID]; ok {
				b.LastMotive = m.Motive
				out[det.PackageID] = b
			}
		}
	}

	for id, b := range out {
		if b.Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: bulto %d (%s)", domain.ErrNegativeBalance, byID[id].Number, b.Quantity)
		}
	}
	return out, nil
}

// apply suma (sign=1) o resta (sign=-1) la contribución de m a los saldos.
func apply(out map[string]Balance, byID map[string]*entity.Package, m *entity.Movement, sign int64) error {
	var direction int64
	switch m.Kind {
	case entity.MovementKindAlta:
		direction = 1
	case entity.MovementKindBaja:
		direction = -1
	default:
		return nil
	}
	factor := decimal.NewFromInt(direction * sign)
	for _, det := range m.Details {
		p, ok := byID[det.PackageID]
		if !ok {
			continue
		}
		q, err := unit.Convert(det.Unit, det.Quantity, p.Unit)
		if err != nil {
			return err
		}
		b := out[p.ID]
		b.Quantity = b.Quantity.Add(q.Mul(factor))
		out[p.ID] = b
	}
	return nil
}

func chronological(movements []*entity.Movement) []*entity.Movement {
	ordered := make([]*entity.Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}

// StateFor deriva el estado de un bulto a partir de su saldo y el último motivo que lo tocó.
func StateFor(p *entity.Package, b Balance) entity.PackageState {
	if b.Quantity.IsZero() {
		switch b.LastMotive {
		case entity.MotiveVenta:
			return entity.PackageStateVendido
		case entity.MotiveDevolucionCompra:
			return entity.PackageStateDevuelto
		case entity.MotiveAjuste:
			return entity.PackageStateDescartado
		case "":
			return entity.PackageStateNuevo
		default:
			return entity.PackageStateConsumido
		}
	}
	switch b.LastMotive {
	case entity.MotiveDevolucionVenta:
		return entity.PackageStateDevuelto
	case entity.MotiveCompra, entity.MotiveProduccionPropia, "":
		if b.Quantity.Equal(p.InitialQuantity) {
			return entity.PackageStateNuevo
		}
	}
	return entity.PackageStateEnUso
}

// Recompute escribe en los bultos su saldo y estado, y en el lote la suma expresada en su unidad.
func Recompute(lot *entity.Lot, packages []*entity.Package, movements []*entity.Movement) error {
	balances, err := PackageBalances(packages, movements)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, p := range packages {
		b := balances[p.ID]
		p.Quantity = b.Quantity
		p.State = StateFor(p, b)
		inLot, err := unit.Convert(p.Unit, p.Quantity, lot.Unit)
		if err != nil {
			return err
		}
		total = total.Add(inLot)
	}
	lot.Quantity = total
	return nil
}

// InProgressAnalysis devuelve el análisis en curso del lote, nil si no hay ninguno.
// Dos o más en curso es una ruptura de integridad.
func InProgressAnalysis(lotID string, analyses []*entity.Analysis) (*entity.Analysis, error) {
	var found []*entity.Analysis
	for _, a := range analyses {
		if a.InProgress() {
			found = append(found, a)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}
	numbers := make([]string, 0, len(found))
	for _, a := range found {
		numbers = append(numbers, a.Number)
	}
	return nil, &domain.MultipleInProgressAnalysisError{LotID: lotID, Numbers: numbers}
}

// LastApprovedAnalysis devuelve el último análisis activo con dictamen APROBADO, o nil.
func LastApprovedAnalysis(analyses []*entity.Analysis) *entity.Analysis {
	var last *entity.Analysis
	for _, a := range analyses {
		if !a.Active || a.Verdict != entity.VerdictAprobado {
			continue
		}
		if last == nil || realized(a).After(realized(last)) ||
			(realized(a).Equal(realized(last)) && a.CreatedAt.After(last.CreatedAt)) {
			last = a
		}
	}
	return last
}

func realized(a *entity.Analysis) time.Time {
	if a.RealizedDate != nil {
		return *a.RealizedDate
	}
	return a.CreatedAt
}
