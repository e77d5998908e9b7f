package unit

import "github.com/shopspring/decimal"

var (
	one = decimal.NewFromInt(1)
	ten = decimal.NewFromInt(10)
)

// SuggestDisplayUnit elige una unidad legible para mostrar quantity.
// Sólo afecta la presentación; las cantidades persistidas no cambian.
func SuggestDisplayUnit(u Unit, quantity decimal.Decimal) Unit {
	_, out := ToDisplay(u, quantity)
	return out
}

// ToDisplay devuelve la cantidad convertida junto con la unidad sugerida.
//
// Baja por la escalera de la dimensión mientras la cantidad sea < 1, o < 10 con más
// de dos decimales significativos; sube mientras su orden de magnitud supere 2 y no
// tenga parte fraccionaria. Las unidades de conteo no se tocan.
func ToDisplay(u Unit, quantity decimal.Decimal) (decimal.Decimal, Unit) {
	if !u.Valid() || u.IsCount() || quantity.IsZero() {
		return quantity, u
	}
	chain := chains[u.Dimension()]
	pos := indexByFactor(chain, u)
	if pos < 0 {
		return quantity, u
	}

	current, q := u, quantity
	if needsSmaller(q) {
		for pos > 0 && needsSmaller(q) {
			pos--
			q, _ = Convert(current, q, chain[pos])
			current = chain[pos]
		}
		return q, current
	}
	for pos < len(chain)-1 && needsLarger(q) {
		pos++
		q, _ = Convert(current, q, chain[pos])
		current = chain[pos]
	}
	return q, current
}

func needsSmaller(q decimal.Decimal) bool {
	a := q.Abs()
	return a.LessThan(one) || (a.LessThan(ten) && decimalPlaces(a) > 2)
}

func needsLarger(q decimal.Decimal) bool {
	a := q.Abs()
	return MagnitudeBase10(a) > 2 && a.Equal(a.Truncate(0))
}

func indexByFactor(chain []Unit, u Unit) int {
	for i, c := range chain {
		if c.Factor().Equal(u.Factor()) {
			return i
		}
	}
	return -1
}
