package unit

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
)

// Convert expresa quantity (en from) en la unidad to.
// Si from == to devuelve el mismo valor sin operar; entre dimensiones distintas
// devuelve *domain.IncompatibleUnitsError.
func Convert(from Unit, quantity decimal.Decimal, to Unit) (decimal.Decimal, error) {
	if from == to {
		return quantity, nil
	}
	if !Compatible(from, to) {
		return decimal.Zero, &domain.IncompatibleUnitsError{From: string(from), To: string(to)}
	}
	return quantity.Mul(from.Factor().Div(to.Factor())), nil
}

// SmallerOf devuelve la unidad de menor factor. Ante empate devuelve b.
func SmallerOf(a, b Unit) Unit {
	if a.Factor().LessThan(b.Factor()) {
		return a
	}
	return b
}

// LargerOf devuelve la unidad de mayor factor. Ante empate devuelve b.
func LargerOf(a, b Unit) Unit {
	if a.Factor().GreaterThan(b.Factor()) {
		return a
	}
	return b
}

// MagnitudeBase10 devuelve precision - scale - 1 de la representación canónica
// (orden de magnitud decimal). Cero para el valor cero.
func MagnitudeBase10(v decimal.Decimal) int {
	if v.IsZero() {
		return 0
	}
	coef, exp := canonical(v)
	return len(coef.String()) + int(exp) - 1
}

// decimalPlaces cuenta los decimales significativos (sin ceros a la derecha).
func decimalPlaces(v decimal.Decimal) int {
	if v.IsZero() {
		return 0
	}
	_, exp := canonical(v)
	if exp >= 0 {
		return 0
	}
	return int(-exp)
}

// canonical quita los ceros a la derecha del coeficiente: |v| = coef * 10^exp.
func canonical(v decimal.Decimal) (*big.Int, int32) {
	coef := new(big.Int).Abs(v.Coefficient())
	exp := v.Exponent()
	ten := big.NewInt(10)
	rem := new(big.Int)
	for coef.Sign() != 0 {
		q, r := new(big.Int).QuoRem(coef, ten, rem)
		if r.Sign() != 0 {
			break
		}
		coef = q
		exp++
	}
	return coef, exp
}
