package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// conservationPlaces: decimales con que se compara la suma por bulto contra el total.
const conservationPlaces = 6

var hundred = decimal.NewFromInt(100)

// RequiredString falla si value está vacío.
func RequiredString(field, value, message string) Errors {
	if strings.TrimSpace(value) == "" {
		return Fail(field, CodeRequired, message)
	}
	return nil
}

// RequiredTime falla si t es nil o cero.
func RequiredTime(field string, t *time.Time, message string) Errors {
	if t == nil || t.IsZero() {
		return Fail(field, CodeRequired, message)
	}
	return nil
}

// RequiredDecimal falla si v es nil.
func RequiredDecimal(field string, v *decimal.Decimal, message string) Errors {
	if v == nil {
		return Fail(field, CodeRequired, message)
	}
	return nil
}

// Positive falla si q no es estrictamente positiva.
func Positive(field string, q decimal.Decimal) Errors {
	if !q.IsPositive() {
		return Fail(field, CodeOutOfRange, "la cantidad debe ser mayor a cero")
	}
	return nil
}

// Integer falla si q tiene parte fraccionaria.
func Integer(field string, q decimal.Decimal) Errors {
	if !q.Equal(q.Truncate(0)) {
		return Fail(field, CodeInvalid, "la cantidad debe ser entera para unidades trazables")
	}
	return nil
}

// TiterInRange exige un título en el intervalo (0, 100].
func TiterInRange(field string, titer decimal.Decimal) Errors {
	if !titer.IsPositive() || titer.GreaterThan(hundred) {
		return Fail(field, CodeOutOfRange, "el título debe ser mayor a 0 y hasta 100")
	}
	return nil
}

// Day trunca t a la fecha calendario en su propia zona.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NotBefore falla si el día de t es anterior al día de limit.
func NotBefore(field string, t, limit time.Time, message string) Errors {
	if Day(t).Before(Day(limit)) {
		return Fail(field, CodeDate, message)
	}
	return nil
}

// NotAfter falla si el día de t es posterior al día de limit.
func NotAfter(field string, t, limit time.Time, message string) Errors {
	if Day(t).After(Day(limit)) {
		return Fail(field, CodeDate, message)
	}
	return nil
}

// CompatibleUnit falla si got no se puede expresar en want.
func CompatibleUnit(field string, got, want unit.Unit) Errors {
	if !got.Valid() {
		return Fail(field, CodeInvalid, "unidad de medida desconocida")
	}
	if !unit.Compatible(got, want) {
		return Fail(field, CodeIncompatible,
			fmt.Sprintf("la unidad %s no es compatible con %s", got, want))
	}
	return nil
}

// Available falla si requested supera available. Ambas se comparan en la menor de sus unidades.
func Available(field string, requested, available unit.Quantity) (Errors, error) {
	common := unit.SmallerOf(requested.Unit, available.Unit)
	r, err := requested.In(common)
	if err != nil {
		return nil, err
	}
	a, err := available.In(common)
	if err != nil {
		return nil, err
	}
	if r.GreaterThan(a) {
		return Fail(field, CodeInsufficient,
			fmt.Sprintf("la cantidad solicitada (%s) supera el saldo disponible (%s)", requested, available)), nil
	}
	return nil, nil
}

// Conservation exige que la suma de las partes sea igual al total declarado.
// Todas las cantidades se llevan a la menor unidad involucrada y se comparan a 6 decimales.
func Conservation(field string, total unit.Quantity, parts []unit.Quantity) (Errors, error) {
	common := total.Unit
	for _, p := range parts {
		common = unit.SmallerOf(p.Unit, common)
	}
	sum := decimal.Zero
	for _, p := range parts {
		v, err := p.In(common)
		if err != nil {
			return nil, err
		}
		sum = sum.Add(v)
	}
	t, err := total.In(common)
	if err != nil {
		return nil, err
	}
	if !sum.Round(conservationPlaces).Equal(t.Round(conservationPlaces)) {
		return Fail(field, CodeConservation, fmt.Sprintf(
			"la suma de las cantidades por bulto (%s %s) no coincide con el total declarado (%s %s)",
			sum.String(), common.Symbol(), t.String(), common.Symbol())), nil
	}
	return nil, nil
}
