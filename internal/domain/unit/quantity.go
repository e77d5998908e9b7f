package unit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity es una cantidad con su unidad.
type Quantity struct {
	Amount decimal.Decimal `json:"amount"`
	Unit   Unit            `json:"unit"`
}

// Of construye una cantidad.
func Of(amount decimal.Decimal, u Unit) Quantity { return Quantity{Amount: amount, Unit: u} }

// In expresa la cantidad en la unidad to.
func (q Quantity) In(to Unit) (decimal.Decimal, error) {
	return Convert(q.Unit, q.Amount, to)
}

func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", q.Amount.String(), q.Unit.Symbol())
}
