package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// Estados de un bulto.
type PackageState string

const (
	PackageStateNuevo      PackageState = "NUEVO"
	PackageStateEnUso      PackageState = "EN_USO"
	PackageStateConsumido  PackageState = "CONSUMIDO"
	PackageStateVendido    PackageState = "VENDIDO"
	PackageStateDevuelto   PackageState = "DEVUELTO"
	PackageStateDescartado PackageState = "DESCARTADO"
)

// Package es un bulto físico de un lote, numerado 1..N dentro del lote.
type Package struct {
	ID              string
	LotID           string
	Number          int
	InitialQuantity decimal.Decimal
	Quantity        decimal.Decimal
	Unit            unit.Unit
	State           PackageState
	Active          bool
}
