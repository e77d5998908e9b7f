package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analysis es un ensayo de calidad sobre la muestra de un lote.
// Está "en curso" mientras esté activo, sin dictamen y sin fecha de realización.
type Analysis struct {
	ID             string
	LotID          string
	Number         string // único
	RequestedDate  time.Time
	RealizedDate   *time.Time
	Verdict        Verdict // "" mientras está en curso
	Titer          *decimal.Decimal
	ReanalysisDate *time.Time
	ExpiryDate     *time.Time
	Active         bool
	CreatedAt      time.Time
}

// InProgress indica si el análisis espera resultado.
func (a *Analysis) InProgress() bool {
	return a.Active && a.Verdict == "" && a.RealizedDate == nil
}
