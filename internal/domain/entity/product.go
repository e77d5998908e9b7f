package entity

import (
	"time"

	"github.com/jhoicas/Lotes-api/internal/domain/unit"
)

// Product es el material (materia prima, envase, producto terminado) al que pertenece un lote.
type Product struct {
	ID        string
	Code      string // código interno único
	Name      string
	Unit      unit.Unit // unidad habitual de stock
	Active    bool
	CreatedAt time.Time
}
