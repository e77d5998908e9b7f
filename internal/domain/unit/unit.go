// Package unit modela las unidades de medida del inventario y su conversión.
//
// Cada unidad pertenece a una dimensión física y declara su factor respecto de la
// unidad base de esa dimensión (gramo, litro, metro, metro cuadrado, unidad).
// Sólo se convierte entre unidades de la misma dimensión.
package unit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Lotes-api/internal/domain"
)

// Dimension agrupa unidades convertibles entre sí.
type Dimension string

const (
	DimensionMass   Dimension = "MASA"
	DimensionVolume Dimension = "VOLUMEN"
	DimensionLength Dimension = "LONGITUD"
	DimensionArea   Dimension = "SUPERFICIE"
	DimensionCount  Dimension = "CONTEO"
)

// Unit es el código persistido de la unidad (enumeración cerrada).
type Unit string

const (
	Microgramo         Unit = "MICROGRAMO"
	Miligramo          Unit = "MILIGRAMO"
	Gramo              Unit = "GRAMO"
	Kilogramo          Unit = "KILOGRAMO"
	Tonelada           Unit = "TONELADA"
	Microlitro         Unit = "MICROLITRO"
	Mililitro          Unit = "MILILITRO"
	CentimetroCubico   Unit = "CENTIMETRO_CUBICO"
	Litro              Unit = "LITRO"
	MetroCubico        Unit = "METRO_CUBICO"
	Milimetro          Unit = "MILIMETRO"
	Centimetro         Unit = "CENTIMETRO"
	Metro              Unit = "METRO"
	CentimetroCuadrado Unit = "CENTIMETRO_CUADRADO"
	MetroCuadrado      Unit = "METRO_CUADRADO"
	Unidad             Unit = "UNIDAD"
)

type definition struct {
	dimension Dimension
	factor    decimal.Decimal
	symbol    string
}

var definitions = map[Unit]definition{
	Microgramo:         {DimensionMass, decimal.New(1, -6), "µg"},
	Miligramo:          {DimensionMass, decimal.New(1, -3), "mg"},
	Gramo:              {DimensionMass, decimal.New(1, 0), "g"},
	Kilogramo:          {DimensionMass, decimal.New(1, 3), "kg"},
	Tonelada:           {DimensionMass, decimal.New(1, 6), "t"},
	Microlitro:         {DimensionVolume, decimal.New(1, -6), "µl"},
	Mililitro:          {DimensionVolume, decimal.New(1, -3), "ml"},
	CentimetroCubico:   {DimensionVolume, decimal.New(1, -3), "cc"},
	Litro:              {DimensionVolume, decimal.New(1, 0), "l"},
	MetroCubico:        {DimensionVolume, decimal.New(1, 3), "m3"},
	Milimetro:          {DimensionLength, decimal.New(1, -3), "mm"},
	Centimetro:         {DimensionLength, decimal.New(1, -2), "cm"},
	Metro:              {DimensionLength, decimal.New(1, 0), "m"},
	CentimetroCuadrado: {DimensionArea, decimal.New(1, -4), "cm2"},
	MetroCuadrado:      {DimensionArea, decimal.New(1, 0), "m2"},
	Unidad:             {DimensionCount, decimal.New(1, 0), "u"},
}

// chains: escalera de unidades por dimensión, de menor a mayor factor, usada para la
// unidad sugerida de visualización. CENTIMETRO_CUBICO no figura: comparte factor con
// MILILITRO y se ubica por factor.
var chains = map[Dimension][]Unit{
	DimensionMass:   {Microgramo, Miligramo, Gramo, Kilogramo, Tonelada},
	DimensionVolume: {Microlitro, Mililitro, Litro, MetroCubico},
	DimensionLength: {Milimetro, Centimetro, Metro},
	DimensionArea:   {CentimetroCuadrado, MetroCuadrado},
	DimensionCount:  {Unidad},
}

// Valid indica si el código pertenece a la enumeración.
func (u Unit) Valid() bool {
	_, ok := definitions[u]
	return ok
}

// Dimension devuelve la dimensión física de la unidad ("" si no es válida).
func (u Unit) Dimension() Dimension { return definitions[u].dimension }

// Factor devuelve el factor respecto de la unidad base de su dimensión.
func (u Unit) Factor() decimal.Decimal { return definitions[u].factor }

// Symbol devuelve la abreviatura para mostrar.
func (u Unit) Symbol() string { return definitions[u].symbol }

// IsCount indica si la unidad cuenta piezas (habilita trazas individuales).
func (u Unit) IsCount() bool { return u.Dimension() == DimensionCount }

func (u Unit) String() string { return string(u) }

// Compatible indica si dos unidades comparten dimensión.
func Compatible(a, b Unit) bool {
	return a.Valid() && b.Valid() && a.Dimension() == b.Dimension()
}

// All devuelve todas las unidades conocidas ordenadas por dimensión y factor.
func All() []Unit {
	out := make([]Unit, 0, len(definitions))
	for _, d := range []Dimension{DimensionMass, DimensionVolume, DimensionLength, DimensionArea, DimensionCount} {
		out = append(out, chains[d]...)
		if d == DimensionVolume {
			out = append(out, CentimetroCubico)
		}
	}
	return out
}

// Parse acepta el código (KILOGRAMO) o el símbolo (kg).
func Parse(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if u := Unit(strings.ToUpper(s)); u.Valid() {
		return u, nil
	}
	for u, d := range definitions {
		if strings.EqualFold(d.symbol, s) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: unidad desconocida %q", domain.ErrInvalidInput, s)
}
