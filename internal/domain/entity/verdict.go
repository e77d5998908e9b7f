package entity

// Verdict es el dictamen de calidad vigente de un lote.
type Verdict string

const (
	VerdictRecibido           Verdict = "RECIBIDO"
	VerdictCuarentena         Verdict = "CUARENTENA"
	VerdictAprobado           Verdict = "APROBADO"
	VerdictRechazado          Verdict = "RECHAZADO"
	VerdictVencido            Verdict = "VENCIDO"
	VerdictLiberado           Verdict = "LIBERADO"
	VerdictDevolucionClientes Verdict = "DEVOLUCION_CLIENTES"
	VerdictRetiroMercado      Verdict = "RETIRO_MERCADO"
)

// verdictTransitions: transiciones hacia adelante. Las reversas no pasan por esta tabla:
// restauran el dictamen inicial del movimiento revertido.
var verdictTransitions = map[Verdict][]Verdict{
	VerdictRecibido:           {VerdictCuarentena},
	VerdictCuarentena:         {VerdictAprobado, VerdictRechazado, VerdictVencido},
	VerdictAprobado:           {VerdictLiberado, VerdictCuarentena, VerdictVencido},
	VerdictLiberado:           {VerdictDevolucionClientes, VerdictRetiroMercado},
	VerdictDevolucionClientes: {VerdictCuarentena, VerdictRetiroMercado},
}

// Valid indica si el dictamen pertenece a la enumeración.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictRecibido, VerdictCuarentena, VerdictAprobado, VerdictRechazado,
		VerdictVencido, VerdictLiberado, VerdictDevolucionClientes, VerdictRetiroMercado:
		return true
	}
	return false
}

// CanTransitionTo indica si next es un dictamen alcanzable desde v.
func (v Verdict) CanTransitionTo(next Verdict) bool {
	for _, n := range verdictTransitions[v] {
		if n == next {
			return true
		}
	}
	return false
}

// IsTerminal: sin salidas hacia adelante; sólo una reversa los abandona.
func (v Verdict) IsTerminal() bool {
	return v.Valid() && len(verdictTransitions[v]) == 0
}
