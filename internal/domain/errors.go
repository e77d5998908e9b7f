package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrUserNotFound    = errors.New("usuario no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrOperatorMissing = errors.New("operador no presente en el contexto")
)

// ErrIntegrity agrupa las rupturas de invariantes del libro de movimientos.
// No son errores de validación: el caller no puede corregirlos reenviando el formulario.
var ErrIntegrity = errors.New("violación de integridad")

var (
	ErrNegativeBalance = fmt.Errorf("%w: saldo negativo en bulto", ErrIntegrity)
	ErrTraceMismatch   = fmt.Errorf("%w: trazas inconsistentes con la cantidad del lote", ErrIntegrity)
)

// IncompatibleUnitsError se produce al convertir entre unidades de distinta dimensión.
type IncompatibleUnitsError struct {
	From string
	To   string
}

func (e *IncompatibleUnitsError) Error() string {
	return fmt.Sprintf("unidades incompatibles: %s -> %s", e.From, e.To)
}

func (e *IncompatibleUnitsError) Unwrap() error { return ErrIntegrity }

// MultipleInProgressAnalysisError indica más de un análisis en curso para un lote.
type MultipleInProgressAnalysisError struct {
	LotID   string
	Numbers []string
}

func (e *MultipleInProgressAnalysisError) Error() string {
	return fmt.Sprintf("lote %s: %d análisis en curso %v", e.LotID, len(e.Numbers), e.Numbers)
}

func (e *MultipleInProgressAnalysisError) Unwrap() error { return ErrIntegrity }

// MovementNotFoundError indica que el movimiento referido no existe.
type MovementNotFoundError struct {
	Ref string
}

func (e *MovementNotFoundError) Error() string {
	return fmt.Sprintf("movimiento no encontrado: %s", e.Ref)
}

func (e *MovementNotFoundError) Unwrap() error { return ErrIntegrity }
