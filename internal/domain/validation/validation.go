// Package validation implementa las cadenas de chequeos que habilitan cada operación.
//
// Una cadena es una lista ordenada de pasos. Cada paso devuelve los errores de campo
// que detectó; el primer paso que devuelve errores corta la cadena, así el mensaje de
// un chequeo posterior nunca aparece junto al de uno anterior. Un paso también puede
// devolver un error de integridad, que aborta la operación.
package validation

import (
	"context"
	"strings"
)

// Códigos de error de campo.
const (
	CodeRequired     = "REQUERIDO"
	CodeInvalid      = "INVALIDO"
	CodeOutOfRange   = "FUERA_DE_RANGO"
	CodeDate         = "FECHA_INVALIDA"
	CodeConservation = "CONSERVACION"
	CodeInsufficient = "CANTIDAD_INSUFICIENTE"
	CodeState        = "ESTADO_INVALIDO"
	CodeNotFound     = "NO_ENCONTRADO"
	CodeDuplicate    = "DUPLICADO"
	CodeIncompatible = "UNIDAD_INCOMPATIBLE"
	CodeForbidden    = "NO_AUTORIZADO"
)

// FieldError es un error de validación asociado a un campo del formulario.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors acumula errores de campo. Vacío significa éxito.
type Errors []FieldError

// Fail construye un resultado con un único error.
func Fail(field, code, message string) Errors {
	return Errors{{Field: field, Code: code, Message: message}}
}

// HasErrors indica si hubo algún error.
func (e Errors) HasErrors() bool { return len(e) > 0 }

// Fields devuelve los campos con error, en orden.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

// Has indica si field tiene algún error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Step es un paso de la cadena sobre el estado S de la operación. Los pasos que
// resuelven entidades (lote, bulto, análisis) las dejan en S para los siguientes.
type Step[S any] func(ctx context.Context, s S) (Errors, error)

// Check adapta un predicado sin efectos a Step.
func Check[S any](fn func(s S) Errors) Step[S] {
	return func(_ context.Context, s S) (Errors, error) { return fn(s), nil }
}

// Chain ejecuta los pasos en orden y se detiene en el primero que falla.
func Chain[S any](ctx context.Context, s S, steps ...Step[S]) (Errors, error) {
	for _, step := range steps {
		errs, err := step(ctx, s)
		if err != nil {
			return nil, err
		}
		if errs.HasErrors() {
			return errs, nil
		}
	}
	return nil, nil
}
