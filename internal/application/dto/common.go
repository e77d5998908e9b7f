package dto

// Límites de paginación de los listados de lotes, movimientos y productos.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage normaliza la página: Limit en [1, MaxPageLimit] (DefaultPageLimit si falta)
// y Offset no negativo.
func (p *PageRequest) DefaultPage() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Code es NOT_FOUND, INTEGRITY, CONFLICT, etc.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
