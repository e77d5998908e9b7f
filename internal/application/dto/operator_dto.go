package dto

import "time"

// RegisterOperatorRequest entrada para dar de alta un operador (password en texto, se hashea en use case).
type RegisterOperatorRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=200"`
	Role     string `json:"role" validate:"required"`
}

// OperatorResponse salida de un operador (sin password).
type OperatorResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token    string           `json:"token"`
	Operator OperatorResponse `json:"operator"`
}
