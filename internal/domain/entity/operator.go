package entity

import "time"

// Estados de un operador.
const (
	OperatorStatusActive   = "active"
	OperatorStatusInactive = "inactive"
)

// Operator es la persona que registra movimientos (autor) o los revierte.
type Operator struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         Role
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
