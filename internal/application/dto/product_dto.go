package dto

import "time"

// CreateProductRequest entrada para dar de alta un producto del catálogo.
type CreateProductRequest struct {
	Code   string `json:"codigo" validate:"required,min=1,max=50"`
	Name   string `json:"nombre" validate:"required,min=1,max=200"`
	Unit   string `json:"unidad" validate:"required"`
	Active *bool  `json:"activo"`
}

// UpdateProductRequest entrada para actualizar un producto (el código no cambia).
type UpdateProductRequest struct {
	Name   *string `json:"nombre" validate:"omitempty,min=1,max=200"`
	Unit   *string `json:"unidad"`
	Active *bool   `json:"activo"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"codigo"`
	Name      string    `json:"nombre"`
	Unit      string    `json:"unidad"`
	Active    bool      `json:"activo"`
	CreatedAt time.Time `json:"creadoEn"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
