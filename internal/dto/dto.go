// dto.go
package dto

import "time"

type MedidasDTO struct {
	Largo float64 `json:"largo"`
	Ancho float64 `json:"ancho"`
	Alto  float64 `json:"alto"`
}

type SubItemDTO struct {
	Qty     int        `json:"qty"`
	PesoKg  *float64   `json:"pesoKg"`
	Medidas MedidasDTO `json:"medidas"`
}

// CreateOrderRequest: los campos requeridos se validan en el servicio para
// responder con el mensaje de validación uniforme.
type CreateOrderRequest struct {
	Delivery     string       `json:"delivery"`
	TipoPedido   string       `json:"tipoPedido"`
	Qty          int          `json:"qty"`
	Medidas      *MedidasDTO  `json:"medidas"`
	PesoKg       float64      `json:"pesoKg"`
	ItemProducto string       `json:"itemProducto"`
	Cajones      []SubItemDTO `json:"cajones"`
	Pallets      []SubItemDTO `json:"pallets"`
	Prioridad    string       `json:"prioridad"`
	Comentarios  string       `json:"comentarios"`
}

type UpdateOrderRequest struct {
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Comentario string `json:"comentario"`
}

// ListQuery son los parámetros de listado y exportación.
type ListQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Q        string `form:"q"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type Meta struct {
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// OrderDTO es la vista de una orden para la UI: etiquetas legibles y las
// medidas compuestas ya presentadas.
type OrderDTO struct {
	ID         string     `json:"id"`
	RecordID   string     `json:"recordId"`
	Type       string     `json:"type"`
	Qty        int        `json:"qty"`
	Dims       string     `json:"dims"`
	PesoKg     float64    `json:"pesoKg"`
	Weight     string     `json:"weight,omitempty"`
	Requester  string     `json:"requester"`
	Priority   string     `json:"priority"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type UsuarioDTO struct {
	ID     string `json:"_id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol"`
	Active bool   `json:"active"`
}
