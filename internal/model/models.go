// models.go
package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medidas son las dimensiones de un ítem en centímetros.
type Medidas struct {
	Largo float64 `bson:"largo" json:"largo"`
	Ancho float64 `bson:"ancho" json:"ancho"`
	Alto  float64 `bson:"alto" json:"alto"`
}

// SubItem es un cajón o pallet anidado dentro de la orden, con su propia
// cantidad, peso opcional y medidas.
type SubItem struct {
	Qty     int      `bson:"qty" json:"qty"`
	PesoKg  *float64 `bson:"pesoKg,omitempty" json:"pesoKg,omitempty"`
	Medidas Medidas  `bson:"medidas" json:"medidas"`
}

// HistorialEntry registra un cambio de estado o prioridad. Una vez agregada
// al historial nunca se edita ni se elimina.
type HistorialEntry struct {
	EstadoAnterior string    `bson:"estadoAnterior" json:"estadoAnterior"`
	EstadoNuevo    string    `bson:"estadoNuevo" json:"estadoNuevo"`
	Usuario        string    `bson:"usuario" json:"usuario"`
	Comentario     string    `bson:"comentario" json:"comentario"`
	Fecha          time.Time `bson:"fecha" json:"fecha"`
}

type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Qty            int                `bson:"qty" json:"qty"`
	TipoPedido     string             `bson:"tipoPedido" json:"tipoPedido"`
	Delivery       string             `bson:"delivery" json:"delivery"`
	ItemProducto   string             `bson:"itemProducto" json:"itemProducto"`
	Medidas        Medidas            `bson:"medidas" json:"medidas"`
	Cajones        []SubItem          `bson:"cajones" json:"cajones"`
	Pallets        []SubItem          `bson:"pallets" json:"pallets"`
	PesoKg         float64            `bson:"pesoKg" json:"pesoKg"`
	Prioridad      string             `bson:"prioridad" json:"prioridad"`
	Estado         string             `bson:"estado" json:"estado"`
	FechaTerminado *time.Time         `bson:"fechaTerminado,omitempty" json:"fechaTerminado,omitempty"`
	TerminadoPor   string             `bson:"terminadoPor,omitempty" json:"terminadoPor,omitempty"`
	Comentarios    string             `bson:"comentarios" json:"comentarios"`
	UsuarioCreador string             `bson:"usuarioCreador" json:"usuarioCreador"`
	Historial      []HistorialEntry   `bson:"historial" json:"historial"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Usuario se consume solo para lectura: el alta y las credenciales las maneja
// el servicio de identidad externo.
type Usuario struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Nombre    string             `bson:"nombre" json:"nombre"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Rol       string             `bson:"rol" json:"rol"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// NormalizeDelivery limpia la clave externa de una orden: la UI suele
// mandarla con un '#' adelante.
func NormalizeDelivery(delivery string) string {
	return strings.TrimPrefix(strings.TrimSpace(delivery), "#")
}
