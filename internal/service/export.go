package service

import (
	"strconv"
	"strings"
	"time"

	"pedidos-taller/internal/model"
)

var exportHeader = []string{
	"Delivery",
	"Tipo",
	"Cantidad",
	"Peso (kg)",
	"Medidas (cm)",
	"Solicitante",
	"Prioridad",
	"Estado",
	"Fecha Creación",
	"Fecha Terminado",
	"Item Producto",
	"Comentarios",
}

// BuildCSV serializa las órdenes como CSV UTF-8 con BOM y fin de línea CRLF.
// names mapea id de usuario creador a nombre para la columna Solicitante.
func BuildCSV(orders []*model.Order, names map[string]string) []byte {
	var b strings.Builder
	b.WriteString("\ufeff")
	b.WriteString(strings.Join(exportHeader, ","))

	for _, o := range orders {
		finishedAt := ""
		if o.FechaTerminado != nil {
			finishedAt = o.FechaTerminado.UTC().Format(time.RFC3339)
		}

		row := []string{
			model.NormalizeDelivery(o.Delivery),
			model.TipoLabel(o.TipoPedido),
			strconv.Itoa(o.Qty),
			strconv.FormatFloat(o.PesoKg, 'f', -1, 64),
			PresentDimensions(o),
			names[o.UsuarioCreador],
			model.PrioridadLabel(o.Prioridad),
			model.EstadoLabel(o.Estado),
			o.CreatedAt.UTC().Format(time.RFC3339),
			finishedAt,
			o.ItemProducto,
			o.Comentarios,
		}

		b.WriteString("\r\n")
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvEscape(field))
		}
	}
	return []byte(b.String())
}

// ExportFilename arma el nombre sugerido en el Content-Disposition.
func ExportFilename(now time.Time) string {
	return "ordenes-" + now.Format("2006-01-02-1504") + ".csv"
}

// csvEscape encierra el campo entre comillas dobles, duplicando las
// internas, solo si contiene coma, comilla o salto de línea.
func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
