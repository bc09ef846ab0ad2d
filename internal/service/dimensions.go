package service

import (
	"strconv"
	"strings"

	"pedidos-taller/internal/model"
)

// PresentDimensions arma la cadena de medidas de una orden a partir de sus
// medidas base y sus sub-ítems. Es una función pura: nunca se persiste, se
// recalcula igual para listados y exportación.
//
// pallet/cajon:  base y sub-ítems unidos con " • "
// estructura:    "Pallet: <base • pallets> | Cajón(es): <cajones>"
func PresentDimensions(o *model.Order) string {
	base := formatTriple(o.Medidas)
	cajones := formatSubItems(o.Cajones)
	pallets := formatSubItems(o.Pallets)

	switch o.TipoPedido {
	case model.TipoEstructura:
		var segments []string
		if palletParts := joinNonEmpty(base, pallets); palletParts != "" {
			segments = append(segments, "Pallet: "+palletParts)
		}
		if len(cajones) > 0 {
			segments = append(segments, "Cajón(es): "+strings.Join(cajones, " • "))
		}
		return strings.Join(segments, " | ")
	case model.TipoCajon:
		if len(cajones) > 0 {
			return joinNonEmpty(base, cajones)
		}
	case model.TipoPallet:
		if len(pallets) > 0 {
			return joinNonEmpty(base, pallets)
		}
	}
	return base
}

// formatTriple devuelve "largoxanchoxalto". Las partes en cero quedan
// vacías y se recorta la x que pueda sobrar en las puntas; si las tres
// partes están vacías devuelve cadena vacía.
func formatTriple(m model.Medidas) string {
	s := fmtDim(m.Largo) + "x" + fmtDim(m.Ancho) + "x" + fmtDim(m.Alto)
	s = strings.TrimPrefix(s, "x")
	s = strings.TrimSuffix(s, "x")
	if s == "x" {
		return ""
	}
	return s
}

// formatSubItems descarta los sub-ítems cuyo triple quedó vacío.
func formatSubItems(items []model.SubItem) []string {
	var out []string
	for _, it := range items {
		if s := formatSubItem(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatSubItem(it model.SubItem) string {
	d := formatTriple(it.Medidas)
	if d == "" {
		return ""
	}
	if it.Qty > 1 {
		d += " x" + strconv.Itoa(it.Qty)
	}
	if it.PesoKg != nil {
		d += " (" + fmtDim(*it.PesoKg) + "kg)"
	}
	return d
}

func joinNonEmpty(base string, rest []string) string {
	parts := make([]string, 0, len(rest)+1)
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, rest...)
	return strings.Join(parts, " • ")
}

func fmtDim(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
