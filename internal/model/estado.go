package model

import "strings"

// Estados del ciclo de vida. Se mantiene entregado distinto de terminado;
// ambos son terminales: al entrar en cualquiera de los dos se sella la
// fecha de finalización.
const (
	EstadoCreado    = "creado"
	EstadoAprobado  = "aprobado"
	EstadoEnProceso = "en_proceso"
	EstadoTerminado = "terminado"
	EstadoEntregado = "entregado"
)

const (
	PrioridadUrgente = "urgente"
	PrioridadNormal  = "normal"
)

const (
	TipoPallet     = "pallet"
	TipoCajon      = "cajon"
	TipoEstructura = "estructura"
)

// ToDBEstado normaliza un estado pedido por el cliente: minúsculas, sin
// espacios sobrantes, "en proceso" como sinónimo de en_proceso. Un valor
// no reconocido devuelve cadena vacía y el llamador lo ignora.
func ToDBEstado(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "creado":
		return EstadoCreado
	case "aprobado":
		return EstadoAprobado
	case "en proceso", "en_proceso":
		return EstadoEnProceso
	case "terminado":
		return EstadoTerminado
	case "entregado":
		return EstadoEntregado
	default:
		return ""
	}
}

func EsTerminal(estado string) bool {
	return estado == EstadoTerminado || estado == EstadoEntregado
}

func TipoPedidoValido(tipo string) bool {
	return tipo == TipoPallet || tipo == TipoCajon || tipo == TipoEstructura
}

func PrioridadValida(prioridad string) bool {
	return prioridad == PrioridadUrgente || prioridad == PrioridadNormal
}

// Etiquetas legibles para listados y exportación.

func EstadoLabel(estado string) string {
	switch estado {
	case EstadoAprobado:
		return "Aprobado"
	case EstadoEnProceso:
		return "En Proceso"
	case EstadoTerminado:
		return "Terminado"
	case EstadoEntregado:
		return "Entregado"
	default:
		return "Creado"
	}
}

func TipoLabel(tipo string) string {
	switch tipo {
	case TipoCajon:
		return "Cajón"
	case TipoEstructura:
		return "Set Completo (Pallet + Cajón)"
	default:
		return "Pallet"
	}
}

func PrioridadLabel(prioridad string) string {
	if prioridad == PrioridadUrgente {
		return PrioridadUrgente
	}
	return PrioridadNormal
}
