// Package authz decide qué puede hacer cada rol sobre las órdenes y los
// usuarios. La matriz se evalúa en cada llamada, nunca se cachea por sesión.
package authz

type Rol string

const (
	RolAdmin      Rol = "admin"
	RolOperador   Rol = "operador"
	RolCarpintero Rol = "carpintero"
)

// Actor es el usuario autenticado que origina la petición.
type Actor struct {
	ID     string
	Nombre string
	Rol    Rol
}

type Action int

const (
	ActionCreate Action = iota
	ActionListAll
	ActionListOwn
	ActionEditStatus
	ActionEditPriority
	ActionDelete
	ActionExportAll
	ActionManageUsers
)

// Allowed implementa la matriz de permisos. isOwner indica si el actor creó
// la orden objetivo y solo pesa para el rol operador.
func Allowed(rol Rol, isOwner bool, action Action) bool {
	switch rol {
	case RolAdmin:
		return true
	case RolOperador:
		switch action {
		case ActionCreate, ActionListOwn:
			return true
		case ActionEditPriority, ActionDelete:
			return isOwner
		default:
			return false
		}
	case RolCarpintero:
		switch action {
		case ActionListAll, ActionListOwn, ActionEditStatus, ActionEditPriority:
			return true
		default:
			return false
		}
	}
	return false
}
