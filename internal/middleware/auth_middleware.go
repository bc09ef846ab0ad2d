// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"pedidos-taller/internal/authz"
	"pedidos-taller/internal/service"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Auth valida el token contra el servicio de identidad y deja el actor
// tipado en el contexto. La respuesta de rechazo es siempre la misma.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No autorizado"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		user, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No autorizado"})
			return
		}

		c.Set(actorKey, authz.Actor{ID: user.ID, Nombre: user.Nombre, Rol: authz.Rol(user.Rol)})
		c.Next()
	}
}

// ActorFrom recupera el actor guardado por Auth.
func ActorFrom(c *gin.Context) authz.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(authz.Actor); ok {
			return a
		}
	}
	return authz.Actor{}
}

// SetActor existe para las pruebas: inyecta un actor sin pasar por el
// servicio de identidad.
func SetActor(actor authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, actor)
		c.Next()
	}
}
