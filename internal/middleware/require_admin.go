// require_admin.go
package middleware

import (
	"net/http"

	"pedidos-taller/internal/authz"

	"github.com/gin-gonic/gin"
)

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c).Rol != authz.RolAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Prohibido"})
			return
		}
		c.Next()
	}
}
