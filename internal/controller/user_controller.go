package controller

import (
	"net/http"

	"pedidos-taller/internal/middleware"
	"pedidos-taller/internal/service"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Service *service.UserService
}

func NewUserController(s *service.UserService) *UserController {
	return &UserController{Service: s}
}

// GET /api/users — admin
func (ctl *UserController) List(c *gin.Context) {
	users, err := ctl.Service.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": users})
}

// DELETE /api/users/:id — baja blanda, admin
func (ctl *UserController) Deactivate(c *gin.Context) {
	if err := ctl.Service.Deactivate(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Usuario desactivado correctamente"})
}
