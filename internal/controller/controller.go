package controller

import (
	"errors"
	"net/http"

	"pedidos-taller/internal/dto"
	"pedidos-taller/internal/middleware"
	"pedidos-taller/internal/repository"
	"pedidos-taller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// GET /api — No requiere token
func (ctl *OrderController) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "API de Gestión de Pedidos - Carpintería Industrial",
		"mode":    "MongoDB",
	})
}

// POST /api/orders
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Faltan datos requeridos"})
		return
	}

	order, err := ctl.Service.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

// GET /api/orders
func (ctl *OrderController) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Parámetros inválidos"})
		return
	}

	orders, meta, err := ctl.Service.List(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders, "meta": meta})
}

// GET /api/orders/export — admin
func (ctl *OrderController) Export(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Parámetros inválidos"})
		return
	}

	filename, csv, err := ctl.Service.Export(c.Request.Context(), middleware.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", csv)
}

// GET /api/orders/check/:delivery — solo existencia, nunca contenido
func (ctl *OrderController) Check(c *gin.Context) {
	exists, err := ctl.Service.CheckDelivery(c.Request.Context(), c.Param("delivery"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exists": exists})
}

// PUT /api/orders/:id — :id es la clave de delivery
func (ctl *OrderController) UpdateByDelivery(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cuerpo inválido"})
		return
	}

	order, err := ctl.Service.UpdateByDelivery(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// PUT /api/orders/record/:id — :id es el id interno del documento
func (ctl *OrderController) UpdateByRecord(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cuerpo inválido"})
		return
	}

	order, err := ctl.Service.UpdateByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// DELETE /api/orders/:id — borrado duro por clave de delivery
func (ctl *OrderController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Orden eliminada correctamente"})
}

// respondError traduce la taxonomía de errores a códigos HTTP. Los rechazos
// de permisos usan siempre el mismo mensaje sin detalle.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Prohibido"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Orden no encontrada"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Usuario no encontrado"})
	case errors.Is(err, service.ErrDeliveryExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "El delivery ya existe"})
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrTipoInvalido),
		errors.Is(err, service.ErrPrioridadInvalida):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("error inesperado")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error interno"})
	}
}
