package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"pedidos-taller/internal/authz"
	"pedidos-taller/internal/dto"
	"pedidos-taller/internal/model"
	"pedidos-taller/internal/repository"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interfaces que debe implementar repository
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByDelivery(ctx context.Context, delivery string) (*model.Order, error)
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ExistsByDelivery(ctx context.Context, delivery string) (bool, error)
	ApplyTransition(ctx context.Context, id primitive.ObjectID, upd repository.TransitionUpdate) (*model.Order, error)
	Search(ctx context.Context, f repository.ListFilter) ([]*model.Order, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]model.Usuario, error)
	Deactivate(ctx context.Context, id string) error
	NamesByID(ctx context.Context, ids []string) (map[string]string, error)
}

// EventPublisher emite eventos de dominio. Es fuego y olvido: los errores
// se registran y nunca llegan al llamador.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *model.Order) error
	OrderUpdated(ctx context.Context, o *model.Order, prevEstado, prevPrioridad string) error
	OrderDeleted(ctx context.Context, delivery string) error
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrForbidden         = errors.New("no autorizado para esta operación")
	ErrMissingFields     = errors.New("faltan datos requeridos")
	ErrTipoInvalido      = errors.New("tipo de pedido inválido")
	ErrPrioridadInvalida = errors.New("prioridad inválida")
	ErrDeliveryExists    = errors.New("el delivery ya existe")
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

type OrderService struct {
	repo   OrderRepository
	users  UserRepository
	events EventPublisher
}

func NewOrderService(repo OrderRepository, users UserRepository, events EventPublisher) *OrderService {
	return &OrderService{repo: repo, users: users, events: events}
}

// Create valida, calcula la cantidad total y persiste la orden en estado
// creado con historial vacío. El índice único del store es la garantía
// contra deliveries duplicados; la consulta previa solo anticipa el 409.
func (s *OrderService) Create(ctx context.Context, actor authz.Actor, req dto.CreateOrderRequest) (*model.Order, error) {
	if !authz.Allowed(actor.Rol, false, authz.ActionCreate) {
		return nil, ErrForbidden
	}

	delivery := model.NormalizeDelivery(req.Delivery)
	if delivery == "" || req.TipoPedido == "" || req.Qty < 1 || req.Medidas == nil || req.PesoKg <= 0 {
		return nil, ErrMissingFields
	}
	if !model.TipoPedidoValido(req.TipoPedido) {
		return nil, ErrTipoInvalido
	}

	prioridad := strings.ToLower(strings.TrimSpace(req.Prioridad))
	if prioridad == "" {
		prioridad = model.PrioridadNormal
	}
	if !model.PrioridadValida(prioridad) {
		return nil, ErrPrioridadInvalida
	}

	cajones := parseSubItems(req.Cajones)
	pallets := parseSubItems(req.Pallets)

	totalQty := req.Qty
	for _, c := range cajones {
		totalQty += c.Qty
	}
	for _, p := range pallets {
		totalQty += p.Qty
	}

	if exists, err := s.repo.ExistsByDelivery(ctx, delivery); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDeliveryExists
	}

	order := &model.Order{
		Qty:            totalQty,
		TipoPedido:     req.TipoPedido,
		Delivery:       delivery,
		ItemProducto:   req.ItemProducto,
		Medidas:        model.Medidas{Largo: req.Medidas.Largo, Ancho: req.Medidas.Ancho, Alto: req.Medidas.Alto},
		Cajones:        cajones,
		Pallets:        pallets,
		PesoKg:         req.PesoKg,
		Prioridad:      prioridad,
		Estado:         model.EstadoCreado,
		Comentarios:    req.Comentarios,
		UsuarioCreador: actor.ID,
		Historial:      []model.HistorialEntry{},
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateDelivery) {
			return nil, ErrDeliveryExists
		}
		return nil, err
	}

	s.publish(func() error { return s.events.OrderCreated(ctx, order) })
	log.Info().Str("delivery", order.Delivery).Str("usuario", actor.ID).Msg("orden creada")
	return order, nil
}

// UpdateByDelivery aplica una transición buscando la orden por su clave
// externa de delivery.
func (s *OrderService) UpdateByDelivery(ctx context.Context, actor authz.Actor, delivery string, req dto.UpdateOrderRequest) (*model.Order, error) {
	if err := s.canAttemptUpdate(actor, req); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByDelivery(ctx, model.NormalizeDelivery(delivery))
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, actor, order, req)
}

// UpdateByID aplica la misma transición buscando por el id interno del
// documento; lo usan los clientes que guardan el recordId.
func (s *OrderService) UpdateByID(ctx context.Context, actor authz.Actor, id string, req dto.UpdateOrderRequest) (*model.Order, error) {
	if err := s.canAttemptUpdate(actor, req); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, actor, order, req)
}

// canAttemptUpdate evalúa el mejor caso posible (actor dueño) antes de
// cargar la orden: si ni así alcanza el permiso, se rechaza sin revelar
// si el objetivo existe.
func (s *OrderService) canAttemptUpdate(actor authz.Actor, req dto.UpdateOrderRequest) error {
	if req.Status != "" && !authz.Allowed(actor.Rol, true, authz.ActionEditStatus) {
		return ErrForbidden
	}
	if req.Priority != "" && !authz.Allowed(actor.Rol, true, authz.ActionEditPriority) {
		return ErrForbidden
	}
	return nil
}

func (s *OrderService) applyTransition(ctx context.Context, actor authz.Actor, order *model.Order, req dto.UpdateOrderRequest) (*model.Order, error) {
	isOwner := order.UsuarioCreador == actor.ID
	if req.Status != "" && !authz.Allowed(actor.Rol, isOwner, authz.ActionEditStatus) {
		return nil, ErrForbidden
	}
	if req.Priority != "" && !authz.Allowed(actor.Rol, isOwner, authz.ActionEditPriority) {
		return nil, ErrForbidden
	}
	if actor.Rol == authz.RolOperador && !isOwner {
		return nil, ErrForbidden
	}

	prevEstado := order.Estado
	prevPrioridad := order.Prioridad

	upd := repository.TransitionUpdate{}
	estado := prevEstado
	if req.Status != "" {
		// Un estado no reconocido se ignora, no es un error.
		if canon := model.ToDBEstado(req.Status); canon != "" {
			estado = canon
		}
	}
	prioridad := prevPrioridad
	if req.Priority != "" {
		if p := strings.ToLower(strings.TrimSpace(req.Priority)); model.PrioridadValida(p) {
			prioridad = p
		}
	}

	estadoChanged := estado != prevEstado
	prioridadChanged := prioridad != prevPrioridad
	if !estadoChanged && !prioridadChanged {
		return order, nil
	}

	now := time.Now().UTC()
	if estadoChanged {
		upd.Estado = &estado
	}
	if prioridadChanged {
		upd.Prioridad = &prioridad
	}

	// El sello de finalización se escribe una sola vez: entradas repetidas
	// a un estado terminal no lo pisan.
	if estadoChanged && model.EsTerminal(estado) && order.FechaTerminado == nil {
		upd.FechaTerminado = &now
		terminadoPor := actor.ID
		upd.TerminadoPor = &terminadoPor
	}

	upd.Entry = &model.HistorialEntry{
		EstadoAnterior: prevEstado,
		EstadoNuevo:    estado,
		Usuario:        actor.ID,
		Comentario:     req.Comentario,
		Fecha:          now,
	}

	updated, err := s.repo.ApplyTransition(ctx, order.ID, upd)
	if err != nil {
		return nil, err
	}

	s.publish(func() error { return s.events.OrderUpdated(ctx, updated, prevEstado, prevPrioridad) })
	log.Info().
		Str("delivery", updated.Delivery).
		Str("estado", updated.Estado).
		Str("usuario", actor.ID).
		Msg("orden actualizada")
	return updated, nil
}

// Delete elimina la orden sin condiciones de estado: solo la frena la
// matriz de permisos.
func (s *OrderService) Delete(ctx context.Context, actor authz.Actor, delivery string) error {
	if !authz.Allowed(actor.Rol, true, authz.ActionDelete) {
		return ErrForbidden
	}

	order, err := s.repo.FindByDelivery(ctx, model.NormalizeDelivery(delivery))
	if err != nil {
		return err
	}
	if !authz.Allowed(actor.Rol, order.UsuarioCreador == actor.ID, authz.ActionDelete) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, order.ID); err != nil {
		return err
	}

	s.publish(func() error { return s.events.OrderDeleted(ctx, order.Delivery) })
	log.Info().Str("delivery", order.Delivery).Str("usuario", actor.ID).Msg("orden eliminada")
	return nil
}

// List devuelve la página pedida con los filtros canonicalizados y el
// alcance forzado a las órdenes propias para quien no puede listar todas.
func (s *OrderService) List(ctx context.Context, actor authz.Actor, q dto.ListQuery) ([]dto.OrderDTO, dto.Meta, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := s.listFilter(actor, q)
	filter.Skip = int64(page-1) * int64(limit)
	filter.Limit = int64(limit)

	orders, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, dto.Meta{}, err
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	if totalPages < 1 {
		totalPages = 1
	}
	meta := dto.Meta{Total: total, TotalPages: totalPages, Page: page, Limit: limit}

	dtos, err := s.toOrderDTOs(ctx, orders)
	if err != nil {
		return nil, dto.Meta{}, err
	}
	return dtos, meta, nil
}

// Export serializa todas las órdenes que pasan el filtro, sin paginar.
func (s *OrderService) Export(ctx context.Context, actor authz.Actor, q dto.ListQuery) (string, []byte, error) {
	if !authz.Allowed(actor.Rol, false, authz.ActionExportAll) {
		return "", nil, ErrForbidden
	}

	orders, _, err := s.repo.Search(ctx, s.listFilter(actor, q))
	if err != nil {
		return "", nil, err
	}

	names, err := s.creatorNames(ctx, orders)
	if err != nil {
		return "", nil, err
	}

	log.Info().Int("ordenes", len(orders)).Str("usuario", actor.ID).Msg("exportación CSV")
	return ExportFilename(time.Now()), BuildCSV(orders, names), nil
}

// CheckDelivery responde solo existencia, nunca contenido.
func (s *OrderService) CheckDelivery(ctx context.Context, delivery string) (bool, error) {
	return s.repo.ExistsByDelivery(ctx, model.NormalizeDelivery(delivery))
}

func (s *OrderService) listFilter(actor authz.Actor, q dto.ListQuery) repository.ListFilter {
	filter := repository.ListFilter{}
	if q.Status != "" {
		filter.Estado = model.ToDBEstado(q.Status)
	}
	if q.Priority != "" {
		filter.Prioridad = strings.ToLower(strings.TrimSpace(q.Priority))
	}
	if q.Q != "" {
		filter.DeliveryQ = model.NormalizeDelivery(q.Q)
	}
	if !authz.Allowed(actor.Rol, false, authz.ActionListAll) {
		filter.UsuarioCreador = actor.ID
	}
	return filter
}

func (s *OrderService) toOrderDTOs(ctx context.Context, orders []*model.Order) ([]dto.OrderDTO, error) {
	names, err := s.creatorNames(ctx, orders)
	if err != nil {
		return nil, err
	}

	out := make([]dto.OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o, names))
	}
	return out, nil
}

func (s *OrderService) creatorNames(ctx context.Context, orders []*model.Order) (map[string]string, error) {
	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UsuarioCreador]; !ok && o.UsuarioCreador != "" {
			seen[o.UsuarioCreador] = struct{}{}
			ids = append(ids, o.UsuarioCreador)
		}
	}
	return s.users.NamesByID(ctx, ids)
}

func toOrderDTO(o *model.Order, names map[string]string) dto.OrderDTO {
	requester := names[o.UsuarioCreador]
	if requester == "" {
		requester = "Operador"
	}
	return dto.OrderDTO{
		ID:         "#" + model.NormalizeDelivery(o.Delivery),
		RecordID:   o.ID.Hex(),
		Type:       model.TipoLabel(o.TipoPedido),
		Qty:        o.Qty,
		Dims:       PresentDimensions(o),
		PesoKg:     o.PesoKg,
		Weight:     strconv.FormatFloat(o.PesoKg, 'f', -1, 64) + " kg",
		Requester:  requester,
		Priority:   model.PrioridadLabel(o.Prioridad),
		Status:     model.EstadoLabel(o.Estado),
		CreatedAt:  o.CreatedAt,
		FinishedAt: o.FechaTerminado,
	}
}

// parseSubItems descarta entradas con medidas o cantidades no positivas.
// Una cantidad ausente cuenta como 1.
func parseSubItems(items []dto.SubItemDTO) []model.SubItem {
	out := make([]model.SubItem, 0, len(items))
	for _, it := range items {
		qty := it.Qty
		if qty == 0 {
			qty = 1
		}
		if qty < 0 || it.Medidas.Largo <= 0 || it.Medidas.Ancho <= 0 || it.Medidas.Alto <= 0 {
			continue
		}
		out = append(out, model.SubItem{
			Qty:     qty,
			PesoKg:  it.PesoKg,
			Medidas: model.Medidas{Largo: it.Medidas.Largo, Ancho: it.Medidas.Ancho, Alto: it.Medidas.Alto},
		})
	}
	return out
}

func (s *OrderService) publish(fn func() error) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		log.Warn().Err(err).Msg("no se pudo publicar el evento")
	}
}
