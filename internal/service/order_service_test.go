package service

import (
	"context"
	"testing"
	"time"

	"pedidos-taller/internal/authz"
	"pedidos-taller/internal/dto"
	"pedidos-taller/internal/model"
	"pedidos-taller/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ── Stubs en memoria ──────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders     map[primitive.ObjectID]*model.Order
	lastFilter repository.ListFilter
	searchOut  []*model.Order
	searchTot  int64
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[primitive.ObjectID]*model.Order)}
}

func (r *stubOrderRepo) Insert(_ context.Context, o *model.Order) error {
	for _, existing := range r.orders {
		if existing.Delivery == o.Delivery {
			return repository.ErrDuplicateDelivery
		}
	}
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByDelivery(_ context.Context, delivery string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.Delivery == delivery {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	o, ok := r.orders[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) ExistsByDelivery(_ context.Context, delivery string) (bool, error) {
	for _, o := range r.orders {
		if o.Delivery == delivery {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) ApplyTransition(_ context.Context, id primitive.ObjectID, upd repository.TransitionUpdate) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Estado != nil {
		o.Estado = *upd.Estado
	}
	if upd.Prioridad != nil {
		o.Prioridad = *upd.Prioridad
	}
	if upd.FechaTerminado != nil {
		o.FechaTerminado = upd.FechaTerminado
	}
	if upd.TerminadoPor != nil {
		o.TerminadoPor = *upd.TerminadoPor
	}
	if upd.Entry != nil {
		o.Historial = append(o.Historial, *upd.Entry)
	}
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) Search(_ context.Context, f repository.ListFilter) ([]*model.Order, int64, error) {
	r.lastFilter = f
	return r.searchOut, r.searchTot, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

type stubUserRepo struct {
	names       map[string]string
	deactivated []string
}

func (r *stubUserRepo) FindAll(context.Context) ([]model.Usuario, error) { return nil, nil }

func (r *stubUserRepo) Deactivate(_ context.Context, id string) error {
	r.deactivated = append(r.deactivated, id)
	return nil
}

func (r *stubUserRepo) NamesByID(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if n, ok := r.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

var (
	admin      = authz.Actor{ID: primitive.NewObjectID().Hex(), Nombre: "Admin", Rol: authz.RolAdmin}
	operador   = authz.Actor{ID: primitive.NewObjectID().Hex(), Nombre: "Operador", Rol: authz.RolOperador}
	carpintero = authz.Actor{ID: primitive.NewObjectID().Hex(), Nombre: "Carpintero", Rol: authz.RolCarpintero}
)

func newService() (*OrderService, *stubOrderRepo) {
	repo := newStubOrderRepo()
	return NewOrderService(repo, &stubUserRepo{names: map[string]string{}}, nil), repo
}

func baseCreateRequest() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Delivery:   "4421",
		TipoPedido: model.TipoPallet,
		Qty:        2,
		Medidas:    &dto.MedidasDTO{Largo: 120, Ancho: 100, Alto: 15},
		PesoKg:     200,
	}
}

// ── Creación ──────────────────────────────────────────────────────────────────

func TestCreateSumaCantidadesDeSubItems(t *testing.T) {
	svc, _ := newService()

	req := baseCreateRequest()
	req.TipoPedido = model.TipoEstructura
	req.Cajones = []dto.SubItemDTO{
		{Qty: 2, Medidas: dto.MedidasDTO{Largo: 150, Ancho: 50, Alto: 80}},
		{Qty: 0, Medidas: dto.MedidasDTO{Largo: 40, Ancho: 40, Alto: 40}}, // qty ausente cuenta como 1
		{Qty: 1, Medidas: dto.MedidasDTO{Largo: -5, Ancho: 40, Alto: 40}}, // medida inválida, se descarta
	}
	req.Pallets = []dto.SubItemDTO{
		{Qty: 3, Medidas: dto.MedidasDTO{Largo: 120, Ancho: 100, Alto: 15}},
	}

	order, err := svc.Create(context.Background(), operador, req)
	require.NoError(t, err)

	assert.Equal(t, 2+2+1+3, order.Qty)
	assert.Len(t, order.Cajones, 2)
	assert.Len(t, order.Pallets, 1)
	assert.Equal(t, model.EstadoCreado, order.Estado)
	assert.Equal(t, model.PrioridadNormal, order.Prioridad)
	assert.Empty(t, order.Historial)
	assert.Equal(t, operador.ID, order.UsuarioCreador)
}

func TestCreateNormalizaDelivery(t *testing.T) {
	svc, _ := newService()

	req := baseCreateRequest()
	req.Delivery = "#4421"

	order, err := svc.Create(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "4421", order.Delivery)
}

func TestCreateCamposFaltantes(t *testing.T) {
	svc, _ := newService()

	for _, mutate := range []func(*dto.CreateOrderRequest){
		func(r *dto.CreateOrderRequest) { r.Delivery = "" },
		func(r *dto.CreateOrderRequest) { r.TipoPedido = "" },
		func(r *dto.CreateOrderRequest) { r.Qty = 0 },
		func(r *dto.CreateOrderRequest) { r.Medidas = nil },
		func(r *dto.CreateOrderRequest) { r.PesoKg = 0 },
	} {
		req := baseCreateRequest()
		mutate(&req)
		_, err := svc.Create(context.Background(), admin, req)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestCreateTipoYPrioridadInvalidos(t *testing.T) {
	svc, _ := newService()

	req := baseCreateRequest()
	req.TipoPedido = "contenedor"
	_, err := svc.Create(context.Background(), admin, req)
	assert.ErrorIs(t, err, ErrTipoInvalido)

	req = baseCreateRequest()
	req.Prioridad = "altísima"
	_, err = svc.Create(context.Background(), admin, req)
	assert.ErrorIs(t, err, ErrPrioridadInvalida)
}

func TestCreateDeliveryDuplicado(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), operador, baseCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin, baseCreateRequest())
	assert.ErrorIs(t, err, ErrDeliveryExists)
}

func TestCreateProhibidoParaCarpintero(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), carpintero, baseCreateRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

// ── Transiciones ──────────────────────────────────────────────────────────────

func createOrder(t *testing.T, svc *OrderService, actor authz.Actor) *model.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), actor, baseCreateRequest())
	require.NoError(t, err)
	return order
}

func TestUpdateCanonicalizaYAgregaHistorial(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	updated, err := svc.UpdateByDelivery(context.Background(), admin, "4421", dto.UpdateOrderRequest{Status: "En Proceso"})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoEnProceso, updated.Estado)
	require.Len(t, updated.Historial, 1)
	assert.Equal(t, model.EstadoCreado, updated.Historial[0].EstadoAnterior)
	assert.Equal(t, model.EstadoEnProceso, updated.Historial[0].EstadoNuevo)
	assert.Equal(t, admin.ID, updated.Historial[0].Usuario)
}

func TestUpdatePorIDInterno(t *testing.T) {
	svc, _ := newService()
	order := createOrder(t, svc, operador)

	updated, err := svc.UpdateByID(context.Background(), carpintero, order.ID.Hex(), dto.UpdateOrderRequest{Status: "aprobado"})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoAprobado, updated.Estado)
}

func TestUpdateEstadoDesconocidoSeIgnora(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	updated, err := svc.UpdateByDelivery(context.Background(), admin, "4421", dto.UpdateOrderRequest{Status: "fantasma"})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoCreado, updated.Estado)
	assert.Empty(t, updated.Historial)
}

func TestUpdateSinCambiosNoAgregaHistorial(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	updated, err := svc.UpdateByDelivery(context.Background(), admin, "4421", dto.UpdateOrderRequest{Status: "creado", Priority: "normal"})
	require.NoError(t, err)
	assert.Empty(t, updated.Historial)
}

func TestUpdateNoEncontrada(t *testing.T) {
	svc, _ := newService()

	_, err := svc.UpdateByDelivery(context.Background(), admin, "9999", dto.UpdateOrderRequest{Status: "aprobado"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOperadorSoloPrioridadSobreOrdenPropia(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	updated, err := svc.UpdateByDelivery(context.Background(), operador, "4421", dto.UpdateOrderRequest{Priority: "urgente"})
	require.NoError(t, err)
	assert.Equal(t, model.PrioridadUrgente, updated.Prioridad)
	require.Len(t, updated.Historial, 1)
	assert.Equal(t, model.EstadoCreado, updated.Historial[0].EstadoNuevo)
}

func TestOperadorNoPuedeTocarEstado(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	_, err := svc.UpdateByDelivery(context.Background(), operador, "4421", dto.UpdateOrderRequest{Status: "terminado"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOperadorNoPuedeTocarOrdenAjena(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, admin)

	otro := authz.Actor{ID: primitive.NewObjectID().Hex(), Rol: authz.RolOperador}
	_, err := svc.UpdateByDelivery(context.Background(), otro, "4421", dto.UpdateOrderRequest{Priority: "urgente"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSelloDeFinalizacionSeEscribeUnaVez(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	ctx := context.Background()
	updated, err := svc.UpdateByDelivery(ctx, admin, "4421", dto.UpdateOrderRequest{Status: "terminado"})
	require.NoError(t, err)
	require.NotNil(t, updated.FechaTerminado)
	assert.Equal(t, admin.ID, updated.TerminadoPor)

	sello := *updated.FechaTerminado

	// Una segunda entrada a estado terminal no pisa el sello.
	updated, err = svc.UpdateByDelivery(ctx, carpintero, "4421", dto.UpdateOrderRequest{Status: "entregado"})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoEntregado, updated.Estado)
	require.NotNil(t, updated.FechaTerminado)
	assert.Equal(t, sello, *updated.FechaTerminado)
	assert.Equal(t, admin.ID, updated.TerminadoPor)
	assert.Len(t, updated.Historial, 2)
}

// ── Borrado ───────────────────────────────────────────────────────────────────

func TestDeleteOperadorSoloPropias(t *testing.T) {
	svc, repo := newService()
	createOrder(t, svc, operador)

	otro := authz.Actor{ID: primitive.NewObjectID().Hex(), Rol: authz.RolOperador}
	err := svc.Delete(context.Background(), otro, "4421")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), operador, "4421"))
	assert.Empty(t, repo.orders)
}

func TestDeleteProhibidoParaCarpintero(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	err := svc.Delete(context.Background(), carpintero, "4421")
	assert.ErrorIs(t, err, ErrForbidden)
}

// ── Listado y exportación ─────────────────────────────────────────────────────

func TestListAcotaPaginacion(t *testing.T) {
	svc, repo := newService()

	_, meta, err := svc.List(context.Background(), admin, dto.ListQuery{Page: 0, Limit: 500})
	require.NoError(t, err)

	assert.Equal(t, int64(100), repo.lastFilter.Limit)
	assert.Equal(t, int64(0), repo.lastFilter.Skip)
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 100, meta.Limit)
	assert.Equal(t, int64(1), meta.TotalPages)
}

func TestListUsaValoresPorDefecto(t *testing.T) {
	svc, repo := newService()

	repo.searchTot = 51
	_, meta, err := svc.List(context.Background(), admin, dto.ListQuery{Page: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(25), repo.lastFilter.Limit)
	assert.Equal(t, int64(50), repo.lastFilter.Skip)
	assert.Equal(t, int64(3), meta.TotalPages)
}

func TestListCanonicalizaFiltros(t *testing.T) {
	svc, repo := newService()

	_, _, err := svc.List(context.Background(), admin, dto.ListQuery{Status: "En Proceso", Priority: "URGENTE", Q: "#44"})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoEnProceso, repo.lastFilter.Estado)
	assert.Equal(t, "urgente", repo.lastFilter.Prioridad)
	assert.Equal(t, "44", repo.lastFilter.DeliveryQ)
	assert.Empty(t, repo.lastFilter.UsuarioCreador)
}

func TestListAcotaOperadorASusOrdenes(t *testing.T) {
	svc, repo := newService()

	_, _, err := svc.List(context.Background(), operador, dto.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, operador.ID, repo.lastFilter.UsuarioCreador)

	_, _, err = svc.List(context.Background(), carpintero, dto.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.UsuarioCreador)
}

func TestExportSoloAdmin(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.Export(context.Background(), operador, dto.ListQuery{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.Export(context.Background(), carpintero, dto.ListQuery{})
	assert.ErrorIs(t, err, ErrForbidden)

	filename, csv, err := svc.Export(context.Background(), admin, dto.ListQuery{})
	require.NoError(t, err)
	assert.Contains(t, filename, "ordenes-")
	assert.NotEmpty(t, csv)
}

func TestCheckDelivery(t *testing.T) {
	svc, _ := newService()
	createOrder(t, svc, operador)

	exists, err := svc.CheckDelivery(context.Background(), "#4421")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CheckDelivery(context.Background(), "9999")
	require.NoError(t, err)
	assert.False(t, exists)
}
