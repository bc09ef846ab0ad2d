package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"pedidos-taller/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound          = errors.New("orden no encontrada")
	ErrDuplicateDelivery = errors.New("el delivery ya existe")
)

// ListFilter describe un listado: filtros opcionales más paginación.
// Limit en 0 significa sin paginar (lo usa la exportación).
type ListFilter struct {
	Estado         string
	Prioridad      string
	DeliveryQ      string
	UsuarioCreador string
	Skip           int64
	Limit          int64
}

// TransitionUpdate son los campos que una transición puede tocar. Los
// punteros en nil no se escriben. Entry, si viene, se agrega al historial
// en la misma escritura: la actualización es un único comando atómico.
type TransitionUpdate struct {
	Estado         *string
	Prioridad      *string
	FechaTerminado *time.Time
	TerminadoPor   *string
	Entry          *model.HistorialEntry
}

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes crea el índice único sobre delivery. Ese índice es la
// garantía real contra duplicados; el chequeo previo del servicio es solo
// una optimización.
func (m *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "delivery", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "prioridad", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "estado", Value: 1}}},
	})
	return err
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	res, err := m.col.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDelivery
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

func (m *MongoOrderRepository) FindByDelivery(ctx context.Context, delivery string) (*model.Order, error) {
	return m.findOne(ctx, bson.M{"delivery": delivery})
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, filter).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *MongoOrderRepository) ExistsByDelivery(ctx context.Context, delivery string) (bool, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{"delivery": delivery}, options.Count().SetLimit(1))
	return n > 0, err
}

// ApplyTransition persiste una transición como un solo findOneAndUpdate:
// o se escribe el documento completo (campos + historial) o nada.
func (m *MongoOrderRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, upd TransitionUpdate) (*model.Order, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Estado != nil {
		set["estado"] = *upd.Estado
	}
	if upd.Prioridad != nil {
		set["prioridad"] = *upd.Prioridad
	}
	if upd.FechaTerminado != nil {
		set["fechaTerminado"] = *upd.FechaTerminado
	}
	if upd.TerminadoPor != nil {
		set["terminadoPor"] = *upd.TerminadoPor
	}

	update := bson.M{"$set": set}
	if upd.Entry != nil {
		update["$push"] = bson.M{"historial": *upd.Entry}
	}

	var res model.Order
	err := m.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Search devuelve la página pedida ordenada por fecha de creación
// descendente, junto con el total sin paginar.
func (m *MongoOrderRepository) Search(ctx context.Context, f ListFilter) ([]*model.Order, int64, error) {
	filter := searchFilter(f)

	total, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetSkip(f.Skip).SetLimit(f.Limit)
	}

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, 0, err
		}
		out = append(out, &v)
	}
	return out, total, cur.Err()
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func searchFilter(f ListFilter) bson.M {
	filter := bson.M{}
	if f.Estado != "" {
		filter["estado"] = f.Estado
	}
	if f.Prioridad != "" {
		filter["prioridad"] = f.Prioridad
	}
	if f.DeliveryQ != "" {
		// Substring sin distinguir mayúsculas; se escapa el patrón para que
		// la búsqueda sea literal.
		filter["delivery"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.DeliveryQ), Options: "i"}
	}
	if f.UsuarioCreador != "" {
		filter["usuarioCreador"] = f.UsuarioCreador
	}
	return filter
}
