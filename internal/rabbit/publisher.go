// publisher.go
package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"pedidos-taller/internal/model"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const exchange = "pedidos.events"

// Publisher emite eventos de órdenes a un exchange topic. El servicio lo
// usa como fuego y olvido: si no hay broker se arranca sin publisher.
type Publisher struct {
	ch *amqp091.Channel
}

func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

type eventEnvelope struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Delivery   string    `json:"delivery"`
	Payload    any       `json:"payload,omitempty"`
}

func (p *Publisher) OrderCreated(ctx context.Context, o *model.Order) error {
	return p.publish(ctx, "order.created", o.Delivery, map[string]any{
		"recordId":  o.ID.Hex(),
		"estado":    o.Estado,
		"prioridad": o.Prioridad,
		"qty":       o.Qty,
	})
}

func (p *Publisher) OrderUpdated(ctx context.Context, o *model.Order, prevEstado, prevPrioridad string) error {
	return p.publish(ctx, "order.updated", o.Delivery, map[string]any{
		"recordId":          o.ID.Hex(),
		"estado":            o.Estado,
		"estadoAnterior":    prevEstado,
		"prioridad":         o.Prioridad,
		"prioridadAnterior": prevPrioridad,
	})
}

func (p *Publisher) OrderDeleted(ctx context.Context, delivery string) error {
	return p.publish(ctx, "order.deleted", delivery, nil)
}

func (p *Publisher) publish(ctx context.Context, key, delivery string, payload any) error {
	env := eventEnvelope{
		EventID:    uuid.NewString(),
		Type:       key,
		OccurredAt: time.Now().UTC(),
		Delivery:   delivery,
		Payload:    payload,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp091.Publishing{
		ContentType: "application/json",
		MessageId:   env.EventID,
		Timestamp:   env.OccurredAt,
		Body:        body,
	})
}
