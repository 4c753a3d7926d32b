// Package events emits domain notifications after a transaction commits.
// Delivery is best effort: publish failures are logged and never surface to
// callers. When a Spool is attached, failed events are parked there for retry.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/money"
)

const envelopeVersion = 1

type Type string

const (
	OrderCreated        Type = "order.created"
	ProductCreated      Type = "product.created"
	ProductUpdated      Type = "product.updated"
	ProductDeleted      Type = "product.deleted"
	ProductStockChanged Type = "product.stock_changed"
)

// Publisher delivers an encoded event to a topic; *pubsub.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) error
}

// SpooledEvent is an encoded event handed to a Spool after a failed publish.
type SpooledEvent struct {
	EventID     string
	Type        Type
	Topic       string
	AggregateID uuid.UUID
	OccurredAt  time.Time
	Body        []byte
}

// Spool stores events for a later publish attempt.
type Spool interface {
	Enqueue(ctx context.Context, event SpooledEvent) error
}

// Envelope wraps every payload with identity and timing metadata.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID   string             `json:"order_id"`
	UserID    string             `json:"user_id"`
	AddressID string             `json:"address_id"`
	Items     []OrderItemPayload `json:"items"`
	Total     string             `json:"total"`
}

type ProductPayload struct {
	ProductID        string `json:"product_id"`
	Label            string `json:"label,omitempty"`
	CountInPackage   int    `json:"count_in_package,omitempty"`
	CountInWarehouse int    `json:"count_in_warehouse"`
	Price            string `json:"price,omitempty"`
}

type StockChangedPayload struct {
	ProductID        string `json:"product_id"`
	Delta            int    `json:"delta"`
	CountInWarehouse int    `json:"count_in_warehouse"`
}

// Emitter publishes domain events. A nil *Emitter drops everything.
type Emitter struct {
	pub           Publisher
	ordersTopic   string
	productsTopic string
	spool         Spool
	logg          *logger.Logger
	now           func() time.Time
}

func NewEmitter(pub Publisher, cfg config.PubSubConfig, logg *logger.Logger) *Emitter {
	if pub == nil {
		return nil
	}
	return &Emitter{
		pub:           pub,
		ordersTopic:   cfg.OrdersTopic,
		productsTopic: cfg.ProductsTopic,
		logg:          logg,
		now:           time.Now,
	}
}

// WithSpool attaches a retry spool for events whose publish fails.
func (e *Emitter) WithSpool(s Spool) *Emitter {
	if e == nil {
		return nil
	}
	e.spool = s
	return e
}

// Attributes returns the message attributes sent with every event.
func Attributes(eventID string, typ Type, aggregateID uuid.UUID, occurredAt time.Time) map[string]string {
	return map[string]string{
		"event_id":     eventID,
		"event_type":   string(typ),
		"aggregate_id": aggregateID.String(),
		"occurred_at":  occurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e *Emitter) OrderCreated(ctx context.Context, order *models.Order) {
	if e == nil || order == nil {
		return
	}
	payload := OrderCreatedPayload{
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		AddressID: order.AddressID.String(),
		Items:     make([]OrderItemPayload, 0, len(order.Items)),
	}
	total := decimal.Zero
	for _, item := range order.Items {
		payload.Items = append(payload.Items, OrderItemPayload{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: money.Format(item.UnitPrice),
		})
		total = total.Add(item.LineTotal())
	}
	payload.Total = money.Format(total)
	e.emit(ctx, e.ordersTopic, OrderCreated, order.ID, payload)
}

func (e *Emitter) ProductCreated(ctx context.Context, product *models.Product) {
	e.emitProduct(ctx, ProductCreated, product)
}

func (e *Emitter) ProductUpdated(ctx context.Context, product *models.Product) {
	e.emitProduct(ctx, ProductUpdated, product)
}

func (e *Emitter) ProductDeleted(ctx context.Context, productID uuid.UUID) {
	if e == nil {
		return
	}
	e.emit(ctx, e.productsTopic, ProductDeleted, productID, ProductPayload{ProductID: productID.String()})
}

func (e *Emitter) StockChanged(ctx context.Context, productID uuid.UUID, delta, newCount int) {
	if e == nil {
		return
	}
	e.emit(ctx, e.productsTopic, ProductStockChanged, productID, StockChangedPayload{
		ProductID:        productID.String(),
		Delta:            delta,
		CountInWarehouse: newCount,
	})
}

func (e *Emitter) emitProduct(ctx context.Context, typ Type, product *models.Product) {
	if e == nil || product == nil {
		return
	}
	e.emit(ctx, e.productsTopic, typ, product.ID, ProductPayload{
		ProductID:        product.ID.String(),
		Label:            product.Label,
		CountInPackage:   product.CountInPackage,
		CountInWarehouse: product.CountInWarehouse,
		Price:            money.Format(product.Price),
	})
}

func (e *Emitter) emit(ctx context.Context, topic string, typ Type, aggregateID uuid.UUID, payload any) {
	ctx = context.WithoutCancel(ctx)
	fields := map[string]any{"event_type": string(typ), "topic": topic, "aggregate_id": aggregateID.String()}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logError(ctx, fields, "events.encode_failed", err)
		return
	}
	envelope := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		Type:       typ,
		OccurredAt: e.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		e.logError(ctx, fields, "events.encode_failed", err)
		return
	}

	attrs := Attributes(envelope.EventID, typ, aggregateID, envelope.OccurredAt)
	if err := e.pub.Publish(ctx, topic, body, attrs); err != nil {
		e.logError(ctx, fields, "events.publish_failed", err)
		e.park(ctx, fields, SpooledEvent{
			EventID:     envelope.EventID,
			Type:        typ,
			Topic:       topic,
			AggregateID: aggregateID,
			OccurredAt:  envelope.OccurredAt,
			Body:        body,
		})
		return
	}
	if e.logg != nil {
		e.logg.Debug(e.logg.WithFields(ctx, fields), "events.published")
	}
}

func (e *Emitter) park(ctx context.Context, fields map[string]any, event SpooledEvent) {
	if e.spool == nil {
		return
	}
	if err := e.spool.Enqueue(ctx, event); err != nil {
		e.logError(ctx, fields, "events.spool_failed", err)
		return
	}
	if e.logg != nil {
		e.logg.Warn(e.logg.WithFields(ctx, fields), "events.spooled")
	}
}

func (e *Emitter) logError(ctx context.Context, fields map[string]any, msg string, err error) {
	if e.logg == nil {
		return
	}
	e.logg.Error(e.logg.WithFields(ctx, fields), msg, err)
}
