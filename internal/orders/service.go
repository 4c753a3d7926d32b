package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/internal/products"
	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/metrics"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
	"github.com/angelmondragon/orderdesk-backend/pkg/tracing"
)

const (
	entityName = "order"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockReserver decrements stock inside the caller's transaction and returns
// the unit price snapshot.
type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity, line int) (decimal.Decimal, error)
}

type eventEmitter interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

type noopEmitter struct{}

func (noopEmitter) OrderCreated(context.Context, *models.Order) {}

// LedgerReserver adapts the product stock ledger to a per-transaction call.
type LedgerReserver struct {
	Ledger *products.StockLedger
}

func (r LedgerReserver) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity, line int) (decimal.Decimal, error) {
	return r.Ledger.WithTx(tx).Reserve(ctx, productID, quantity, line)
}

// Service builds orders atomically and exposes read, address change and delete.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]OrderDTO, error)
	UpdateAddress(ctx context.Context, id, addressID uuid.UUID) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups the order service dependencies. Cache, Events and
// Metrics are optional.
type ServiceParams struct {
	Tx       txRunner
	Repo     Repository
	Reserver stockReserver
	Cache    *cache.Cache
	Events   eventEmitter
	Metrics  *metrics.OrderMetrics
}

type service struct {
	tx       txRunner
	repo     Repository
	reserver stockReserver
	cache    *cache.Cache
	events   eventEmitter
	metrics  *metrics.OrderMetrics
	tracer   trace.Tracer
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Reserver == nil {
		return nil, fmt.Errorf("stock reserver required")
	}
	events := params.Events
	if events == nil {
		events = noopEmitter{}
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		reserver: params.Reserver,
		cache:    params.Cache,
		events:   events,
		metrics:  params.Metrics,
		tracer:   tracing.Tracer("orders"),
		now:      time.Now,
	}, nil
}

// Create validates the request, then in one transaction writes the order
// header, reserves stock for each line in request order and writes the items
// with the price read at reservation time. Any failure rolls everything back.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (order *OrderDTO, err error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "orders.create", trace.WithAttributes(
		attribute.String("order.user_id", input.UserID.String()),
		attribute.Int("order.lines", len(input.Items)),
	))
	defer func() {
		s.finishCreate(span, started, err)
		span.End()
	}()

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindUser(ctx, input.UserID); err != nil {
			return db.Classify(err, "user", input.UserID, "load order user")
		}
		address, err := repo.FindAddress(ctx, input.AddressID)
		if err != nil {
			return db.Classify(err, "address", input.AddressID, "load order address")
		}
		if address.UserID != input.UserID {
			return pkgerrors.Validation("address_id", "owned_by_user", "address does not belong to user")
		}

		header := &models.Order{UserID: input.UserID, AddressID: input.AddressID}
		if err := repo.CreateOrder(ctx, header); err != nil {
			return db.Classify(err, entityName, header.ID, "create order")
		}

		for i, line := range input.Items {
			price, err := s.reserveLine(ctx, tx, line, i)
			if err != nil {
				return err
			}
			item := &models.OrderItem{
				OrderID:   header.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return db.Classify(err, entityName, header.ID, "create order item")
			}
		}

		created, err = repo.FindByID(ctx, header.ID)
		if err != nil {
			return db.Classify(err, entityName, header.ID, "load created order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		productIDs = append(productIDs, line.ProductID)
	}
	s.cache.Invalidate(ctx, cache.KindProduct, productIDs...)
	s.events.OrderCreated(ctx, created)
	s.metrics.IncCreated(totalUnits(input.Items))

	span.SetAttributes(attribute.String("order.id", created.ID.String()))
	return FromModel(created), nil
}

func (s *service) reserveLine(ctx context.Context, tx *gorm.DB, line LineInput, index int) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "orders.reserve_line", trace.WithAttributes(
		attribute.String("product.id", line.ProductID.String()),
		attribute.Int("line.index", index),
		attribute.Int("line.quantity", line.Quantity),
	))
	defer span.End()

	price, err := s.reserver.Reserve(ctx, tx, line.ProductID, line.Quantity, index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
		return decimal.Decimal{}, err
	}
	return price, nil
}

func (s *service) finishCreate(span trace.Span, started time.Time, err error) {
	elapsed := s.now().Sub(started)
	if err == nil {
		s.metrics.ObserveDuration(outcomeSuccess, elapsed)
		return
	}
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.ObserveDuration(outcomeFailure, elapsed)
	s.metrics.IncFailure(string(code))
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
}

func validateCreate(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyOrder, "order must contain at least one item")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.Validation("user_id", "required", "user_id is required")
	}
	if input.AddressID == uuid.Nil {
		return pkgerrors.Validation("address_id", "required", "address_id is required")
	}
	seen := make(map[uuid.UUID]int, len(input.Items))
	for i, line := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if line.ProductID == uuid.Nil {
			return pkgerrors.Validation(field+".product_id", "required", "product_id is required")
		}
		if line.Quantity < 1 {
			return pkgerrors.OutOfRange(field+".quantity", 1, nil, line.Quantity)
		}
		if first, ok := seen[line.ProductID]; ok {
			return pkgerrors.Validation(field+".product_id", "unique",
				fmt.Sprintf("product already requested on line %d", first))
		}
		seen[line.ProductID] = i
	}
	return nil
}

func totalUnits(items []LineInput) int {
	units := 0
	for _, item := range items {
		units += item.Quantity
	}
	return units
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err, entityName, id, "load order")
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]OrderDTO, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list orders")
	}
	return FromModels(list), nil
}

// UpdateAddress moves an order to another address of the same user. Items are
// never touched.
func (s *service) UpdateAddress(ctx context.Context, id, addressID uuid.UUID) (*OrderDTO, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.Validation("address_id", "required", "address_id is required")
	}
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.Classify(err, entityName, id, "load order")
		}
		address, err := repo.FindAddress(ctx, addressID)
		if err != nil {
			return db.Classify(err, "address", addressID, "load order address")
		}
		if address.UserID != order.UserID {
			return pkgerrors.Validation("address_id", "owned_by_user", "address does not belong to the order's user")
		}
		if err := repo.UpdateAddress(ctx, id, addressID); err != nil {
			return db.Classify(err, entityName, id, "update order address")
		}
		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return db.Classify(err, entityName, id, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// Delete removes the order and its items. Reserved stock is not returned.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "delete order")
		}
		if rows == 0 {
			return pkgerrors.NotFound(entityName, id)
		}
		return nil
	})
}
