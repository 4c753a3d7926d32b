package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

const (
	entityName = "product"

	DefaultLowStockThreshold = 10
	DefaultLowStockLimit     = 20
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	ProductCreated(ctx context.Context, product *models.Product)
	ProductUpdated(ctx context.Context, product *models.Product)
	ProductDeleted(ctx context.Context, productID uuid.UUID)
	StockChanged(ctx context.Context, productID uuid.UUID, delta, newCount int)
}

type noopEmitter struct{}

func (noopEmitter) ProductCreated(context.Context, *models.Product)   {}
func (noopEmitter) ProductUpdated(context.Context, *models.Product)   {}
func (noopEmitter) ProductDeleted(context.Context, uuid.UUID)         {}
func (noopEmitter) StockChanged(context.Context, uuid.UUID, int, int) {}

// Service exposes product CRUD, stock adjustments and the low-stock report.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, delta int) (*StockLevel, error)
	ListLowStock(ctx context.Context, threshold, limit int) ([]ProductDTO, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger *StockLedger
	cache  *cache.Cache
	events eventEmitter
}

// NewService builds the product service. cache and events may be nil.
func NewService(tx txRunner, repo Repository, c *cache.Cache, events eventEmitter) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if events == nil {
		events = noopEmitter{}
	}
	return &service{
		tx:     tx,
		repo:   repo,
		ledger: NewStockLedger(repo),
		cache:  c,
		events: events,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := cache.Fetch(ctx, s.cache, cache.KindProduct, id, func(ctx context.Context) (*models.Product, error) {
		product, err := s.repo.FindByID(ctx, id)
		return product, db.Classify(err, entityName, id, "load product")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]ProductDTO, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list products")
	}
	return FromModels(list), nil
}

func (s *service) ListLowStock(ctx context.Context, threshold, limit int) ([]ProductDTO, error) {
	if threshold < 0 {
		return nil, pkgerrors.OutOfRange("threshold", 0, nil, threshold)
	}
	if limit < 1 || limit > pagination.MaxPageSize {
		return nil, pkgerrors.OutOfRange("limit", 1, pagination.MaxPageSize, limit)
	}
	list, err := s.repo.ListLowStock(ctx, threshold, limit)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list low stock products")
	}
	return FromModels(list), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	product := &models.Product{
		Label:            input.Label,
		CountInPackage:   input.CountInPackage,
		CountInWarehouse: input.CountInWarehouse,
		Price:            input.Price,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, db.Classify(err, entityName, uuid.Nil, "create product")
	}
	s.events.ProductCreated(ctx, product)
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*ProductDTO, error) {
	updates, err := input.changes()
	if err != nil {
		return nil, err
	}

	var updated *models.Product
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, updates); err != nil {
			return db.Classify(err, entityName, id, "update product")
		}
		var err error
		updated, err = repo.FindByID(ctx, id)
		return db.Classify(err, entityName, id, "reload product")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KindProduct, id)
	s.events.ProductUpdated(ctx, updated)
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.Classify(err, entityName, id, "load product")
		}
		refs, err := repo.CountOrderItems(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "count product order items")
		}
		if refs > 0 {
			return referencedByOrder(id, refs)
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return referencedByOrder(id, 0)
			}
			return pkgerrors.Storage(err, "delete product")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KindProduct, id)
	s.events.ProductDeleted(ctx, id)
	return nil
}

func (s *service) UpdateStock(ctx context.Context, id uuid.UUID, delta int) (*StockLevel, error) {
	var level int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		level, err = s.ledger.WithTx(tx).Adjust(ctx, id, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KindProduct, id)
	s.events.StockChanged(ctx, id, delta, level)
	return &StockLevel{ProductID: id, CountInWarehouse: level}, nil
}

func referencedByOrder(id uuid.UUID, refs int64) error {
	return pkgerrors.Conflict(pkgerrors.ReasonReferencedByOrder, entityName, id, "product is referenced by existing orders").
		WithDetails(pkgerrors.ConflictDetails{
			Reason:   pkgerrors.ReasonReferencedByOrder,
			Entity:   entityName,
			ID:       id,
			RefCount: refs,
		})
}
