package address

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

const entityName = "address"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies address rules, most importantly the single-primary invariant.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*AddressDTO, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]AddressDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, includeNonPrimary bool) ([]AddressDTO, error)
	Create(ctx context.Context, input CreateAddressInput) (*AddressDTO, error)
	Update(ctx context.Context, id uuid.UUID, input AddressUpdate) (*AddressDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx    txRunner
	repo  Repository
	cache *cache.Cache
}

// NewService builds the address service. cache may be nil.
func NewService(tx txRunner, repo Repository, c *cache.Cache) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{tx: tx, repo: repo, cache: c}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AddressDTO, error) {
	address, err := cache.Fetch(ctx, s.cache, cache.KindAddress, id, func(ctx context.Context) (*models.Address, error) {
		address, err := s.repo.FindByID(ctx, id)
		return address, db.Classify(err, entityName, id, "load address")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(address), nil
}

func (s *service) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]AddressDTO, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list addresses")
	}
	return FromModels(list), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, includeNonPrimary bool) ([]AddressDTO, error) {
	list, err := s.repo.ListByUser(ctx, userID, !includeNonPrimary)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list user addresses")
	}
	return FromModels(list), nil
}

func (s *service) Create(ctx context.Context, input CreateAddressInput) (*AddressDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.Validation("user_id", "required", "user id required")
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:    input.UserID,
		Street:    input.Street,
		City:      input.City,
		State:     input.State,
		ZipCode:   input.ZipCode,
		Country:   input.Country,
		IsPrimary: input.IsPrimary,
	}

	var demoted []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockUser(ctx, input.UserID); err != nil {
			return db.Classify(err, "user", input.UserID, "lock user")
		}
		if address.IsPrimary {
			ids, err := repo.ClearPrimary(ctx, input.UserID, uuid.Nil)
			if err != nil {
				return pkgerrors.Storage(err, "clear primary address")
			}
			demoted = ids
		}
		if err := repo.Create(ctx, address); err != nil {
			return db.Classify(err, entityName, uuid.Nil, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KindAddress, demoted...)
	return FromModel(address), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input AddressUpdate) (*AddressDTO, error) {
	updates, err := input.changes()
	if err != nil {
		return nil, err
	}

	var (
		updated *models.Address
		demoted []uuid.UUID
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.Classify(err, entityName, id, "load address")
		}
		if input.IsPrimary != nil && *input.IsPrimary {
			if err := repo.LockUser(ctx, current.UserID); err != nil {
				return db.Classify(err, "user", current.UserID, "lock user")
			}
			ids, err := repo.ClearPrimary(ctx, current.UserID, id)
			if err != nil {
				return pkgerrors.Storage(err, "clear primary address")
			}
			demoted = ids
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return db.Classify(err, entityName, id, "update address")
		}
		updated, err = repo.FindByID(ctx, id)
		return db.Classify(err, entityName, id, "reload address")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KindAddress, append(demoted, id)...)
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.Classify(err, entityName, id, "load address")
		}
		refs, err := repo.CountOrders(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "count address orders")
		}
		if refs > 0 {
			return pkgerrors.Conflict(pkgerrors.ReasonReferencedByOrder, entityName, id, "address is referenced by existing orders").
				WithDetails(pkgerrors.ConflictDetails{
					Reason:   pkgerrors.ReasonReferencedByOrder,
					Entity:   entityName,
					ID:       id,
					RefCount: refs,
				})
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Conflict(pkgerrors.ReasonReferencedByOrder, entityName, id, "address is referenced by existing orders")
			}
			return pkgerrors.Storage(err, "delete address")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KindAddress, id)
	return nil
}
