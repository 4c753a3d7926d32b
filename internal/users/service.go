package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

const (
	entityName        = "user"
	minUsernameLength = 3
	maxUsernameLength = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies the user business rules on top of the repository.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]UserDTO, error)
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UserUpdate) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx    txRunner
	repo  Repository
	cache *cache.Cache
}

// NewService builds the user service. cache may be nil.
func NewService(tx txRunner, repo Repository, c *cache.Cache) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{tx: tx, repo: repo, cache: c}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := cache.Fetch(ctx, s.cache, cache.KindUser, id, func(ctx context.Context) (*models.User, error) {
		user, err := s.repo.FindByID(ctx, id)
		return user, db.Classify(err, entityName, id, "load user")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]UserDTO, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Storage(err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	user := input.ToModel()
	if err := validateUsername(user.Username); err != nil {
		return nil, err
	}
	if !strings.Contains(user.Email, "@") {
		return nil, pkgerrors.Validation("email", "format", "email must contain @")
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapWriteError(err, uuid.Nil)
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UserUpdate) (*UserDTO, error) {
	updates := map[string]any{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.Classify(err, entityName, id, "load user")
		}
		if input.Email != nil && strings.TrimSpace(*input.Email) != current.Email {
			conflict := pkgerrors.Conflict(pkgerrors.ReasonImmutableField, entityName, id, "email cannot be changed after registration")
			return conflict.WithDetails(pkgerrors.ConflictDetails{
				Reason: pkgerrors.ReasonImmutableField,
				Entity: entityName,
				ID:     id,
				Field:  "email",
			})
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return mapWriteError(err, id)
		}
		updated, err = repo.FindByID(ctx, id)
		return db.Classify(err, entityName, id, "reload user")
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KindUser, id)
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var addressIDs []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.Classify(err, entityName, id, "load user")
		}
		orders, err := repo.CountOrders(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "count user orders")
		}
		if orders > 0 {
			return pkgerrors.Conflict(pkgerrors.ReasonHasDependentOrders, entityName, id, "cannot delete user with existing orders").
				WithDetails(pkgerrors.ConflictDetails{
					Reason:   pkgerrors.ReasonHasDependentOrders,
					Entity:   entityName,
					ID:       id,
					RefCount: orders,
				})
		}
		addressIDs, err = repo.AddressIDs(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "list user addresses")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Storage(err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KindUser, id)
	// addresses go with the user through ON DELETE CASCADE
	s.cache.Invalidate(ctx, cache.KindAddress, addressIDs...)
	return nil
}

func validateUsername(username string) error {
	n := len([]rune(username))
	if n < minUsernameLength {
		return pkgerrors.Validation("username", "min_length",
			fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if n > maxUsernameLength {
		return pkgerrors.OutOfRange("username", minUsernameLength, maxUsernameLength, n)
	}
	return nil
}

func mapWriteError(err error, id uuid.UUID) error {
	switch {
	case db.IsUniqueViolation(err, "username"):
		return duplicate(id, "username")
	case db.IsUniqueViolation(err, "email"):
		return duplicate(id, "email")
	case db.IsUniqueViolation(err, ""):
		return duplicate(id, "")
	}
	return db.Classify(err, entityName, id, "write user")
}

func duplicate(id uuid.UUID, field string) error {
	return pkgerrors.Conflict(pkgerrors.ReasonDuplicate, entityName, id, fmt.Sprintf("%s already taken", field)).
		WithDetails(pkgerrors.ConflictDetails{
			Reason: pkgerrors.ReasonDuplicate,
			Entity: entityName,
			ID:     id,
			Field:  field,
		})
}
