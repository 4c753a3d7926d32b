package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(client, NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func seedUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func input(userID uuid.UUID, primary bool) CreateAddressInput {
	return CreateAddressInput{
		UserID:    userID,
		Street:    " 1 Main St ",
		City:      "Springfield",
		ZipCode:   "12-345",
		Country:   "US",
		IsPrimary: primary,
	}
}

func primaryCount(t *testing.T, conn *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Address{}).Where("user_id = ? AND is_primary = ?", userID, true).Count(&n).Error)
	return n
}

func TestCreateNormalizesFields(t *testing.T) {
	svc, conn := newTestService(t)
	user := seedUser(t, conn, "alice")

	created, err := svc.Create(context.Background(), input(user.ID, false))
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", created.Street)
	assert.Equal(t, "12345", created.ZipCode)
	assert.False(t, created.IsPrimary)
}

func TestCreateValidation(t *testing.T) {
	svc, conn := newTestService(t)
	user := seedUser(t, conn, "alice")
	ctx := context.Background()

	bad := input(user.ID, false)
	bad.ZipCode = "1-2"
	_, err := svc.Create(ctx, bad)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	bad = input(user.ID, false)
	bad.City = "   "
	_, err = svc.Create(ctx, bad)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, input(uuid.New(), false))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestPrimaryExclusivityOnCreateAndUpdate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")

	first, err := svc.Create(ctx, input(alice.ID, true))
	require.NoError(t, err)
	bobs, err := svc.Create(ctx, input(bob.ID, true))
	require.NoError(t, err)

	second, err := svc.Create(ctx, input(alice.ID, true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), primaryCount(t, conn, alice.ID))

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)

	primary := true
	_, err = svc.Update(ctx, first.ID, AddressUpdate{IsPrimary: &primary})
	require.NoError(t, err)
	assert.Equal(t, int64(1), primaryCount(t, conn, alice.ID))

	got, err = svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)

	got, err = svc.Get(ctx, bobs.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPrimary, "other users keep their primary address")
}

func TestListForUserPrimaryFirst(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, conn, "alice")

	_, err := svc.Create(ctx, input(user.ID, false))
	require.NoError(t, err)
	primary, err := svc.Create(ctx, input(user.ID, true))
	require.NoError(t, err)

	all, err := svc.ListForUser(ctx, user.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, primary.ID, all[0].ID)

	only, err := svc.ListForUser(ctx, user.ID, false)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, primary.ID, only[0].ID)
}

func TestUpdatePartial(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, conn, "alice")
	created, err := svc.Create(ctx, input(user.ID, false))
	require.NoError(t, err)

	city := "Shelbyville"
	updated, err := svc.Update(ctx, created.ID, AddressUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", updated.City)
	assert.Equal(t, created.Street, updated.Street)
	assert.Equal(t, created.ZipCode, updated.ZipCode)

	_, err = svc.Update(ctx, uuid.New(), AddressUpdate{City: &city})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteReferencedAddressIsRejected(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, conn, "alice")
	created, err := svc.Create(ctx, input(user.ID, true))
	require.NoError(t, err)

	product := &models.Product{Label: "Widget", CountInPackage: 1, CountInWarehouse: 1, Price: decimal.NewFromInt(1)}
	require.NoError(t, conn.Create(product).Error)
	order := &models.Order{UserID: user.ID, AddressID: created.ID}
	require.NoError(t, conn.Create(order).Error)

	err = svc.Delete(ctx, created.ID)
	reason, ok := pkgerrors.ConflictReason(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, pkgerrors.ReasonReferencedByOrder, reason)

	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err)
}

func TestDeleteAndList(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, conn, "alice")
	a, err := svc.Create(ctx, input(user.ID, false))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input(user.ID, true))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))

	list, err := svc.List(ctx, db.Filters{"user_id": user.ID, "is_primary": true}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.List(ctx, nil, pagination.Params{Page: 0, PageSize: 10})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
