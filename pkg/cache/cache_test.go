package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entity struct {
	ID   uuid.UUID
	Name string
}

type fakeStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	delErr error
	dels   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.dels = append(f.dels, keys...)
	for _, k := range keys {
		delete(f.data, k)
	}
	return f.delErr
}

func (f *fakeStore) EntityKey(kind, id string) string {
	return "od:entity:" + kind + ":" + id
}

func TestFetchReadThrough(t *testing.T) {
	store := newFakeStore()
	c := New(store, map[Kind]time.Duration{KindProduct: 10 * time.Minute}, nil)
	id := uuid.New()
	loads := 0
	load := func(context.Context) (*entity, error) {
		loads++
		return &entity{ID: id, Name: "Widget"}, nil
	}

	first, err := Fetch(context.Background(), c, KindProduct, id, load)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, KindProduct, id, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	assert.Equal(t, 10*time.Minute, store.ttls[c.Key(KindProduct, id)])
}

func TestFetchInvalidateForcesReload(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil, nil)
	id := uuid.New()
	name := "before"
	load := func(context.Context) (*entity, error) {
		return &entity{ID: id, Name: name}, nil
	}

	_, err := Fetch(context.Background(), c, KindUser, id, load)
	require.NoError(t, err)

	name = "after"
	c.Invalidate(context.Background(), KindUser, id)
	got, err := Fetch(context.Background(), c, KindUser, id, load)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, []string{c.Key(KindUser, id)}, store.dels)
}

func TestFetchDegradesOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c := New(store, nil, nil)

	got, err := Fetch(context.Background(), c, KindProduct, uuid.New(), func(context.Context) (*entity, error) {
		return &entity{Name: "db"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", got.Name)
}

func TestFetchDoesNotCacheLoadErrors(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil, nil)
	loadErr := errors.New("not found")

	_, err := Fetch(context.Background(), c, KindProduct, uuid.New(), func(context.Context) (*entity, error) {
		return nil, loadErr
	})
	assert.ErrorIs(t, err, loadErr)
	assert.Empty(t, store.data)
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var c *Cache
	got, err := Fetch(context.Background(), c, KindProduct, uuid.New(), func(context.Context) (*entity, error) {
		return &entity{Name: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Name)
	c.Invalidate(context.Background(), KindProduct, uuid.New())
	assert.Nil(t, New(nil, nil, nil))
}
