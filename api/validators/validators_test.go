package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

type lineBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type orderBody struct {
	UserID string     `json:"user_id" validate:"required,uuid"`
	Items  []lineBody `json:"items" validate:"dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	body := `{"user_id":"` + uuid.NewString() + `","items":[{"product_id":"nope","quantity":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dest orderBody
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid uuid", details["items[0].product_id"])
	assert.Equal(t, "must be at least 1", details["items[0].quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"user_id":"x","extra":1}`))
	var dest orderBody
	err := DecodeJSONBody(req, &dest)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParsePaginationDefaultsAndRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Page: 1, PageSize: pagination.DefaultPageSize}, params)

	req = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=500", nil)
	params, err = ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 500, params.PageSize)

	req = httptest.NewRequest(http.MethodGet, "/?page=abc", nil)
	_, err = ParsePagination(req)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "missing")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseOptionalQueries(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?primary=true&user_id=bad", nil)

	b, err := ParseBoolQuery(req, "primary")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	missing, err := ParseBoolQuery(req, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseUUIDQuery(req, "user_id")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
