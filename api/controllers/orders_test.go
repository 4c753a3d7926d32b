package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

type stubOrderService struct {
	created   *orders.CreateOrderInput
	createErr error
	filters   db.Filters
	params    pagination.Params
}

func (s *stubOrderService) Create(_ context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.created = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &orders.OrderDTO{ID: uuid.New(), UserID: input.UserID, AddressID: input.AddressID}, nil
}

func (s *stubOrderService) Get(_ context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.NotFound("order", id)
}

func (s *stubOrderService) List(_ context.Context, filters db.Filters, params pagination.Params) ([]orders.OrderDTO, error) {
	s.filters = filters
	s.params = params
	return nil, nil
}

func (s *stubOrderService) UpdateAddress(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrderService) Delete(context.Context, uuid.UUID) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCreateOrderMapsLinesInOrder(t *testing.T) {
	svc := &stubOrderService{}
	userID, addressID := uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	body := `{"user_id":"` + userID.String() + `","address_id":"` + addressID.String() + `","items":[` +
		`{"product_id":"` + p1.String() + `","quantity":2},{"product_id":"` + p2.String() + `","quantity":1}]}`

	rec := httptest.NewRecorder()
	CreateOrder(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.created)
	assert.Equal(t, userID, svc.created.UserID)
	assert.Equal(t, []orders.LineInput{{ProductID: p1, Quantity: 2}, {ProductID: p2, Quantity: 1}}, svc.created.Items)
}

func TestCreateOrderSurfacesShortfall(t *testing.T) {
	productID := uuid.New()
	svc := &stubOrderService{createErr: pkgerrors.InsufficientStock(pkgerrors.StockShortfall{
		ProductID: productID, Line: 1, Requested: 9, Available: 2,
	})}
	body := `{"user_id":"` + uuid.NewString() + `","address_id":"` + uuid.NewString() + `","items":[{"product_id":"` + productID.String() + `","quantity":9}]}`

	rec := httptest.NewRecorder()
	CreateOrder(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":2`)
	assert.Contains(t, rec.Body.String(), `"line":1`)
}

func TestCreateOrderRejectsMissingProductID(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"user_id":"` + uuid.NewString() + `","address_id":"` + uuid.NewString() + `","items":[{"quantity":1}]}`

	rec := httptest.NewRecorder()
	CreateOrder(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "items[0].product_id")
	assert.Nil(t, svc.created)
}

func TestListOrdersParsesFilters(t *testing.T) {
	svc := &stubOrderService{}
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id="+userID.String()+"&page=2&page_size=5", nil)

	rec := httptest.NewRecorder()
	ListOrders(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, svc.filters["user_id"])
	assert.NotContains(t, svc.filters, "address_id")
	assert.Equal(t, pagination.Params{Page: 2, PageSize: 5}, svc.params)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestOrderPathParamMustBeUUID(t *testing.T) {
	svc := &stubOrderService{}
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), "orderId", "nope")

	rec := httptest.NewRecorder()
	GetOrder(svc, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.NewString()
	rec = httptest.NewRecorder()
	GetOrder(svc, testLogger()).ServeHTTP(rec, withParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id, nil), "orderId", id))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	DeleteOrder(svc, testLogger()).ServeHTTP(rec, withParam(httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+id, nil), "orderId", id))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
