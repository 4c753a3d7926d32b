package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk-backend/api/controllers"
	"github.com/angelmondragon/orderdesk-backend/internal/address"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/internal/products"
	"github.com/angelmondragon/orderdesk-backend/internal/users"
	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestRouter(t *testing.T, health map[string]controllers.Pinger) http.Handler {
	t.Helper()
	client, conn := dbtest.Client(t)

	userSvc, err := users.NewService(client, users.NewRepository(conn), nil)
	require.NoError(t, err)
	addressSvc, err := address.NewService(client, address.NewRepository(conn), nil)
	require.NoError(t, err)
	productRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(client, productRepo, nil, nil)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Tx:       client,
		Repo:     orders.NewRepository(conn),
		Reserver: orders.LedgerReserver{Ledger: products.NewStockLedger(productRepo)},
	})
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Config: &config.Config{App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}}},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Health: health,

		Users:     userSvc,
		Addresses: addressSvc,
		Products:  productSvc,
		Orders:    orderSvc,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

type idOnly struct {
	ID uuid.UUID `json:"id"`
}

func TestOrderFlowOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/users", map[string]any{"username": "alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decodeData[idOnly](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/addresses", map[string]any{
		"user_id":    alice.ID,
		"street":     "1 Main St",
		"city":       "Springfield",
		"zip_code":   "12345",
		"country":    "US",
		"is_primary": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	addr := decodeData[idOnly](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"label":              "Widget",
		"count_in_package":   1,
		"count_in_warehouse": 100,
		"price":              "10.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	widget := decodeData[idOnly](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"user_id":    alice.ID,
		"address_id": addr.ID,
		"items":      []map[string]any{{"product_id": widget.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeData[struct {
		ID    uuid.UUID `json:"id"`
		Total string    `json:"total_amount"`
		Items []struct {
			Quantity  int    `json:"quantity"`
			UnitPrice string `json:"unit_price"`
		} `json:"items"`
	}](t, rec)
	assert.Equal(t, "30.00", order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice)

	rec = do(t, h, http.MethodGet, "/api/v1/products/"+widget.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stock := decodeData[struct {
		CountInWarehouse int `json:"count_in_warehouse"`
	}](t, rec)
	assert.Equal(t, 97, stock.CountInWarehouse)

	rec = do(t, h, http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/orders?user_id="+alice.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeData[struct {
		Items []idOnly `json:"items"`
	}](t, rec)
	assert.Len(t, page.Items, 1)

	rec = do(t, h, http.MethodDelete, "/api/v1/users/"+alice.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))
}

func TestOrderErrorsOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"user_id":    uuid.New(),
		"address_id": uuid.New(),
		"items":      []map[string]any{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_ORDER", errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{"user_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/orders?page_size=1000", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockAndLowStockOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"label":              "Sprocket",
		"count_in_package":   2,
		"count_in_warehouse": 3,
		"price":              4.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sprocket := decodeData[idOnly](t, rec)

	rec = do(t, h, http.MethodPost, "/api/v1/products/"+sprocket.ID.String()+"/stock", map[string]any{"delta": -5})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, rec))

	rec = do(t, h, http.MethodPost, "/api/v1/products/"+sprocket.ID.String()+"/stock", map[string]any{"delta": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	level := decodeData[products.StockLevel](t, rec)
	assert.Equal(t, 7, level.CountInWarehouse)

	rec = do(t, h, http.MethodGet, "/api/v1/products/low-stock?threshold=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	low := decodeData[[]idOnly](t, rec)
	require.Len(t, low, 1)
	assert.Equal(t, sprocket.ID, low[0].ID)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t, map[string]controllers.Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("down")},
	})

	rec := do(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-OrderDesk-Env"))

	rec = do(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", errorCode(t, rec))
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}
