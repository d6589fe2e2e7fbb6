package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mini-shop/internal/config"
	"mini-shop/internal/handler"
	"mini-shop/internal/model"
	"mini-shop/internal/repository"
	"mini-shop/internal/router"
	"mini-shop/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	orderService := service.NewOrderService(
		repository.NewOrderRepository(testDB.Pool, logger),
		repository.NewStockRepository(testDB.Pool, logger),
		repository.NewCouponRepository(testDB.Pool, logger),
		repository.NewAddressRepository(testDB.Pool, logger),
		nil, nil, nil,
		config.OrderConfig{TTL: 30 * time.Minute, MinAmountPolicy: config.MinAmountPreDiscount},
		logger,
	)

	orderHandler := handler.NewOrderHandler(orderService, logger)

	return router.New(orderHandler, "test-api-key", logger)
}

// doRequest performs an authenticated request as the given user.
func doRequest(server http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("X-API-Key", "test-api-key")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestOrderAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("POST /api/orders places an order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")

		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID: "addr-1",
			Items: []model.PlaceOrderItem{
				{SkuID: "S001", Quantity: 2},
				{SkuID: "S002", Quantity: 1},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, model.Cents(4500), resp.Order.TotalCents)
		assert.Len(t, resp.Items, 2)
	})

	t.Run("POST /api/orders with coupon applies discount", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")
		SeedCoupon(t, testDB.Pool, "TENOFF", model.CouponTypeFixed, 1000, 10, 0)

		couponCode := "TENOFF"
		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID:  "addr-1",
			CouponCode: &couponCode,
			Items:      []model.PlaceOrderItem{{SkuID: "S002", Quantity: 2}},
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, model.Cents(4000), resp.Order.TotalCents)
		assert.NotNil(t, resp.Order.CouponID)
	})

	t.Run("POST /api/orders rejects insufficient stock with 409", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")

		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID: "addr-1",
			Items:     []model.PlaceOrderItem{{SkuID: "S005", Quantity: 99}},
		})

		require.Equal(t, http.StatusConflict, w.Code)

		var errResp model.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
		assert.Equal(t, model.ErrCodeInsufficientStock, errResp.Error)
	})

	t.Run("POST /api/orders rejects bad requests with 400", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")

		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID: "addr-1",
			Items:     []model.PlaceOrderItem{{SkuID: "S001", Quantity: 0}},
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GET /api/orders/{id} returns the order to its owner only", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")

		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID: "addr-1",
			Items:     []model.PlaceOrderItem{{SkuID: "S001", Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var created model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

		w = doRequest(server, http.MethodGet, "/api/orders/"+created.Order.ID.String(), "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(server, http.MethodGet, "/api/orders/"+created.Order.ID.String(), "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Payment, receipt, refund and review endpoints", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedSkus(t, testDB.Pool)
		SeedAddress(t, testDB.Pool, "addr-1", "user-1")

		w := doRequest(server, http.MethodPost, "/api/orders", "user-1", model.PlaceOrderRequest{
			AddressID: "addr-1",
			Items:     []model.PlaceOrderItem{{SkuID: "S001", Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var created model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		base := "/api/orders/" + created.Order.ID.String()

		// Receipt before delivery is a state conflict.
		w = doRequest(server, http.MethodPost, base+"/received", "user-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		// Pay, then a second payment conflicts.
		w = doRequest(server, http.MethodPost, base+"/paid", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doRequest(server, http.MethodPost, base+"/paid", "user-1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		// Deliver out of band, then confirm receipt.
		_, err := testDB.Pool.Exec(t.Context(), `UPDATE orders SET ship_status = 'delivered' WHERE id = $1`, created.Order.ID)
		require.NoError(t, err)
		w = doRequest(server, http.MethodPost, base+"/received", "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		// Refund needs a reason.
		w = doRequest(server, http.MethodPost, base+"/refund", "user-1", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = doRequest(server, http.MethodPost, base+"/refund", "user-1", map[string]string{"reason": "damaged"})
		assert.Equal(t, http.StatusOK, w.Code)

		// Review the single item.
		w = doRequest(server, http.MethodPost, base+"/review", "user-1", map[string]any{
			"items": []map[string]any{
				{"itemId": created.Items[0].ID.String(), "rating": 5, "review": "solid"},
			},
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Authentication is enforced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/invalid", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		// API key without a user is still unauthorised.
		w = doRequest(server, http.MethodGet, "/api/orders/invalid", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Health check requires no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
