package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shop/backend/internal/auth"
	kafkax "github.com/shop/backend/internal/kafka"
	"github.com/shop/backend/internal/orders"
)

// fakeOrderStore implements OrderStore with a mutex-guarded stock counter so
// the concurrent checkout behavior can be exercised without a database.
type fakeOrderStore struct {
	mu        sync.Mutex
	stock     int
	qty       int
	placeErr  error
	placed    int
	listed    []orders.Order
	owner     string
	statuses  map[string]orders.Status
	updateErr error
}

func (f *fakeOrderStore) PlaceOrder(ctx context.Context, userID, address string) (string, decimal.Decimal, []orders.ItemPrice, error) {
	if f.placeErr != nil {
		return "", decimal.Zero, nil, f.placeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	// same check-then-decrement contract as the real transaction, serialized
	if f.stock < f.qty {
		return "", decimal.Zero, nil, &orders.InsufficientStockError{
			ProductID: "prod-a", ProductName: "Product A",
			Requested: f.qty, Available: f.stock,
		}
	}
	f.stock -= f.qty
	f.placed++
	price := decimal.RequireFromString("100")
	total := price.Mul(decimal.NewFromInt(int64(f.qty)))
	return "order-1", total, []orders.ItemPrice{{ProductID: "prod-a", Qty: f.qty, Price: price}}, nil
}

func (f *fakeOrderStore) ListByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	return f.listed, nil
}

func (f *fakeOrderStore) GetStatus(ctx context.Context, orderID, userID string) (orders.Status, error) {
	if f.owner != "" && userID != f.owner {
		return "", orders.ErrNotFound
	}
	s, ok := f.statuses[orderID]
	if !ok {
		return "", orders.ErrNotFound
	}
	return s, nil
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, orderID string, to orders.Status) (string, error) {
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return f.owner, nil
}

func newOrdersRouter(store OrderStore) *chi.Mux {
	// unreachable address: cache reads miss, writes are best-effort and ignored
	return newOrdersRouterWith(store, redis.NewClient(&redis.Options{Addr: "localhost:1"}))
}

func newOrdersRouterWith(store OrderStore, rdb *redis.Client) *chi.Mux {
	h := &OrdersHandler{
		Repo: store,
		// never started: messages only accumulate in the inbox buffer
		Producer: kafkax.NewProducer([]string{"localhost:9092"}, orders.TopicOrderCreated, 64, zap.NewNop()),
		Redis:    rdb,
		Service:  "test-api",
		Log:      zap.NewNop(),
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doJSONAs(t, router, "user-1", method, path, body)
}

func doJSONAs(t *testing.T, router http.Handler, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrder_Created(t *testing.T) {
	store := &fakeOrderStore{stock: 5, qty: 2}
	router := newOrdersRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": "X"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderID string `json:"order_id"`
		Total   string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "200", resp.Total)
	assert.Equal(t, 3, store.stock)
}

func TestPlaceOrder_MissingAddress(t *testing.T) {
	store := &fakeOrderStore{stock: 5, qty: 1}
	router := newOrdersRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, store.placed)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	store := &fakeOrderStore{placeErr: orders.ErrEmptyCart}
	router := newOrdersRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	store := &fakeOrderStore{stock: 2, qty: 10}
	router := newOrdersRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product A")
	assert.Contains(t, rec.Body.String(), "available 2")
}

func TestPlaceOrder_ServerError(t *testing.T) {
	store := &fakeOrderStore{placeErr: context.DeadlineExceeded}
	router := newOrdersRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": "X"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "server error")
}

// Two buyers race for the last unit: exactly one checkout succeeds and stock
// never goes negative.
func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	store := &fakeOrderStore{stock: 1, qty: 1}
	router := newOrdersRouter(store)

	codes := make([]int, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			rec := doJSON(t, router, http.MethodPost, "/orders", map[string]string{"address": "X"})
			codes[i] = rec.Code
			return nil
		})
	}
	require.NoError(t, g.Wait())

	wins, losses := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			wins++
		case http.StatusBadRequest:
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, 0, store.stock)
	assert.Equal(t, 1, store.placed)
}

func TestListOrders_EmptyIsArray(t *testing.T) {
	router := newOrdersRouter(&fakeOrderStore{})

	rec := doJSON(t, router, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetOrder_NotFound(t *testing.T) {
	router := newOrdersRouter(&fakeOrderStore{statuses: map[string]orders.Status{}})

	rec := doJSON(t, router, http.MethodGet, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_Status(t *testing.T) {
	router := newOrdersRouter(&fakeOrderStore{
		statuses: map[string]orders.Status{"order-1": orders.StatusShipped},
	})

	rec := doJSON(t, router, http.MethodGet, "/orders/order-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SHIPPED")
}

// The status cache is keyed per user: a cached entry written for the owner
// must never answer a request from anyone else.
func TestGetOrder_CachedStatusScopedToOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	store := &fakeOrderStore{
		owner:    "user-1",
		statuses: map[string]orders.Status{"order-1": orders.StatusPreparing},
	}
	router := newOrdersRouterWith(store, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	// the owner's read populates the cache under their own key
	rec := doJSONAs(t, router, "user-1", http.MethodGet, "/orders/order-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, mr.Exists("order_status:user-1:order-1"))

	// a different caller misses the cache and is denied by the store
	rec = doJSONAs(t, router, "user-2", http.MethodGet, "/orders/order-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, mr.Exists("order_status:user-2:order-1"))

	// the owner is still served, now straight from the cache
	rec = doJSONAs(t, router, "user-1", http.MethodGet, "/orders/order-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PREPARING")
}

func TestUpdateStatus_InvalidatesOwnerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	store := &fakeOrderStore{
		owner:    "user-1",
		statuses: map[string]orders.Status{"order-1": orders.StatusPreparing},
	}
	router := newOrdersRouterWith(store, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	rec := doJSONAs(t, router, "user-1", http.MethodGet, "/orders/order-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, mr.Exists("order_status:user-1:order-1"))

	rec = doJSONAs(t, router, "user-1", http.MethodPatch, "/orders/order-1/status",
		map[string]string{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists("order_status:user-1:order-1"))
}

func TestUpdateStatus_Conflict(t *testing.T) {
	router := newOrdersRouter(&fakeOrderStore{updateErr: orders.ErrInvalidTransition})

	rec := doJSON(t, router, http.MethodPatch, "/orders/order-1/status", map[string]string{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
