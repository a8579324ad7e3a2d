package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shop/backend/internal/auth"
	kafkax "github.com/shop/backend/internal/kafka"
	"github.com/shop/backend/internal/orders"
	"github.com/shop/backend/internal/redisx"
)

type OrderStore interface {
	PlaceOrder(ctx context.Context, userID, address string) (string, decimal.Decimal, []orders.ItemPrice, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	GetStatus(ctx context.Context, orderID, userID string) (orders.Status, error)
	UpdateStatus(ctx context.Context, orderID string, to orders.Status) (string, error)
}

type OrdersHandler struct {
	Repo     OrderStore
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
	Log      *zap.Logger
}

type placeOrderReq struct {
	Address string `json:"address" validate:"required"`
}

type placeOrderResp struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "shipping address is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	userID := auth.UserID(ctx)

	orderID, total, items, err := h.Repo.PlaceOrder(ctx, userID, req.Address)
	if err != nil {
		var stockErr *orders.InsufficientStockError
		switch {
		case errors.Is(err, orders.ErrMissingAddress):
			writeError(w, http.StatusBadRequest, "shipping address is required")
		case errors.Is(err, orders.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "your cart is empty")
		case errors.As(err, &stockErr):
			writeError(w, http.StatusBadRequest, stockErr.Error())
		default:
			// rolled back; the caller may safely resubmit
			h.Log.Error("place order", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "server error")
		}
		return
	}

	// Cache the fresh status and announce the order. Both happen after commit
	// and neither can fail the checkout.
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, userID, orderID)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"PREPARING"}`, redisx.TTLStatusCache).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID: orderID,
			UserID:  userID,
			Items:   items,
			Total:   total,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusCreated, placeOrderResp{OrderID: orderID, Total: total})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Repo.ListByUser(ctx, auth.UserID(ctx))
	if err != nil {
		h.Log.Error("list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	userID := auth.UserID(ctx)

	// cache first, DB is the source of truth; the key is scoped to the caller
	// so a hit is always for their own order
	key := fmt.Sprintf(redisx.KeyOrderStatus, userID, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Repo.GetStatus(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.Log.Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	body := map[string]any{"status": status}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, json.RawMessage(b))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	owner, err := h.Repo.UpdateStatus(ctx, orderID, orders.Status(req.Status))
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid status transition")
	case err != nil:
		h.Log.Error("update status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
	default:
		// drop the owner's stale cached status
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, owner, orderID)).Err()
		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}
