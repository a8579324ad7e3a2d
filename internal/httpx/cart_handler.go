package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shop/backend/internal/auth"
	"github.com/shop/backend/internal/cart"
)

type CartStore interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Add(ctx context.Context, userID, productID string, qty int) error
	UpdateQty(ctx context.Context, userID, itemID string, qty int) error
	Remove(ctx context.Context, userID, itemID string) error
}

type CartHandler struct {
	Cart CartStore
	Log  *zap.Logger
}

type addToCartReq struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"quantity" validate:"omitempty,min=1"`
}

type updateQtyReq struct {
	Qty int `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart", h.add)
	r.Put("/cart/{id}", h.updateQty)
	r.Delete("/cart/{id}", h.remove)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Cart.Get(ctx, auth.UserID(ctx))
	if err != nil {
		h.Log.Error("get cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Cart.Add(ctx, auth.UserID(ctx), req.ProductID, req.Qty)
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrInsufficientStock):
		writeError(w, http.StatusBadRequest, "not enough stock")
	case err != nil:
		h.Log.Error("add to cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "added to cart"})
	}
}

func (h *CartHandler) updateQty(w http.ResponseWriter, r *http.Request) {
	var req updateQtyReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Cart.UpdateQty(ctx, auth.UserID(ctx), chi.URLParam(r, "id"), req.Qty)
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "cart item not found")
	case err != nil:
		h.Log.Error("update cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "quantity updated"})
	}
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Cart.Remove(ctx, auth.UserID(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "cart item not found")
	case err != nil:
		h.Log.Error("remove from cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "removed from cart"})
	}
}
