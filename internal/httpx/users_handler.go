package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shop/backend/internal/auth"
	"github.com/shop/backend/internal/users"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (users.Profile, error)
	UpdateProfile(ctx context.Context, id, name, phone, address string) error
}

type UsersHandler struct {
	Users ProfileStore
	Log   *zap.Logger
}

type updateProfileReq struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users/profile", h.getProfile)
	r.Put("/users/profile", h.updateProfile)
}

func (h *UsersHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Users.GetProfile(ctx, auth.UserID(ctx))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("get profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, auth.UserID(ctx), req.Name, req.Phone, req.Address); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("update profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
