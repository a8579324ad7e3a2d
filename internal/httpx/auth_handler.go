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

type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (string, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type AuthHandler struct {
	Users  UserStore
	Tokens *auth.TokenIssuer
	Log    *zap.Logger
}

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResp struct {
	Token string   `json:"token"`
	User  userResp `json:"user"`
}

type userResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	id, err := h.Users.Create(ctx, req.Name, req.Email, hash)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "email is already registered")
			return
		}
		h.Log.Error("create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	token, err := h.Tokens.Issue(id, req.Name, req.Email)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, authResp{
		Token: token,
		User:  userResp{ID: id, Name: req.Name, Email: req.Email},
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// same message as a wrong password, no account enumeration
			writeError(w, http.StatusBadRequest, "invalid email or password")
			return
		}
		h.Log.Error("get user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Name, u.Email)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, authResp{
		Token: token,
		User:  userResp{ID: u.ID, Name: u.Name, Email: u.Email},
	})
}
