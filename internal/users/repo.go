package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shop/backend/internal/postgres"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrNotFound   = errors.New("user not found")
)

const uniqueViolation = "23505"

type Repo struct{ DB postgres.DB }

func (r *Repo) Create(ctx context.Context, name, email, passwordHash string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, $4)`,
		id, name, email, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrEmailTaken
		}
		return "", err
	}
	return id, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, password, phone, address, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, phone, address, created_at
		FROM users WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) UpdateProfile(ctx context.Context, id, name, phone, address string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET name = $2, phone = $3, address = $4 WHERE id = $1`,
		id, name, phone, address)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
