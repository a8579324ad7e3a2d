package users

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "Ada", "ada@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := &Repo{DB: mock}
	_, err = repo.Create(context.Background(), "Ada", "ada@example.com", "hash")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreate_ReturnsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "Ada", "ada@example.com", "hash").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &Repo{DB: mock}
	id, err := repo.Create(context.Background(), "Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestGetByEmail_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, email, password`).
		WithArgs("ghost@example.com").
		WillReturnRows(mock.NewRows([]string{"id", "name", "email", "password", "phone", "address", "created_at"}))

	repo := &Repo{DB: mock}
	_, err = repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET name`).
		WithArgs("user-1", "Ada", "555", "Somewhere 1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := &Repo{DB: mock}
	err = repo.UpdateProfile(context.Background(), "user-1", "Ada", "555", "Somewhere 1")
	assert.ErrorIs(t, err, ErrNotFound)
}
