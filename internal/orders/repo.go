package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shop/backend/internal/postgres"
)

type Repo struct{ DB postgres.DB }

type cartLine struct {
	productID string
	name      string
	qty       int
	price     decimal.Decimal
	stock     int
}

// PlaceOrder turns the user's cart into an order in one transaction:
// lock the cart's product rows, validate every line's stock before any
// mutation, insert the order header and items (price copied from the locked
// read, never from the client), decrement stock, clear the cart, commit.
// Any failure rolls the whole attempt back.
func (r *Repo) PlaceOrder(ctx context.Context, userID, address string) (string, decimal.Decimal, []ItemPrice, error) {
	zero := decimal.Zero
	if strings.TrimSpace(address) == "" {
		return "", zero, nil, ErrMissingAddress
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", zero, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Price and stock must come from inside this transaction; FOR UPDATE
	// serializes concurrent checkouts touching the same products.
	rows, err := tx.Query(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.product_id
		FOR UPDATE OF p`, userID)
	if err != nil {
		return "", zero, nil, err
	}

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.productID, &l.name, &l.qty, &l.price, &l.stock); err != nil {
			rows.Close()
			return "", zero, nil, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", zero, nil, err
	}

	if len(lines) == 0 {
		return "", zero, nil, ErrEmptyCart
	}

	// Validate every line before touching anything.
	for _, l := range lines {
		if l.stock < l.qty {
			return "", zero, nil, &InsufficientStockError{
				ProductID:   l.productID,
				ProductName: l.name,
				Requested:   l.qty,
				Available:   l.stock,
			}
		}
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.price.Mul(decimal.NewFromInt(int64(l.qty))))
	}

	orderID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total, status, address)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, userID, total, string(StatusPreparing), address); err != nil {
		return "", zero, nil, err
	}

	items := make([]ItemPrice, 0, len(lines))
	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), orderID, l.productID, l.qty, l.price); err != nil {
			return "", zero, nil, err
		}

		// Conditional decrement: the rows are locked, but the predicate makes
		// an oversell impossible even if the locking read ever changes.
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2
			WHERE id = $1 AND stock >= $2`, l.productID, l.qty)
		if err != nil {
			return "", zero, nil, err
		}
		if ct.RowsAffected() != 1 {
			return "", zero, nil, &InsufficientStockError{
				ProductID:   l.productID,
				ProductName: l.name,
				Requested:   l.qty,
				Available:   l.stock,
			}
		}
		items = append(items, ItemPrice{ProductID: l.productID, Qty: l.qty, Price: l.price})
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return "", zero, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", zero, nil, err
	}
	return orderID, total, items, nil
}

// ListByUser returns the caller's orders newest-first, each enriched with its
// items joined to product name and image. Item lookups fan out over the pool.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, total, status, address, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &status, &o.Address, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range out {
		g.Go(func() error {
			items, err := r.listItems(gctx, out[i].ID)
			if err != nil {
				return err
			}
			out[i].Items = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) listItems(ctx context.Context, orderID string) ([]ItemDetail, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.product_id, oi.quantity, oi.price, p.name, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemDetail
	for rows.Next() {
		var it ItemDetail
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Qty, &it.Price, &it.Name, &it.Image); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) GetStatus(ctx context.Context, orderID, userID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `
		SELECT status FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateStatus applies a manual lifecycle transition, guarded by the state
// machine. The current status is locked so concurrent transitions serialize.
// Returns the owning user id so callers can invalidate per-user caches.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) (string, error) {
	if !to.Valid() {
		return "", ErrInvalidTransition
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner, cur string
	err = tx.QueryRow(ctx, `SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&owner, &cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !CanTransition(Status(cur), to) {
		return "", ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(to)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return owner, nil
}
