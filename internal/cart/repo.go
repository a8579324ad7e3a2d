package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shop/backend/internal/postgres"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("not enough stock")
)

type Repo struct{ DB postgres.DB }

func (r *Repo) Get(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, p.id, p.name, p.price, p.old_price, p.image, p.stock, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Name, &l.Price, &l.OldPrice, &l.Image, &l.Stock, &l.Qty); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add puts qty units of a product into the user's cart. Re-adding a product
// the cart already holds increments the existing line instead of duplicating
// it, via the UNIQUE (user_id, product_id) constraint.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("invalid quantity %d", qty)
	}

	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if stock < qty {
		return ErrInsufficientStock
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.NewString(), userID, productID, qty)
	return err
}

func (r *Repo) UpdateQty(ctx context.Context, userID, itemID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("invalid quantity %d", qty)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2`,
		itemID, userID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, itemID string) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
