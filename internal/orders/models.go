package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Address   string          `json:"address"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []ItemDetail    `json:"items,omitempty"`
}

type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Qty       int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"` // unit price at time of purchase
}

// ItemDetail is an order item joined with the product's display fields.
type ItemDetail struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Qty       int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}
