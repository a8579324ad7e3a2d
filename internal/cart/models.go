package cart

import "github.com/shopspring/decimal"

type Item struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	ProductID string `json:"product_id"`
	Qty       int    `json:"quantity"`
}

// Line is a cart item joined with the product fields the storefront renders.
type Line struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	OldPrice  *decimal.Decimal `json:"old_price,omitempty"`
	Image     string           `json:"image"`
	Stock     int              `json:"stock"`
	Qty       int              `json:"quantity"`
}
