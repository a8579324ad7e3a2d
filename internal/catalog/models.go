package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	OldPrice     *decimal.Decimal `json:"old_price,omitempty"`
	Image        string           `json:"image"`
	CategoryID   *string          `json:"category_id,omitempty"`
	CategoryName *string          `json:"category_name,omitempty"`
	Stock        int              `json:"stock"`
	Rating       decimal.Decimal  `json:"rating"`
	ReviewCount  int              `json:"review_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Filter narrows and orders a product listing. Zero values mean "no filter".
type Filter struct {
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Sort       string // price_asc | price_desc | rating | newest
	Page       int
	Limit      int
}

type Page struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
