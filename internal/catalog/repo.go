package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shop/backend/internal/postgres"
	"github.com/shop/backend/internal/redisx"
)

var ErrNotFound = errors.New("product not found")

type Repo struct {
	DB    postgres.DB
	Redis *redis.Client
}

const productColumns = `p.id, p.name, p.description, p.price, p.old_price, p.image,
	p.category_id, c.name, p.stock, p.rating, p.review_count, p.created_at`

// buildListQuery turns a Filter into the listing query, its count twin, and
// their argument lists. Kept as a plain function so the SQL assembly is
// testable on its own.
func buildListQuery(f Filter) (listSQL, countSQL string, listArgs, countArgs []any) {
	var conds []string
	var args []any

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	order := " ORDER BY p.id"
	switch f.Sort {
	case "price_asc":
		order = " ORDER BY p.price ASC"
	case "price_desc":
		order = " ORDER BY p.price DESC"
	case "rating":
		order = " ORDER BY p.rating DESC"
	case "newest":
		order = " ORDER BY p.created_at DESC"
	}

	countArgs = append(countArgs, args...)
	countSQL = `SELECT COUNT(*) FROM products p` + where

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	args = append(args, limit, (page-1)*limit)
	listSQL = `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id` +
		where + order + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return listSQL, countSQL, args, countArgs
}

func (r *Repo) ListProducts(ctx context.Context, f Filter) (Page, error) {
	listSQL, countSQL, listArgs, countArgs := buildListQuery(f)

	var total int
	if err := r.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Page{}, err
	}

	rows, err := r.DB.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return Page{}, err
	}
	if products == nil {
		products = []Product{}
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}
	return Page{
		Products: products,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// GetProduct returns one product plus up to four others from the same category.
func (r *Repo) GetProduct(ctx context.Context, id string) (Product, []Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, nil, ErrNotFound
		}
		return Product{}, nil, err
	}

	if p.CategoryID == nil {
		return p, nil, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+`
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = $1 AND p.id <> $2 LIMIT 4`, *p.CategoryID, p.ID)
	if err != nil {
		return Product{}, nil, err
	}
	defer rows.Close()
	similar, err := scanProducts(rows)
	if err != nil {
		return Product{}, nil, err
	}
	return p, similar, nil
}

// ListCategories serves from the redis cache when it can; the database stays
// the source of truth.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	if r.Redis != nil {
		if s, err := r.Redis.Get(ctx, redisx.KeyCategories).Result(); err == nil && s != "" {
			var cached []Category
			if err := json.Unmarshal([]byte(s), &cached); err == nil {
				return cached, nil
			}
		}
	}

	rows, err := r.DB.Query(ctx, `SELECT id, name, image FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if r.Redis != nil {
		if b, err := json.Marshal(out); err == nil {
			_ = r.Redis.Set(ctx, redisx.KeyCategories, b, redisx.TTLCategories).Err()
		}
	}
	return out, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.OldPrice, &p.Image,
		&p.CategoryID, &p.CategoryName, &p.Stock, &p.Rating, &p.ReviewCount, &p.CreatedAt)
	return p, err
}
