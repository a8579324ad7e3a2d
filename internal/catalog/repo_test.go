package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery_NoFilter(t *testing.T) {
	listSQL, countSQL, listArgs, countArgs := buildListQuery(Filter{})

	assert.NotContains(t, listSQL, "WHERE")
	assert.NotContains(t, countSQL, "WHERE")
	assert.Contains(t, listSQL, "ORDER BY p.id")
	assert.Contains(t, listSQL, "LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{12, 0}, listArgs) // default page 1, limit 12
	assert.Empty(t, countArgs)
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	minP := decimal.RequireFromString("10")
	maxP := decimal.RequireFromString("100")
	listSQL, countSQL, listArgs, countArgs := buildListQuery(Filter{
		CategoryID: "cat-electronics",
		MinPrice:   &minP,
		MaxPrice:   &maxP,
		Search:     "keyboard",
		Sort:       "price_desc",
		Page:       3,
		Limit:      20,
	})

	assert.Contains(t, listSQL, "p.category_id = $1")
	assert.Contains(t, listSQL, "p.price >= $2")
	assert.Contains(t, listSQL, "p.price <= $3")
	assert.Contains(t, listSQL, "p.name ILIKE $4 OR p.description ILIKE $4")
	assert.Contains(t, listSQL, "ORDER BY p.price DESC")
	assert.Contains(t, listSQL, "LIMIT $5 OFFSET $6")

	require.Len(t, listArgs, 6)
	assert.Equal(t, "cat-electronics", listArgs[0])
	assert.Equal(t, "%keyboard%", listArgs[3])
	assert.Equal(t, 20, listArgs[4])
	assert.Equal(t, 40, listArgs[5]) // (page-1)*limit

	// count query carries the same conditions but no paging
	assert.Contains(t, countSQL, "p.category_id = $1")
	assert.NotContains(t, countSQL, "LIMIT")
	assert.Len(t, countArgs, 4)
}

func TestBuildListQuery_Sorts(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"price_asc", "ORDER BY p.price ASC"},
		{"price_desc", "ORDER BY p.price DESC"},
		{"rating", "ORDER BY p.rating DESC"},
		{"newest", "ORDER BY p.created_at DESC"},
		{"", "ORDER BY p.id"},
		{"garbage", "ORDER BY p.id"},
	}
	for _, tt := range tests {
		listSQL, _, _, _ := buildListQuery(Filter{Sort: tt.sort})
		assert.Contains(t, listSQL, tt.want, "sort=%q", tt.sort)
	}
}

func TestBuildListQuery_PageFloor(t *testing.T) {
	_, _, listArgs, _ := buildListQuery(Filter{Page: -2, Limit: 0})
	assert.Equal(t, []any{12, 0}, listArgs)
}
