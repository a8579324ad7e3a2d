package redisx

import "time"

const (
	// Cache order status: order_status:{user_id}:{order_id} -> {"status":"..."}
	// The key carries the owner so a cached entry can never answer for
	// someone else's order.
	KeyOrderStatus = "order_status:%s:%s"

	// Cache the category list (it changes rarely): catalog:categories
	KeyCategories = "catalog:categories"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLCategories  = 10 * time.Minute
	TTLDedup       = 48 * time.Hour
)
