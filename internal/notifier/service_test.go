package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	kafkax "github.com/shop/backend/internal/kafka"
	"github.com/shop/backend/internal/orders"
)

func newService(core zapcore.Core) *Service {
	return &Service{
		// unreachable on purpose: dedup degrades to best-effort in tests
		Redis:       redis.NewClient(&redis.Options{Addr: "localhost:1"}),
		Log:         zap.New(core),
		ServiceName: "test-notifier",
	}
}

func TestHandleOrderCreated(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	svc := newService(core)

	env := orders.Envelope{
		EventID:       "ev-1",
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "storefront-api",
		CorrelationID: "order-1",
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID: "order-1",
			UserID:  "user-1",
			Items:   []orders.ItemPrice{{ProductID: "prod-a", Qty: 2, Price: decimal.RequireFromString("100")}},
			Total:   decimal.RequireFromString("200"),
		}),
	}

	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)

	logs := recorded.FilterMessage("order confirmation").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "order-1", logs[0].ContextMap()["order_id"])
	assert.Equal(t, "200", logs[0].ContextMap()["total"])
}

func TestHandleOrderCreated_IgnoresOtherEvents(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	svc := newService(core)

	env := orders.Envelope{EventID: "ev-2", EventType: "SomethingElse", Payload: []byte(`{}`)}
	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
	assert.Empty(t, recorded.All())
}

func TestHandleOrderCreated_BadPayload(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	svc := newService(core)

	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: []byte(`{not json`)})
	assert.Error(t, err)
}
