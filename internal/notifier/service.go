package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/shop/backend/internal/kafka"
	"github.com/shop/backend/internal/orders"
	"github.com/shop/backend/internal/redisx"
)

// Service consumes order.created events and dispatches order confirmations.
// TODO: wire an actual email provider; for now the confirmation is logged.
type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup on event_id so redeliveries don't double-send
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.Log.Info("order confirmation",
		zap.String("service", s.ServiceName),
		zap.String("order_id", p.OrderID),
		zap.String("user_id", p.UserID),
		zap.Int("items", len(p.Items)),
		zap.String("total", p.Total.String()),
	)
	return nil
}
