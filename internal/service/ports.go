package service

import (
	"context"
	"time"

	"po-manager/internal/models"
	"po-manager/internal/store"

	"github.com/google/uuid"
)

// Repository is the datastore the services run against
type Repository interface {
	store.Querier
	WithTx(ctx context.Context, fn func(ctx context.Context, q store.Querier) error) error
}

// EventPublisher publishes domain events once a change is committed
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, orderID int64, event interface{}) error
	PublishSupplierEvent(ctx context.Context, supplierID int64, event interface{}) error
	PublishUserEvent(ctx context.Context, userID int64, event interface{}) error
}

// IdempotencyStore remembers which resource a client key produced
type IdempotencyStore interface {
	GetIdempotentResult(ctx context.Context, scope, key string) (int64, bool, error)
	SetIdempotentResult(ctx context.Context, scope, key string, id int64, ttl time.Duration) error
}

type actorKey struct{}

// WithActor attaches the acting user's id to ctx for audit attribution
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user's id, or 0 if none was attached
func ActorFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(actorKey{}).(int64)
	return id
}

func newBaseEvent(ctx context.Context, eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		ActorID:   ActorFromContext(ctx),
	}
}
