package out

import (
	"context"

	"chatbot_server/core/domain"
)

// InteractionRepository defines the outbound port for the interaction log.
type InteractionRepository interface {
	Save(ctx context.Context, it *domain.Interaction) error
	// List streams every stored interaction to fn in insertion order.
	// Iteration stops at the first error returned by fn.
	List(ctx context.Context, fn func(*domain.Interaction) error) error
	Count(ctx context.Context) (int64, error)
}

// InteractionPublisher hands served interactions off for asynchronous storage.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, it *domain.Interaction) error
}
