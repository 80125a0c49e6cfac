// Package messaging provides message queue adapters.
package messaging

import (
	"context"
	"fmt"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"
	"chatbot_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Stream names
const (
	StreamInteraction = "chat:interaction"
)

// defaultStreamMaxLen caps the interaction stream; consumers persist
// entries long before trimming reaches them.
const defaultStreamMaxLen = 100_000

// RedisProducer implements out.InteractionPublisher using Redis Streams.
type RedisProducer struct {
	client *redis.Client
	maxLen int64
}

// NewRedisProducer creates a new RedisProducer.
func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client, maxLen: defaultStreamMaxLen}
}

// PublishInteraction publishes a served interaction for storage.
func (p *RedisProducer) PublishInteraction(ctx context.Context, it *domain.Interaction) error {
	return p.publish(ctx, StreamInteraction, it)
}

// publish publishes a job to a stream using go-redis.
func (p *RedisProducer) publish(ctx context.Context, stream string, job any) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return apperr.ExternalError("redis stream "+stream, err)
	}

	return nil
}

// Ensure RedisProducer implements out.InteractionPublisher
var _ out.InteractionPublisher = (*RedisProducer)(nil)

// =============================================================================
// Direct publisher
// =============================================================================

// DirectPublisher writes interactions straight to the repository. It is
// used when no stream broker is configured.
type DirectPublisher struct {
	repo out.InteractionRepository
}

// NewDirectPublisher creates a publisher that bypasses the stream.
func NewDirectPublisher(repo out.InteractionRepository) *DirectPublisher {
	return &DirectPublisher{repo: repo}
}

// PublishInteraction stores it synchronously.
func (p *DirectPublisher) PublishInteraction(ctx context.Context, it *domain.Interaction) error {
	return p.repo.Save(ctx, it)
}

var _ out.InteractionPublisher = (*DirectPublisher)(nil)

// FallbackPublisher tries the primary publisher and falls back to the
// secondary when it fails, so interactions survive a broker outage.
type FallbackPublisher struct {
	primary   out.InteractionPublisher
	secondary out.InteractionPublisher
	log       *logger.Logger
}

// NewFallbackPublisher chains two publishers.
func NewFallbackPublisher(primary, secondary out.InteractionPublisher) *FallbackPublisher {
	return &FallbackPublisher{
		primary:   primary,
		secondary: secondary,
		log:       logger.WithField("component", "interaction_publisher"),
	}
}

// PublishInteraction implements out.InteractionPublisher.
func (p *FallbackPublisher) PublishInteraction(ctx context.Context, it *domain.Interaction) error {
	err := p.primary.PublishInteraction(ctx, it)
	if err == nil {
		return nil
	}
	p.log.WithError(err).Warn("stream publish failed, storing interaction directly")
	if err2 := p.secondary.PublishInteraction(ctx, it); err2 != nil {
		return fmt.Errorf("publish interaction: %w (fallback: %v)", err, err2)
	}
	return nil
}
