package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/pkg/apperr"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	err  error
	seen []*domain.Interaction
}

func (r *recordingPublisher) PublishInteraction(_ context.Context, it *domain.Interaction) error {
	r.seen = append(r.seen, it)
	return r.err
}

type memRepo struct{ saved []*domain.Interaction }

func (m *memRepo) Save(_ context.Context, it *domain.Interaction) error {
	m.saved = append(m.saved, it)
	return nil
}
func (m *memRepo) List(context.Context, func(*domain.Interaction) error) error { return nil }
func (m *memRepo) Count(context.Context) (int64, error)                         { return int64(len(m.saved)), nil }

func TestFallbackPublisher(t *testing.T) {
	it := domain.NewInteraction("where is my order", domain.IntentGetOrder, domain.SentimentNeutral)

	t.Run("primary succeeds", func(t *testing.T) {
		primary, secondary := &recordingPublisher{}, &recordingPublisher{}
		require.NoError(t, NewFallbackPublisher(primary, secondary).PublishInteraction(context.Background(), it))
		assert.Len(t, primary.seen, 1)
		assert.Empty(t, secondary.seen)
	})

	t.Run("falls back to direct storage", func(t *testing.T) {
		repo := &memRepo{}
		primary := &recordingPublisher{err: errors.New("redis down")}
		require.NoError(t, NewFallbackPublisher(primary, NewDirectPublisher(repo)).PublishInteraction(context.Background(), it))
		require.Len(t, repo.saved, 1)
		assert.Equal(t, it.ID, repo.saved[0].ID)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &recordingPublisher{err: errors.New("redis down")}
		secondary := &recordingPublisher{err: errors.New("mongo down")}
		err := NewFallbackPublisher(primary, secondary).PublishInteraction(context.Background(), it)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis down")
		assert.Contains(t, err.Error(), "mongo down")
	})
}

func TestRedisProducer_BrokerFailureIsExternalError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	it := domain.NewInteraction("hello", domain.IntentGreeting, domain.SentimentPositive)
	err := NewRedisProducer(client).PublishInteraction(context.Background(), it)
	require.Error(t, err)
	appErr := apperr.AsAppError(err)
	assert.Equal(t, apperr.CodeExternalError, appErr.Code)
	assert.Equal(t, "redis stream "+StreamInteraction, appErr.Details["service"])
}
