package worker

import (
	"context"
	"errors"
	"testing"

	"chatbot_server/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	saved []*domain.Interaction
	err   error
}

func (m *memRepo) Save(_ context.Context, it *domain.Interaction) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, it)
	return nil
}
func (m *memRepo) List(context.Context, func(*domain.Interaction) error) error { return nil }
func (m *memRepo) Count(context.Context) (int64, error)                         { return int64(len(m.saved)), nil }

func TestInteractionProcessor_Handle(t *testing.T) {
	repo := &memRepo{}
	p := NewInteractionProcessor(repo, zerolog.Nop())

	it := domain.NewInteraction("where is order 12345", domain.IntentGetOrder, domain.SentimentNeutral)
	data, err := json.Marshal(it)
	require.NoError(t, err)

	require.NoError(t, p.Handle(context.Background(), "chat:interaction", data))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, it.ID, repo.saved[0].ID)
	assert.Equal(t, domain.IntentGetOrder, repo.saved[0].Intent)

	processed, skipped := p.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Zero(t, skipped)
}

func TestInteractionProcessor_FillsDefaults(t *testing.T) {
	repo := &memRepo{}
	p := NewInteractionProcessor(repo, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), "s", []byte(`{"text":"love it","intent":"positive_feedback","sentiment":"ecstatic"}`)))
	require.Len(t, repo.saved, 1)
	got := repo.saved[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, domain.SentimentNeutral, got.Sentiment)
}

func TestInteractionProcessor_SkipsBadPayloads(t *testing.T) {
	repo := &memRepo{}
	p := NewInteractionProcessor(repo, zerolog.Nop())

	assert.NoError(t, p.Handle(context.Background(), "s", []byte("not json")))
	assert.NoError(t, p.Handle(context.Background(), "s", []byte(`{"text":"   "}`)))
	assert.Empty(t, repo.saved)

	_, skipped := p.Stats()
	assert.Equal(t, int64(2), skipped)
}

func TestInteractionProcessor_StorageErrorIsRetried(t *testing.T) {
	p := NewInteractionProcessor(&memRepo{err: errors.New("mongo down")}, zerolog.Nop())
	err := p.Handle(context.Background(), "s", []byte(`{"text":"refund please","intent":"refund"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo down")
}
