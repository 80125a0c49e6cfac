// Package worker consumes background jobs produced by the API process.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"chatbot_server/adapter/out/messaging"
	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InteractionProcessor persists interactions read from the interaction stream.
type InteractionProcessor struct {
	repo        out.InteractionRepository
	saveTimeout time.Duration
	log         zerolog.Logger

	processed atomic.Int64
	skipped   atomic.Int64
}

// NewInteractionProcessor creates a processor.
func NewInteractionProcessor(repo out.InteractionRepository, log zerolog.Logger) *InteractionProcessor {
	return &InteractionProcessor{repo: repo, saveTimeout: 10 * time.Second, log: log}
}

// Handle implements messaging.JobHandler. Malformed payloads are logged and
// acknowledged; storage errors are returned so the message is retried.
func (p *InteractionProcessor) Handle(ctx context.Context, stream string, data []byte) error {
	var it domain.Interaction
	if err := json.Unmarshal(data, &it); err != nil {
		p.skipped.Add(1)
		p.log.Warn().Err(err).Str("stream", stream).Msg("dropping malformed interaction")
		return nil
	}
	if strings.TrimSpace(it.Text) == "" {
		p.skipped.Add(1)
		return nil
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now().UTC()
	}
	it.Sentiment = domain.CoerceSentiment(it.Sentiment.String())

	ctx, cancel := context.WithTimeout(ctx, p.saveTimeout)
	defer cancel()
	if err := p.repo.Save(ctx, &it); err != nil {
		return fmt.Errorf("save interaction %s: %w", it.ID, err)
	}
	p.processed.Add(1)
	p.log.Debug().Str("id", it.ID.String()).Str("intent", it.Intent.String()).Msg("interaction stored")
	return nil
}

// Stats returns processed and skipped message counts.
func (p *InteractionProcessor) Stats() (processed, skipped int64) {
	return p.processed.Load(), p.skipped.Load()
}

var _ messaging.JobHandler = (*InteractionProcessor)(nil)
