// Package chat turns a customer message into a reply: classification,
// order lookup and interaction logging.
package chat

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/in"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"
	"chatbot_server/pkg/logger"
	"chatbot_server/pkg/resilience"

	"gopkg.in/yaml.v3"
)

//go:embed replies.yaml
var defaultReplies []byte

// Replies holds the reply templates.
type Replies struct {
	Fallback       string            `yaml:"fallback"`
	MissingOrderID string            `yaml:"missing_order_id"`
	OrderNotFound  string            `yaml:"order_not_found"`
	LookupFailed   string            `yaml:"lookup_failed"`
	Intents        map[string]string `yaml:"intents"`
}

// DefaultReplies returns the built-in templates.
func DefaultReplies() (*Replies, error) {
	var r Replies
	if err := yaml.Unmarshal(defaultReplies, &r); err != nil {
		return nil, fmt.Errorf("parse built-in replies: %w", err)
	}
	return &r, nil
}

// LoadReplies layers a YAML file over the built-in templates.
func LoadReplies(path string) (*Replies, error) {
	r, err := DefaultReplies()
	if err != nil || path == "" {
		return r, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replies %s: %w", path, err)
	}
	var override Replies
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse replies %s: %w", path, err)
	}
	if override.Fallback != "" {
		r.Fallback = override.Fallback
	}
	if override.MissingOrderID != "" {
		r.MissingOrderID = override.MissingOrderID
	}
	if override.OrderNotFound != "" {
		r.OrderNotFound = override.OrderNotFound
	}
	if override.LookupFailed != "" {
		r.LookupFailed = override.LookupFailed
	}
	for intent, reply := range override.Intents {
		r.Intents[intent] = reply
	}
	return r, nil
}

func fill(template string, orderID int64) string {
	return strings.ReplaceAll(template, "{order_id}", strconv.FormatInt(orderID, 10))
}

// =============================================================================
// Order id extraction
// =============================================================================

var (
	numberPattern   = regexp.MustCompile(`\b\d+\b`)
	fiveDigitNumber = regexp.MustCompile(`\b\d{5}\b`)
	orderWord       = regexp.MustCompile(`(?i)\border\b`)
)

// ExtractOrderID returns the first standalone number in message.
func ExtractOrderID(message string) (int64, bool) {
	m := numberPattern.FindString(message)
	if m == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// forcedOrderID reports a five-digit number in a message that mentions an
// order; such messages are order lookups regardless of the classifier.
func forcedOrderID(message string) (int64, bool) {
	if !orderWord.MatchString(message) {
		return 0, false
	}
	m := fiveDigitNumber.FindString(message)
	if m == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(m, 10, 64)
	return id, err == nil
}

// =============================================================================
// Service
// =============================================================================

// Predictor is the classification dependency of the chat service.
type Predictor interface {
	PredictIntent(text string) domain.Intent
	PredictSentiment(text string) domain.Sentiment
}

// Deps holds the service collaborators. Orders and Publisher may be nil.
type Deps struct {
	Predictor Predictor
	Orders    out.OrderRepository
	Publisher out.InteractionPublisher
	Breaker   *resilience.Breaker
	Replies   *Replies
}

// Config tunes the chat service.
type Config struct {
	LookupTimeout  time.Duration
	PublishTimeout time.Duration
}

// Service implements in.ChatService.
type Service struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
}

var _ in.ChatService = (*Service)(nil)

// NewService creates the chat service.
func NewService(deps Deps, cfg Config) (*Service, error) {
	if deps.Predictor == nil {
		return nil, errors.New("chat: predictor is required")
	}
	if deps.Replies == nil {
		r, err := DefaultReplies()
		if err != nil {
			return nil, err
		}
		deps.Replies = r
	}
	if deps.Breaker == nil {
		cb := resilience.DefaultBreakerConfig("order-lookup")
		cb.Benign = func(err error) bool { return errors.Is(err, out.ErrOrderNotFound) }
		deps.Breaker = resilience.NewBreaker(cb)
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 3 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Service{deps: deps, cfg: cfg, log: logger.WithField("component", "chat")}, nil
}

// Predict classifies message and extracts its order number.
func (s *Service) Predict(ctx context.Context, message string) (*in.Prediction, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperr.MissingField("message")
	}
	p := &in.Prediction{
		Intent:    s.deps.Predictor.PredictIntent(message),
		Sentiment: s.deps.Predictor.PredictSentiment(message),
	}
	if id, ok := forcedOrderID(message); ok {
		p.Intent = domain.IntentGetOrder
		p.OrderID = &id
		return p, nil
	}
	if id, ok := ExtractOrderID(message); ok {
		p.OrderID = &id
	}
	return p, nil
}

// Reply answers message and logs the interaction in the background.
func (s *Service) Reply(ctx context.Context, message string) (*in.ChatReply, error) {
	p, err := s.Predict(ctx, message)
	if err != nil {
		return nil, err
	}
	reply := &in.ChatReply{Prediction: *p, Reply: s.compose(ctx, p)}
	s.publish(ctx, domain.NewInteraction(message, p.Intent, p.Sentiment))
	return reply, nil
}

func (s *Service) compose(ctx context.Context, p *in.Prediction) string {
	r := s.deps.Replies
	if p.Intent == domain.IntentGetOrder {
		if p.OrderID == nil {
			return r.MissingOrderID
		}
		return s.orderReply(ctx, *p.OrderID)
	}
	if text, ok := r.Intents[p.Intent.String()]; ok && text != "" {
		return text
	}
	return r.Fallback
}

func (s *Service) orderReply(ctx context.Context, id int64) string {
	r := s.deps.Replies
	if s.deps.Orders == nil {
		return fill(r.LookupFailed, id)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()

	order, err := resilience.Do(s.deps.Breaker, func() (*domain.Order, error) {
		return s.deps.Orders.GetByNumber(ctx, id)
	})
	switch {
	case errors.Is(err, out.ErrOrderNotFound):
		return fill(r.OrderNotFound, id)
	case err != nil:
		failure := lookupFailure(err)
		s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"order_number": id,
			"error_code":   failure.Code,
		}).Warn("order lookup failed")
		return fill(r.LookupFailed, id)
	case order == nil:
		return fill(r.OrderNotFound, id)
	}
	return FormatOrder(order)
}

// lookupFailure classifies a failed order lookup for the logs.
func lookupFailure(err error) *apperr.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("order lookup", err)
	}
	return apperr.AsAppError(err)
}

// FormatOrder renders an order for the customer.
func FormatOrder(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %d\n", o.OrderNumber)
	fmt.Fprintf(&b, "Status: %s\n", o.Status)
	fmt.Fprintf(&b, "Items: %s\n", strings.Join(o.Items, ", "))
	fmt.Fprintf(&b, "Total: $%s\n", strconv.FormatFloat(o.Total, 'f', -1, 64))
	fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Address: %s\n", o.Address)
	fmt.Fprintf(&b, "Order Date: %s", o.OrderDate)
	return b.String()
}

// publish hands the interaction off without blocking the reply. The
// request context is detached so logging survives the response.
func (s *Service) publish(ctx context.Context, it *domain.Interaction) {
	if s.deps.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PublishTimeout)
	go func() {
		defer cancel()
		if err := s.deps.Publisher.PublishInteraction(ctx, it); err != nil {
			s.log.WithError(err).WithField("interaction_id", it.ID.String()).Warn("failed to log interaction")
		}
	}()
}
