// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"
	"errors"

	"chatbot_server/core/domain"
)

// ErrOrderNotFound is returned when no order matches the requested number.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the outbound port for order lookups.
type OrderRepository interface {
	GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error)
}
