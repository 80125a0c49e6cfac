package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// unreachableDB returns a database handle whose server never answers.
func unreachableDB(t *testing.T) *mongo.Database {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("chatbot_test")
}

func TestOrderAdapter_StoreFailureIsDatabaseError(t *testing.T) {
	orders := NewOrderAdapter(unreachableDB(t))

	_, err := orders.GetByNumber(context.Background(), 45821)
	require.Error(t, err)
	assert.False(t, errors.Is(err, out.ErrOrderNotFound))
	assert.Equal(t, apperr.CodeDatabaseError, apperr.AsAppError(err).Code)

	err = orders.Upsert(context.Background(), &domain.Order{OrderNumber: 45821, OrderDate: "2024-01-02"})
	assert.Equal(t, apperr.CodeDatabaseError, apperr.AsAppError(err).Code)
}

func TestInteractionAdapter_StoreFailureIsDatabaseError(t *testing.T) {
	interactions := NewInteractionAdapter(unreachableDB(t))

	_, err := interactions.Count(context.Background())
	assert.Equal(t, apperr.CodeDatabaseError, apperr.AsAppError(err).Code)

	err = interactions.List(context.Background(), func(*domain.Interaction) error { return nil })
	assert.Equal(t, apperr.CodeDatabaseError, apperr.AsAppError(err).Code)
}
