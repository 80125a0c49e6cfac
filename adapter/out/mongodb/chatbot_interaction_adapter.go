package mongodb

import (
	"context"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Interaction Adapter
// =============================================================================

const collectionInteractions = "user_interactions"

// InteractionAdapter implements out.InteractionRepository using MongoDB.
type InteractionAdapter struct {
	collection *mongo.Collection
}

var _ out.InteractionRepository = (*InteractionAdapter)(nil)

// NewInteractionAdapter creates a new MongoDB interaction adapter.
func NewInteractionAdapter(db *mongo.Database) *InteractionAdapter {
	return &InteractionAdapter{collection: db.Collection(collectionInteractions)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *InteractionAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "intent", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type interactionDocument struct {
	ID        string    `bson:"id"`
	Text      string    `bson:"text"`
	Intent    string    `bson:"intent"`
	Sentiment string    `bson:"sentiment"`
	Timestamp time.Time `bson:"timestamp"`
}

// Save stores an interaction. Redelivered stream messages overwrite the
// earlier copy instead of duplicating it.
func (a *InteractionAdapter) Save(ctx context.Context, it *domain.Interaction) error {
	doc := interactionDocument{
		ID:        it.ID.String(),
		Text:      it.Text,
		Intent:    it.Intent.String(),
		Sentiment: it.Sentiment.String(),
		Timestamp: it.Timestamp,
	}
	_, err := a.collection.ReplaceOne(ctx, bson.M{"id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperr.DatabaseError("save interaction", err)
	}
	return nil
}

// List streams every interaction in timestamp order.
func (a *InteractionAdapter) List(ctx context.Context, fn func(*domain.Interaction) error) error {
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetBatchSize(500)
	cursor, err := a.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return apperr.DatabaseError("list interactions", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc interactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return apperr.DatabaseError("decode interaction", err)
		}
		if err := fn(doc.toDomain()); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// Count returns the number of stored interactions.
func (a *InteractionAdapter) Count(ctx context.Context) (int64, error) {
	n, err := a.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.DatabaseError("count interactions", err)
	}
	return n, nil
}

func (d *interactionDocument) toDomain() *domain.Interaction {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		id = uuid.Nil
	}
	return &domain.Interaction{
		ID:        id,
		Text:      d.Text,
		Intent:    domain.NormalizeIntent(d.Intent),
		Sentiment: domain.CoerceSentiment(d.Sentiment),
		Timestamp: d.Timestamp,
	}
}
