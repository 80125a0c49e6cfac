package mongodb

import (
	"context"
	"errors"
	"fmt"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionOrders = "orders"

// OrderAdapter implements out.OrderRepository using MongoDB.
type OrderAdapter struct {
	collection *mongo.Collection
}

var _ out.OrderRepository = (*OrderAdapter)(nil)

// NewOrderAdapter creates a new MongoDB order adapter.
func NewOrderAdapter(db *mongo.Database) *OrderAdapter {
	return &OrderAdapter{collection: db.Collection(collectionOrders)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *OrderAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := a.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// orderDocument mirrors the documents the storefront writes.
type orderDocument struct {
	OrderNumber  int64    `bson:"orderNumber"`
	Status       string   `bson:"status"`
	Items        []string `bson:"items"`
	Total        float64  `bson:"total"`
	CustomerName string   `bson:"customerName"`
	Address      string   `bson:"address"`
	OrderDate    string   `bson:"orderDate"`
}

// GetByNumber retrieves an order by its customer-facing number.
func (a *OrderAdapter) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	var doc orderDocument
	err := a.collection.FindOne(ctx, bson.M{"orderNumber": orderNumber}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, out.ErrOrderNotFound
		}
		return nil, apperr.DatabaseError(fmt.Sprintf("get order %d", orderNumber), err)
	}
	return doc.toDomain(), nil
}

// Upsert stores an order, replacing any order with the same number.
func (a *OrderAdapter) Upsert(ctx context.Context, o *domain.Order) error {
	_, err := a.collection.ReplaceOne(ctx, bson.M{"orderNumber": o.OrderNumber}, fromOrder(o), options.Replace().SetUpsert(true))
	if err != nil {
		return apperr.DatabaseError(fmt.Sprintf("save order %d", o.OrderNumber), err)
	}
	return nil
}

func (d *orderDocument) toDomain() *domain.Order {
	return &domain.Order{
		OrderNumber:  d.OrderNumber,
		Status:       d.Status,
		Items:        d.Items,
		Total:        d.Total,
		CustomerName: d.CustomerName,
		Address:      d.Address,
		OrderDate:    d.OrderDate,
	}
}

func fromOrder(o *domain.Order) *orderDocument {
	return &orderDocument{
		OrderNumber:  o.OrderNumber,
		Status:       o.Status,
		Items:        o.Items,
		Total:        o.Total,
		CustomerName: o.CustomerName,
		Address:      o.Address,
		OrderDate:    o.OrderDate,
	}
}
