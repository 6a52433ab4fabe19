package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
)

// MongoOrders OrderRepository поверх коллекции orders
type MongoOrders struct {
	collection *mongo.Collection
}

func NewMongoOrders(db *mongo.Database) *MongoOrders {
	return &MongoOrders{collection: db.Collection(OrdersCollection)}
}

var _ OrderRepository = (*MongoOrders)(nil)

func (m *MongoOrders) Create(ctx context.Context, o *domain.Order) error {
	o.ID = NewID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	o.Version = 1
	o.RecalculateTotal()
	if _, err := m.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// Update ReplaceOne с фильтром по версии: запись поверх чужого изменения не проходит
func (m *MongoOrders) Update(ctx context.Context, o *domain.Order) error {
	prev, prevUpdated := o.Version, o.UpdatedAt
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	o.RecalculateTotal()
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": o.ID, "version": prev}, o)
	if err == nil && res.MatchedCount == 1 {
		return nil
	}
	o.Version, o.UpdatedAt = prev, prevUpdated
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": o.ID})
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (m *MongoOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.find(ctx, bson.M{"user": userID})
}

func (m *MongoOrders) List(ctx context.Context) ([]domain.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrders) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (m *MongoOrders) DeliveredRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": domain.OrderStatusDelivered}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	}
	cur, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (m *MongoOrders) CreatedSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	return m.find(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (m *MongoOrders) TopSelling(ctx context.Context, limit int) ([]ProductSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": domain.OrderStatusDelivered}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.product",
			"totalSold": bson.M{"$sum": "$items.quantity"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalSold", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products: %w", err)
	}
	out := make([]ProductSales, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode top products: %w", err)
	}
	return out, nil
}

func (m *MongoOrders) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	out := make([]domain.Order, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return out, nil
}
