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

// MongoCarts CartRepository поверх коллекции carts с ключом по пользователю
type MongoCarts struct {
	collection *mongo.Collection
}

func NewMongoCarts(db *mongo.Database) *MongoCarts {
	return &MongoCarts{collection: db.Collection(CartsCollection)}
}

var _ CartRepository = (*MongoCarts)(nil)

func (m *MongoCarts) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := m.collection.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// Save upsert корзины пользователя; id и createdAt выставляются только при вставке
func (m *MongoCarts) Save(ctx context.Context, c *domain.Cart) error {
	now := time.Now().UTC()
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	update := bson.M{
		"$set": bson.M{
			"items":       items,
			"totalAmount": c.TotalAmount,
			"totalItems":  c.TotalItems,
			"updatedAt":   now,
		},
		"$inc": bson.M{"version": 1},
		"$setOnInsert": bson.M{
			"_id":       NewID(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"user": c.UserID}, update, opts).Decode(&saved)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	c.ID = saved.ID
	c.CreatedAt = saved.CreatedAt
	c.UpdatedAt = saved.UpdatedAt
	c.Version = saved.Version
	return nil
}
