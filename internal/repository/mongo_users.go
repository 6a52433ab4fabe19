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

// MongoUsers UserRepository поверх коллекции users; уникальность email держит индекс
type MongoUsers struct {
	collection *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{collection: db.Collection(UsersCollection)}
}

var _ UserRepository = (*MongoUsers)(nil)

func (m *MongoUsers) Create(ctx context.Context, u *domain.User) error {
	u.ID = NewID()
	u.Email = domain.NormalizeEmail(u.Email)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := m.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (m *MongoUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (m *MongoUsers) Update(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUsers) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUsers) List(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]domain.User, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return out, nil
}

func (m *MongoUsers) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{"role": role})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (m *MongoUsers) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := m.collection.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
