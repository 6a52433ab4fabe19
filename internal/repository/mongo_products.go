package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
)

// MongoProducts ProductRepository поверх коллекции products
type MongoProducts struct {
	collection *mongo.Collection
}

func NewMongoProducts(db *mongo.Database) *MongoProducts {
	return &MongoProducts{collection: db.Collection(ProductsCollection)}
}

var _ ProductRepository = (*MongoProducts)(nil)

func (m *MongoProducts) Create(ctx context.Context, p *domain.Product) error {
	p.ID = NewID()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if _, err := m.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (m *MongoProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (m *MongoProducts) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	cur, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	out := make([]domain.Product, 0, len(ids))
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return out, nil
}

func (m *MongoProducts) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":             p.Name,
		"description":      p.Description,
		"price":            p.Price,
		"images":           p.Images,
		"category":         p.Category,
		"subCategory":      p.SubCategory,
		"sizes":            p.Sizes,
		"color":            p.Color,
		"brand":            p.Brand,
		"material":         p.Material,
		"features":         p.Features,
		"careInstructions": p.CareInstructions,
		"tags":             p.Tags,
		"isOnSale":         p.IsOnSale,
		"salePrice":        p.SalePrice,
		"isNewArrival":     p.IsNewArrival,
		"isFeatured":       p.IsFeatured,
		"updatedAt":        p.UpdatedAt,
	}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview pipeline-обновление: reviews и ratings меняются на сервере, sizes не перезаписываются.
// Фильтр по reviews.user закрывает гонку двух отзывов одного пользователя.
func (m *MongoProducts) AddReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error) {
	filter := bson.M{"_id": id, "reviews.user": bson.M{"$ne": r.UserID}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": r}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"ratings.count":   bson.M{"$size": "$reviews"},
			"ratings.average": bson.M{"$avg": "$reviews.rating"},
			"updatedAt":       time.Now().UTC(),
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Product
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}

func (m *MongoProducts) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error) {
	f.Normalize()
	filter := productQuery(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(productSort(f.Sort)).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit))
	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	out := make([]domain.Product, 0, f.Limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}
	return out, total, nil
}

func (m *MongoProducts) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// DecrementStock одна условная операция: размер найден и остаток >= qty, иначе ничего не меняется
func (m *MongoProducts) DecrementStock(ctx context.Context, id string, size domain.Size, qty int) (bool, error) {
	filter := bson.M{
		"_id": id,
		"sizes": bson.M{"$elemMatch": bson.M{
			"size":     size,
			"quantity": bson.M{"$gte": qty},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"sizes.$.quantity": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (m *MongoProducts) IncrementStock(ctx context.Context, id string, size domain.Size, qty int) error {
	filter := bson.M{"_id": id, "sizes.size": size}
	update := bson.M{
		"$inc": bson.M{"sizes.$.quantity": qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func productQuery(f ProductFilter) bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.SubCategory != "" {
		q["subCategory"] = f.SubCategory
	}
	if f.Brand != "" {
		q["brand"] = exactFold(f.Brand)
	}
	if f.Color != "" {
		q["color.name"] = exactFold(f.Color)
	}
	if f.Size != "" {
		q["sizes.size"] = f.Size
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["price"] = price
	}
	return q
}

func productSort(sortBy string) bson.D {
	switch sortBy {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case SortRating:
		return bson.D{{Key: "ratings.average", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// exactFold регистронезависимое точное совпадение строки
func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}
