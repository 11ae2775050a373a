package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/estatehub/backend/internal/apperr"
	"github.com/ayush/estatehub/backend/internal/listing"
	"github.com/ayush/estatehub/backend/internal/models"
)

// MongoListingStore handles listing CRUD and search in MongoDB.
type MongoListingStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoListingStore(db *mongo.Database) *MongoListingStore {
	return &MongoListingStore{col: db.Collection("listings"), now: time.Now}
}

// EnsureIndexes creates the owner and default-sort indexes.
func (s *MongoListingStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userRef", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo listings index: %w", err)
	}
	return nil
}

func (s *MongoListingStore) Insert(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	now := s.now().UTC()
	l.ID = primitive.NilObjectID
	l.CreatedAt = now
	l.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, l)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo insert listing: %w", err))
	}
	l.ID = res.InsertedID.(primitive.ObjectID)
	return l, nil
}

func (s *MongoListingStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "Listing not found!", err)
	}
	var l models.Listing
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Wrap(apperr.NotFound, "Listing not found!", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo find listing: %w", err))
	}
	return &l, nil
}

// Update overwrites the editable fields of listing id. Owner and creation
// time are never changed.
func (s *MongoListingStore) Update(ctx context.Context, id string, l *models.Listing) (*models.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "Listing not found!", err)
	}

	set := bson.M{
		"name":         l.Name,
		"description":  l.Description,
		"address":      l.Address,
		"regularPrice": l.RegularPrice,
		"bathrooms":    l.Bathrooms,
		"bedrooms":     l.Bedrooms,
		"furnished":    l.Furnished,
		"parking":      l.Parking,
		"offer":        l.Offer,
		"type":         l.Type,
		"imageUrls":    l.ImageURLs,
		"updatedAt":    s.now().UTC(),
	}
	update := bson.M{"$set": set}
	if l.DiscountedPrice != nil {
		set["discountedPrice"] = *l.DiscountedPrice
	} else {
		update["$unset"] = bson.M{"discountedPrice": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Listing
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Wrap(apperr.NotFound, "Listing not found!", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo update listing: %w", err))
	}
	return &out, nil
}

func (s *MongoListingStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "Listing not found!", err)
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo delete listing: %w", err))
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.NotFound, "Listing not found!")
	}
	return nil
}

// DeleteByUser removes every listing owned by userRef.
func (s *MongoListingStore) DeleteByUser(ctx context.Context, userRef string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"userRef": userRef})
	if err != nil {
		return 0, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo delete listings: %w", err))
	}
	return res.DeletedCount, nil
}

func (s *MongoListingStore) ListByUser(ctx context.Context, userRef string) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.find(ctx, bson.M{"userRef": userRef}, opts)
}

// Search runs a translated search query.
func (s *MongoListingStore) Search(ctx context.Context, q listing.Query) ([]models.Listing, error) {
	return s.find(ctx, q.Filter, q.FindOptions())
}

func (s *MongoListingStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Listing, error) {
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo find listings: %w", err))
	}
	defer cur.Close(ctx)

	listings := []models.Listing{}
	if err := cur.All(ctx, &listings); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo decode listings: %w", err))
	}
	return listings, nil
}
