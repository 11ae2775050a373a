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
	"github.com/ayush/estatehub/backend/internal/models"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Avatar    string             `bson:"avatar"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		Avatar:    d.Avatar,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoUserStore is the credential store backed by the "users" collection.
type MongoUserStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users"), now: time.Now}
}

// EnsureIndexes creates the unique email index.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	return nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo find user: %w", err))
	}
	return doc.toModel(), nil
}

func (s *MongoUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u.Email == "" || u.Password == "" {
		return nil, apperr.New(apperr.Validation, "email and password are required")
	}

	now := s.now().UTC()
	doc := userDoc{
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		Avatar:    u.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, apperr.Wrap(apperr.DuplicateEmail, "Email already exists!", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo insert user: %w", err))
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

// UpdateByID applies only the fields set in upd and returns the new record.
func (s *MongoUserStore) UpdateByID(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return s.FindByID(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	}

	set := bson.M{"updatedAt": s.now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Password != nil {
		set["password"] = *upd.Password
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, apperr.Wrap(apperr.NotFound, "User not found!", err)
	case mongo.IsDuplicateKeyError(err):
		return nil, apperr.Wrap(apperr.DuplicateEmail, "Email already exists!", err)
	case err != nil:
		return nil, apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo update user: %w", err))
	}
	return doc.toModel(), nil
}

func (s *MongoUserStore) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "User not found!", err)
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Wrap(apperr.Upstream, "database error", fmt.Errorf("mongo delete user: %w", err))
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.NotFound, "User not found!")
	}
	return nil
}
