package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/account-service/internal/core/domain"
)

const usersCollection = "users"

// IdentityRepository implements ports.IdentityRepository on MongoDB. Driver
// failures never leave this type unwrapped.
type IdentityRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewIdentityRepository returns a repository whose calls are each bounded by
// timeout (defaultTimeout when <= 0).
func NewIdentityRepository(db *mongo.Database, timeout time.Duration) *IdentityRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &IdentityRepository{coll: db.Collection(usersCollection), timeout: timeout}
}

type mongoIdentity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoIdentity{
		Username:     identity.Username,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Role:         string(identity.Role),
		CreatedAt:    identity.CreatedAt.Unix(),
		UpdatedAt:    identity.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, domain.ServerFault(fmt.Errorf("insert identity: %w", err))
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return toIdentity(doc), nil
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) UpdateByID(ctx context.Context, id string, patch domain.IdentityPatch) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NotFound(domain.MsgUserNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoIdentity
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, patchUpdate(patch, time.Now().UTC()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(domain.MsgUserNotFound)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, domain.ServerFault(fmt.Errorf("update identity: %w", err))
	}
	return toIdentity(doc), nil
}

// EnsureIndexes creates the unique indexes the gateway relies on to report
// duplicates as validation failures.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoIdentity
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(domain.MsgUserNotFound)
		}
		return nil, domain.ServerFault(fmt.Errorf("find identity: %w", err))
	}
	return toIdentity(doc), nil
}

func patchUpdate(patch domain.IdentityPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now.Unix()}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		set["password_hash"] = *patch.PasswordHash
	}
	if patch.Role != nil {
		set["role"] = string(*patch.Role)
	}
	return bson.M{"$set": set}
}

func duplicateKeyError(err error) *domain.Error {
	if strings.Contains(err.Error(), "email") {
		return domain.ValidationFailed(domain.FieldError{Field: "email", Message: domain.MsgEmailTaken})
	}
	return domain.ValidationFailed(domain.FieldError{Field: "username", Message: domain.MsgUsernameTaken})
}

func toIdentity(doc mongoIdentity) *domain.Identity {
	return &domain.Identity{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         domain.Role(doc.Role),
		CreatedAt:    unixToTime(doc.CreatedAt),
		UpdatedAt:    unixToTime(doc.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
