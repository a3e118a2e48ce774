package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bookshelf/account-service/internal/core/domain"
)

const authEventsCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewAuthEventRepository(db *mongo.Database, timeout time.Duration) *AuthEventRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AuthEventRepository{coll: db.Collection(authEventsCollection), timeout: timeout}
}

// InsertEvent persists one audit event. Driver failures are returned as
// ServerFault.
func (r *AuthEventRepository) InsertEvent(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, eventDocument(event, time.Now().UTC())); err != nil {
		return domain.ServerFault(fmt.Errorf("insert auth event: %w", err))
	}
	return nil
}

func eventDocument(event *domain.AuthEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"username":    event.Username,
		"type":        string(event.Type),
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": recordedAt,
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	return doc
}
