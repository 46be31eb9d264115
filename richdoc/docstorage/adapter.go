// Package docstorage persists serialized documents through pluggable
// adapters and saves sessions automatically on every commit.
package docstorage

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDocumentNotFound is returned by Load when no document is stored under ID.
type ErrDocumentNotFound struct {
	ID string
}

func (e ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found: %s", e.ID)
}

func (e ErrDocumentNotFound) Is(target error) bool {
	_, ok := target.(ErrDocumentNotFound)
	return ok
}

// ErrInvalidDocumentID is returned by every adapter operation given an id
// that cannot be used as a file name or key suffix.
type ErrInvalidDocumentID struct {
	ID string
}

func (e ErrInvalidDocumentID) Error() string {
	return fmt.Sprintf("invalid document id %q", e.ID)
}

func (e ErrInvalidDocumentID) Is(target error) bool {
	_, ok := target.(ErrInvalidDocumentID)
	return ok
}

// Adapter stores serialized documents by id.
type Adapter interface {
	// Save stores data under id, replacing any previous version.
	Save(ctx context.Context, id string, data []byte) error

	// Load returns the data stored under id or ErrDocumentNotFound.
	Load(ctx context.Context, id string) ([]byte, error)

	// List returns the stored ids in ascending order.
	List(ctx context.Context) ([]string, error)

	// Delete removes id. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewAdapter creates the adapter named by opts.PersistenceType.
// Network adapters are checked with a ping before they are returned.
func NewAdapter(ctx context.Context, opts *Options) (Adapter, error) {
	o, err := opts.merge()
	if err != nil {
		return nil, err
	}

	switch o.PersistenceType {
	case PersistenceMemory:
		return NewMemoryAdapter(), nil
	case PersistenceFile:
		return NewFileAdapter(o.PersistencePath)
	case PersistenceRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     o.RedisAddr,
			Password: o.RedisPassword,
			DB:       o.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "failed to connect to Redis")
		}
		a := NewRedisAdapter(client, o.KeyPrefix)
		a.owned = true
		return a, nil
	case PersistenceBadger:
		return NewBadgerAdapter(o.PersistencePath, o.BadgerInMemory, o.KeyPrefix)
	case PersistenceMongo:
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(o.MongoURI))
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to MongoDB")
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, errors.Wrap(err, "failed to ping MongoDB")
		}
		a := NewMongoAdapter(client.Database(o.MongoDatabase).Collection(o.MongoCollection))
		a.client = client
		return a, nil
	}
	return nil, errors.Errorf("unsupported persistence type: %s", o.PersistenceType)
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return ErrInvalidDocumentID{ID: id}
	}
	return nil
}
