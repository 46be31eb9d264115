package docstorage

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// Persistence types accepted by NewAdapter.
const (
	PersistenceMemory = "memory"
	PersistenceFile   = "file"
	PersistenceRedis  = "redis"
	PersistenceBadger = "badger"
	PersistenceMongo  = "mongo"
)

// Options selects and configures a persistence adapter.
type Options struct {
	// PersistenceType is one of memory, file, redis, badger or mongo.
	PersistenceType string

	// PersistencePath is the directory used by the file and badger adapters.
	PersistencePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces the keys written by the redis and badger adapters.
	KeyPrefix string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// BadgerInMemory keeps the badger database in memory only.
	BadgerInMemory bool

	// SaveTimeout bounds every save started by an AutoSaver.
	SaveTimeout time.Duration
}

// DefaultOptions returns the options used for fields left empty.
func DefaultOptions() *Options {
	return &Options{
		PersistenceType: PersistenceMemory,
		PersistencePath: "documents",
		RedisAddr:       "localhost:6379",
		KeyPrefix:       "richdoc",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "richdoc",
		MongoCollection: "documents",
		SaveTimeout:     5 * time.Second,
	}
}

// merge returns opts laid over the defaults. Zero values keep the default.
func (o *Options) merge() (*Options, error) {
	res := DefaultOptions()
	if o == nil {
		return res, nil
	}
	if err := copier.CopyWithOption(res, o, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, errors.Wrap(err, "failed to merge storage options")
	}
	return res, nil
}
