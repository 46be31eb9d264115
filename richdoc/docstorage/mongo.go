package docstorage

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument is the stored shape. Content keeps the serialized JSON
// verbatim so Load returns exactly what was saved.
type mongoDocument struct {
	ID           string    `bson:"_id"`
	Content      string    `bson:"content"`
	Size         int       `bson:"size"`
	LastModified time.Time `bson:"lastModified"`
}

// MongoAdapter stores one MongoDB document per rich document.
type MongoAdapter struct {
	collection *mongo.Collection

	// client is set when the adapter created the connection and must close it
	client *mongo.Client
}

// NewMongoAdapter uses a collection managed by the caller.
func NewMongoAdapter(collection *mongo.Collection) *MongoAdapter {
	return &MongoAdapter{collection: collection}
}

func (a *MongoAdapter) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	doc := mongoDocument{
		ID:           id,
		Content:      string(data),
		Size:         len(data),
		LastModified: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		return errors.Wrap(err, "failed to save document")
	}
	return nil
}

func (a *MongoAdapter) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := a.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load document")
	}
	return []byte(doc.Content), nil
}

func (a *MongoAdapter) List(ctx context.Context) ([]string, error) {
	cursor, err := a.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find documents")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var res struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&res); err != nil {
			return nil, errors.Wrap(err, "failed to decode document")
		}
		ids = append(ids, res.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "cursor error")
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *MongoAdapter) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if _, err := a.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	return nil
}

func (a *MongoAdapter) Close() error {
	if a.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.client.Disconnect(ctx)
}
