package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Persister stores the encoded root document as a single unit.
type Persister interface {
	// Load returns the stored document, or nil when none exists yet.
	Load(ctx context.Context) ([]byte, error)
	// Save overwrites the stored document.
	Save(ctx context.Context, data []byte) error
	Close() error
}

// FilePersister keeps the document in a JSON file on disk
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers never observe a partial document.
func (p *FilePersister) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *FilePersister) Close() error {
	return nil
}

// RedisPersister keeps the document under a single Redis key
type RedisPersister struct {
	client *redis.Client
	key    string
}

func NewRedisPersister(client *redis.Client, key string) *RedisPersister {
	return &RedisPersister{
		client: client,
		key:    key,
	}
}

func (p *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (p *RedisPersister) Save(ctx context.Context, data []byte) error {
	return p.client.Set(ctx, p.key, data, 0).Err()
}

func (p *RedisPersister) Close() error {
	return p.client.Close()
}

// mongoDocument is the shape of the single Mongo document holding the store.
type mongoDocument struct {
	ID   string `bson:"_id"`
	Data string `bson:"data"`
}

// MongoPersister keeps the document as one record of a Mongo collection.
// The connection itself belongs to the database package.
type MongoPersister struct {
	collection *mongo.Collection
	key        string
}

func NewMongoPersister(collection *mongo.Collection, key string) *MongoPersister {
	return &MongoPersister{
		collection: collection,
		key:        key,
	}
}

func (p *MongoPersister) Load(ctx context.Context) ([]byte, error) {
	var doc mongoDocument
	err := p.collection.FindOne(ctx, bson.M{"_id": p.key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return []byte(doc.Data), nil
}

func (p *MongoPersister) Save(ctx context.Context, data []byte) error {
	opts := options.Update().SetUpsert(true)
	_, err := p.collection.UpdateOne(ctx,
		bson.M{"_id": p.key},
		bson.M{"$set": bson.M{"data": string(data)}},
		opts,
	)
	return err
}

func (p *MongoPersister) Close() error {
	return nil
}
