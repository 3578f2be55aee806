package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/material-approval/internal/kv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const kvCollectionName = "kv"

// slotDocument is one named slot. Value is stored as a string so the
// persisted JSON stays readable in the shell.
type slotDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoKVStore implements kv.Store on a single MongoDB collection.
type mongoKVStore struct {
	collection *mongo.Collection
}

// NewMongoKVStore creates a slot store backed by the "kv" collection of db.
func NewMongoKVStore(db *mongo.Database) kv.Store {
	return &mongoKVStore{
		collection: db.Collection(kvCollectionName),
	}
}

// Get returns the slot value, or found=false when the slot has never been written.
func (s *mongoKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc slotDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(doc.Value), true, nil
}

// Set replaces the whole slot, creating it if needed.
func (s *mongoKVStore) Set(ctx context.Context, key string, value []byte) error {
	doc := slotDocument{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *mongoKVStore) Delete(ctx context.Context, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
