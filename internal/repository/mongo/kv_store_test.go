package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestStore connects to MONGO_URI and returns a store on a throwaway
// database that is dropped when the test ends.
func newTestStore(t *testing.T) *mongoKVStore {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectDB(ctx, uri)
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}

	db := client.Database("material_approval_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = DisconnectDB(ctx, client)
	})
	return NewMongoKVStore(db).(*mongoKVStore)
}

func TestMongoKVStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get missing: found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "slot", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set (insert): %v", err)
	}
	if err := s.Set(ctx, "slot", []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("Set (replace): %v", err)
	}

	got, found, err := s.Get(ctx, "slot")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(got) != `[{"id":2}]` {
		t.Errorf("Get = %q, want %q", got, `[{"id":2}]`)
	}

	n, err := s.collection.CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1 after upsert", n)
	}

	if err := s.Delete(ctx, "slot"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "slot"); found {
		t.Error("slot still present after Delete")
	}
	if err := s.Delete(ctx, "never-written"); err != nil {
		t.Errorf("Delete missing slot: %v", err)
	}
}
