package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// pingTimeout bounds the readiness check after connecting.
const pingTimeout = 5 * time.Second

// ConnectDB opens a client for uri and pings the primary before handing it
// out. ctx bounds the whole attempt; the client is closed again when the
// ping fails.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("material-approval"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// DisconnectDB closes the client, waiting at most until ctx is done.
func DisconnectDB(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}
