package implementation

import (
	"context"
	"fmt"

	config "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo connects to the student directory and verifies the
// connection with a ping. A failure here is fatal to the service; the
// relay must not start without a reachable directory.
func ConnectMongo(cfg *config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	return client, nil
}
