package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/tiffinclub/tiffin/cmd/utils/internal/seeding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const demoSeedID = "demo_tiffin_v1"

// SeedDemo loads a realistic month of demo data into the tiffin database
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database(dbName)

	// Check if already seeded
	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}

	if count > 0 {
		logger.Info("Demo seeds already applied, skipping")
		return nil
	}

	if err := seeding.SeedDemoData(ctx, db); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}

	// Mark as seeded
	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         demoSeedID,
		"description": "Create demo customers with subscriptions, a month of attendance and payments",
		"applied_at":  bson.M{"$currentDate": bson.M{"$type": "timestamp"}},
	})
	if err != nil {
		logger.Infof("⚠️  Failed to mark seed as applied: %v", err)
	}

	logger.Info("Demo seeds applied successfully")
	return nil
}

func connect(ctx context.Context, config *apt.Config) (*mongo.Client, string, error) {
	mongoURL, _ := config.GetString("mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := config.GetString("mongo.name")
	if dbName == "" {
		dbName = "tiffin"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, "", fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, "", fmt.Errorf("ping mongodb: %w", err)
	}

	return client, dbName, nil
}
