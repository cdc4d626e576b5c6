package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var demoCollections = []string{
	"attendance",
	"payments",
	"subscriptions",
	"customers",
}

// ClearDemo removes all demo data from the tiffin database
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database(dbName)
	if err := clearDemoData(ctx, db, logger); err != nil {
		return fmt.Errorf("clear demo data: %w", err)
	}

	return nil
}

func clearDemoData(ctx context.Context, db *mongo.Database, logger apt.Logger) error {
	for _, name := range demoCollections {
		result, err := db.Collection(name).DeleteMany(ctx, bson.M{"created_by": "demo-seed"})
		if err != nil {
			return fmt.Errorf("delete demo %s: %w", name, err)
		}
		logger.Info("Deleted demo documents", "collection", name, "count", result.DeletedCount)
	}

	// Clear seed tracker
	seedsCollection := db.Collection("_seeds")
	trackerResult, err := seedsCollection.DeleteOne(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("delete seed tracker: %w", err)
	}
	logger.Info("Cleared seed tracker", "deleted", trackerResult.DeletedCount)

	return nil
}
