package commands

import (
	"context"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// ResetDB drops the tiffin database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the tiffin database!")
	logger.Infof("⚠️  This action cannot be undone!")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	logger.Info("Dropping database", "database", dbName)
	db := client.Database(dbName)
	result := db.RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		logger.Infof("⚠️  Failed to drop database %s (may not exist): %v", dbName, result.Err())
		return nil
	}

	logger.Info("Database dropped", "database", dbName)
	return nil
}
