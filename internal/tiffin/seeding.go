package tiffin

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds returns all seeds for the tiffin service
func Seeds(db *mongo.Database) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2026-08-01_default_price_list",
			Description: "Seed the default meal price list and guest rate",
			Run: func(ctx context.Context) error {
				return seedDefaultPriceList(ctx, db)
			},
		},
	}
}

// seedDefaultPriceList inserts the vendor's price list if none exists yet.
// Prices already configured by the vendor are never overwritten.
func seedDefaultPriceList(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("price_lists")

	pl := DefaultPriceList()
	prices := make([]bson.M, 0, len(pl.Prices))
	for _, p := range pl.Prices {
		prices = append(prices, bson.M{
			"slot":   p.Slot,
			"dish":   p.Dish,
			"amount": p.Amount,
		})
	}

	doc := bson.M{
		"_id":        PriceListID,
		"prices":     prices,
		"guest_rate": pl.GuestRate,
		"updated_at": time.Now(),
	}

	filter := bson.M{"_id": PriceListID}
	update := bson.M{"$setOnInsert": doc}
	if _, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("seed price list: %w", err)
	}

	return nil
}

// SeedingFunc returns a function for running seeds during service startup
func SeedingFunc(appName string, dbFn func() *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("Applying tiffin service database seeds...")
		db := dbFn()
		tracker := seed.NewMongoTracker(db)
		seeds := Seeds(db)
		if err := seed.Apply(ctx, tracker, seeds, appName); err != nil {
			return fmt.Errorf("apply seeds: %w", err)
		}
		logger.Info("Tiffin service database seeds applied successfully")
		return nil
	}
}
