package mongo

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiffinclub/tiffin/internal/tiffin"
)

// PriceListRepo implements tiffin.PriceListRepo using MongoDB. The price
// list is a per-vendor singleton document.
type PriceListRepo struct {
	customerRepo *CustomerRepo
	collection   *mongo.Collection
	logger       apt.Logger
}

// NewPriceListRepo creates a price list repository sharing the customer
// repository's database
func NewPriceListRepo(customerRepo *CustomerRepo, logger apt.Logger) *PriceListRepo {
	return &PriceListRepo{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (r *PriceListRepo) Start(ctx context.Context) error {
	if r.customerRepo == nil || r.customerRepo.db == nil {
		return fmt.Errorf("customer repository must be started first")
	}

	r.collection = r.customerRepo.db.Collection("price_lists")

	r.logger.Info("Price list repository initialized with collection: price_lists")
	return nil
}

// Stop is a no-op since the connection is managed by CustomerRepo
func (r *PriceListRepo) Stop(ctx context.Context) error {
	return nil
}

// Get returns the vendor's price list, falling back to defaults when it has
// not been configured yet.
func (r *PriceListRepo) Get(ctx context.Context) (*tiffin.PriceList, error) {
	var pl tiffin.PriceList
	err := r.collection.FindOne(ctx, bson.M{"_id": tiffin.PriceListID}).Decode(&pl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return tiffin.DefaultPriceList(), nil
		}
		return nil, fmt.Errorf("cannot find price list: %w", err)
	}
	return &pl, nil
}

func (r *PriceListRepo) Save(ctx context.Context, pl *tiffin.PriceList) error {
	pl.ID = tiffin.PriceListID

	filter := bson.M{"_id": pl.ID}
	update := bson.M{"$set": pl}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("cannot save price list: %w", err)
	}
	return nil
}
