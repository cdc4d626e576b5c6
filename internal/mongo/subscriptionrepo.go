package mongo

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiffinclub/tiffin/internal/tiffin"
)

// SubscriptionRepo implements tiffin.SubscriptionRepo using MongoDB
type SubscriptionRepo struct {
	customerRepo *CustomerRepo
	collection   *mongo.Collection
	logger       apt.Logger
}

// NewSubscriptionRepo creates a subscription repository sharing the
// customer repository's database
func NewSubscriptionRepo(customerRepo *CustomerRepo, logger apt.Logger) *SubscriptionRepo {
	return &SubscriptionRepo{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (r *SubscriptionRepo) Start(ctx context.Context) error {
	if r.customerRepo == nil || r.customerRepo.db == nil {
		return fmt.Errorf("customer repository must be started first")
	}

	r.collection = r.customerRepo.db.Collection("subscriptions")

	customerIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, customerIndexModel); err != nil {
		return fmt.Errorf("cannot create customer_id index: %w", err)
	}

	r.logger.Info("Subscription repository initialized with collection: subscriptions")
	return nil
}

// Stop is a no-op since the connection is managed by CustomerRepo
func (r *SubscriptionRepo) Stop(ctx context.Context) error {
	return nil
}

func (r *SubscriptionRepo) Create(ctx context.Context, s *tiffin.Subscription) error {
	_, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("cannot insert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) Get(ctx context.Context, id uuid.UUID) (*tiffin.Subscription, error) {
	var sub tiffin.Subscription
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("subscription not found")
		}
		return nil, fmt.Errorf("cannot find subscription: %w", err)
	}
	return &sub, nil
}

// FindActiveByCustomer returns the customer's active subscription, or nil
// when there is none.
func (r *SubscriptionRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*tiffin.Subscription, error) {
	var sub tiffin.Subscription
	filter := bson.M{"customer_id": customerID, "status": tiffin.SubscriptionActive}
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot find active subscription: %w", err)
	}
	return &sub, nil
}

func (r *SubscriptionRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*tiffin.Subscription, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*tiffin.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("cannot decode subscriptions: %w", err)
	}

	return subs, nil
}

func (r *SubscriptionRepo) Save(ctx context.Context, s *tiffin.Subscription) error {
	filter := bson.M{"_id": s.ID}
	update := bson.M{"$set": s}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update subscription: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("subscription not found")
	}

	return nil
}

func (r *SubscriptionRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"customer_id": customerID}); err != nil {
		return fmt.Errorf("cannot delete subscriptions: %w", err)
	}
	return nil
}
