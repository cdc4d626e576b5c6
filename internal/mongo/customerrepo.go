package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiffinclub/tiffin/internal/tiffin"
)

// CustomerRepo implements tiffin.CustomerRepo using MongoDB. It owns the
// client connection; the other repositories share its database.
type CustomerRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

func NewCustomerRepo(config *apt.Config, logger apt.Logger) *CustomerRepo {
	return &CustomerRepo{
		logger: logger,
		config: config,
	}
}

func (r *CustomerRepo) Start(ctx context.Context) error {
	mongoURL, _ := r.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := r.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "tiffin"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection("customers")

	activeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "active", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, activeIndexModel); err != nil {
		return fmt.Errorf("cannot create active index: %w", err)
	}

	typeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "customer_type", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, typeIndexModel); err != nil {
		return fmt.Errorf("cannot create customer_type index: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: customers", mongoURL, dbName)
	return nil
}

func (r *CustomerRepo) GetDatabase() *mongo.Database {
	return r.db
}

func (r *CustomerRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *CustomerRepo) Create(ctx context.Context, c *tiffin.Customer) error {
	_, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("cannot insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) Get(ctx context.Context, id uuid.UUID) (*tiffin.Customer, error) {
	var customer tiffin.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("customer not found")
		}
		return nil, fmt.Errorf("cannot find customer: %w", err)
	}
	return &customer, nil
}

func (r *CustomerRepo) List(ctx context.Context, filter tiffin.CustomerFilter) ([]*tiffin.Customer, error) {
	query := bson.M{}

	if filter.Active != nil {
		query["active"] = *filter.Active
	}

	if filter.CustomerType != nil {
		query["customer_type"] = *filter.CustomerType
	}

	if filter.Archived != nil {
		if *filter.Archived {
			query["deleted_at"] = bson.M{"$ne": nil}
		} else {
			query["deleted_at"] = nil
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}})

	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []*tiffin.Customer
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("cannot decode customers: %w", err)
	}

	return customers, nil
}

func (r *CustomerRepo) Save(ctx context.Context, c *tiffin.Customer) error {
	filter := bson.M{"_id": c.ID}
	update := bson.M{"$set": c}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update customer: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("customer not found")
	}

	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete customer: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("customer not found")
	}

	return nil
}
