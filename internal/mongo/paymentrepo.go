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

// PaymentRepo implements tiffin.PaymentRepo using MongoDB. Payments are
// append-only; there is no update path.
type PaymentRepo struct {
	customerRepo *CustomerRepo
	collection   *mongo.Collection
	logger       apt.Logger
}

// NewPaymentRepo creates a payment repository sharing the customer
// repository's database
func NewPaymentRepo(customerRepo *CustomerRepo, logger apt.Logger) *PaymentRepo {
	return &PaymentRepo{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (r *PaymentRepo) Start(ctx context.Context) error {
	if r.customerRepo == nil || r.customerRepo.db == nil {
		return fmt.Errorf("customer repository must be started first")
	}

	r.collection = r.customerRepo.db.Collection("payments")

	customerIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "payment_date", Value: -1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, customerIndexModel); err != nil {
		return fmt.Errorf("cannot create customer_id/payment_date index: %w", err)
	}

	r.logger.Info("Payment repository initialized with collection: payments")
	return nil
}

// Stop is a no-op since the connection is managed by CustomerRepo
func (r *PaymentRepo) Stop(ctx context.Context) error {
	return nil
}

func (r *PaymentRepo) Create(ctx context.Context, p *tiffin.Payment) error {
	_, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("cannot insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) Get(ctx context.Context, id uuid.UUID) (*tiffin.Payment, error) {
	var payment tiffin.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment not found")
		}
		return nil, fmt.Errorf("cannot find payment: %w", err)
	}
	return &payment, nil
}

func (r *PaymentRepo) List(ctx context.Context, filter tiffin.PaymentFilter) ([]*tiffin.Payment, error) {
	query := bson.M{}

	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}

	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	dateQuery := bson.M{}
	if !filter.Range.From.IsZero() {
		dateQuery["$gte"] = tiffin.DayOf(filter.Range.From)
	}
	if !filter.Range.To.IsZero() {
		dateQuery["$lte"] = tiffin.DayOf(filter.Range.To).AddDate(0, 0, 1)
	}
	if len(dateQuery) > 0 {
		query["payment_date"] = dateQuery
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "payment_date", Value: -1}})

	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*tiffin.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("cannot decode payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"customer_id": customerID}); err != nil {
		return fmt.Errorf("cannot delete payments: %w", err)
	}
	return nil
}
