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

// AttendanceRepo implements tiffin.AttendanceRepo using MongoDB
type AttendanceRepo struct {
	customerRepo *CustomerRepo
	collection   *mongo.Collection
	logger       apt.Logger
}

// NewAttendanceRepo creates an attendance repository sharing the
// customer repository's database
func NewAttendanceRepo(customerRepo *CustomerRepo, logger apt.Logger) *AttendanceRepo {
	return &AttendanceRepo{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (r *AttendanceRepo) Start(ctx context.Context) error {
	if r.customerRepo == nil || r.customerRepo.db == nil {
		return fmt.Errorf("customer repository must be started first")
	}

	r.collection = r.customerRepo.db.Collection("attendance")

	// One record per customer per day
	dayIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, dayIndexModel); err != nil {
		return fmt.Errorf("cannot create customer_id/date index: %w", err)
	}

	r.logger.Info("Attendance repository initialized with collection: attendance")
	return nil
}

// Stop is a no-op since the connection is managed by CustomerRepo
func (r *AttendanceRepo) Stop(ctx context.Context) error {
	return nil
}

// Upsert writes the day's record, replacing any existing row for the same
// (customer, date).
func (r *AttendanceRepo) Upsert(ctx context.Context, a *tiffin.Attendance) error {
	a.Date = tiffin.DayOf(a.Date)

	filter := bson.M{"customer_id": a.CustomerID, "date": a.Date}
	update := bson.M{
		"$set": bson.M{
			"customer_id":    a.CustomerID,
			"date":           a.Date,
			"lunch_taken":    a.LunchTaken,
			"dinner_taken":   a.DinnerTaken,
			"guest_count":    a.GuestCount,
			"cancelled":      a.Cancelled,
			"notes":          a.Notes,
			"schema_version": a.SchemaVersion,
			"updated_at":     time.Now(),
		},
		"$setOnInsert": bson.M{
			"_id":        a.ID,
			"created_at": time.Now(),
		},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("cannot upsert attendance: %w", err)
	}
	return nil
}

func (r *AttendanceRepo) Get(ctx context.Context, customerID uuid.UUID, day time.Time) (*tiffin.Attendance, error) {
	var mark tiffin.Attendance
	filter := bson.M{"customer_id": customerID, "date": tiffin.DayOf(day)}
	err := r.collection.FindOne(ctx, filter).Decode(&mark)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("attendance not found")
		}
		return nil, fmt.Errorf("cannot find attendance: %w", err)
	}
	return &mark, nil
}

func (r *AttendanceRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, rng tiffin.DateRange) ([]*tiffin.Attendance, error) {
	query := bson.M{"customer_id": customerID}

	dateQuery := bson.M{}
	if !rng.From.IsZero() {
		dateQuery["$gte"] = tiffin.DayOf(rng.From)
	}
	if !rng.To.IsZero() {
		dateQuery["$lte"] = tiffin.DayOf(rng.To)
	}
	if len(dateQuery) > 0 {
		query["date"] = dateQuery
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find attendance: %w", err)
	}
	defer cursor.Close(ctx)

	var marks []*tiffin.Attendance
	if err := cursor.All(ctx, &marks); err != nil {
		return nil, fmt.Errorf("cannot decode attendance: %w", err)
	}

	return marks, nil
}

func (r *AttendanceRepo) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"customer_id": customerID}); err != nil {
		return fmt.Errorf("cannot delete attendance: %w", err)
	}
	return nil
}
