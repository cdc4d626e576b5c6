package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const seededBy = "demo-seed"

// SeedDemoData creates demo customers with subscriptions, a month of
// attendance marks and payments against them.
func SeedDemoData(ctx context.Context, db *mongo.Database) error {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	// Demo Scenario 1: Ramesh - monthly subscriber, both meals, partially paid
	rameshID := uuid.New()
	if err := seedCustomer(ctx, db, bson.M{
		"_id":           rameshID,
		"name":          "Ramesh Kulkarni",
		"phone":         "+91 98220 11223",
		"customer_type": "monthly",
		"meal_type":     "veg",
		"lunch_dish":    "chapati_bhaji",
		"dinner_dish":   "rice_plate",
		"active":        true,
	}, now); err != nil {
		return err
	}
	if err := seedSubscription(ctx, db, rameshID, monthStart, monthEnd, "two_times", 3000, now); err != nil {
		return err
	}
	for day := 1; day <= 20; day++ {
		mark := bson.M{"lunch_taken": true, "dinner_taken": true, "guest_count": 0, "cancelled": false}
		switch day {
		case 7:
			mark["guest_count"] = 2
		case 12:
			mark = bson.M{"lunch_taken": false, "dinner_taken": false, "guest_count": 0, "cancelled": true}
		}
		if err := seedMark(ctx, db, rameshID, monthStart.AddDate(0, 0, day-1), mark, now); err != nil {
			return err
		}
	}
	if err := seedPayment(ctx, db, rameshID, 2000, "partial", "upi", monthStart.AddDate(0, 0, 4), now); err != nil {
		return err
	}

	// Demo Scenario 2: Sunita - lunch-only subscriber, fully paid
	sunitaID := uuid.New()
	if err := seedCustomer(ctx, db, bson.M{
		"_id":           sunitaID,
		"name":          "Sunita Patil",
		"phone":         "+91 98500 44556",
		"customer_type": "monthly",
		"meal_type":     "veg",
		"lunch_dish":    "chapati_bhaji",
		"dinner_dish":   "chapati_bhaji",
		"active":        true,
	}, now); err != nil {
		return err
	}
	if err := seedSubscription(ctx, db, sunitaID, monthStart, monthEnd, "one_time", 1800, now); err != nil {
		return err
	}
	for day := 1; day <= 15; day++ {
		date := monthStart.AddDate(0, 0, day-1)
		if date.Weekday() == time.Sunday {
			continue
		}
		mark := bson.M{"lunch_taken": true, "dinner_taken": false, "guest_count": 0, "cancelled": false}
		if err := seedMark(ctx, db, sunitaID, date, mark, now); err != nil {
			return err
		}
	}
	if err := seedPayment(ctx, db, sunitaID, 1800, "full", "cash", monthStart.AddDate(0, 0, 1), now); err != nil {
		return err
	}

	// Demo Scenario 3: Arjun - walk-in, pays per visit
	arjunID := uuid.New()
	if err := seedCustomer(ctx, db, bson.M{
		"_id":           arjunID,
		"name":          "Arjun Mehta",
		"phone":         "+91 99670 77889",
		"customer_type": "walk_in",
		"meal_type":     "non_veg",
		"lunch_dish":    "rice_plate",
		"dinner_dish":   "rice_plate",
		"active":        true,
	}, now); err != nil {
		return err
	}
	for _, day := range []int{3, 8, 14} {
		mark := bson.M{"lunch_taken": true, "dinner_taken": day == 8, "guest_count": 0, "cancelled": false}
		if err := seedMark(ctx, db, arjunID, monthStart.AddDate(0, 0, day-1), mark, now); err != nil {
			return err
		}
	}
	if err := seedPayment(ctx, db, arjunID, 120, "walk_in", "cash", monthStart.AddDate(0, 0, 7), now); err != nil {
		return err
	}

	return nil
}

func seedCustomer(ctx context.Context, db *mongo.Database, doc bson.M, now time.Time) error {
	doc["schema_version"] = 1
	doc["created_at"] = now
	doc["updated_at"] = now
	doc["created_by"] = seededBy
	doc["updated_by"] = seededBy

	_, err := db.Collection("customers").UpdateOne(ctx,
		bson.M{"_id": doc["_id"]}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot create demo customer %v: %w", doc["name"], err)
	}
	return nil
}

func seedSubscription(ctx context.Context, db *mongo.Database, customerID uuid.UUID, start, end time.Time, frequency string, planAmount int, now time.Time) error {
	doc := bson.M{
		"_id":            uuid.New(),
		"customer_id":    customerID,
		"start_date":     start,
		"end_date":       end,
		"meal_frequency": frequency,
		"plan_amount":    planAmount,
		"status":         "active",
		"schema_version": 1,
		"created_at":     now,
		"updated_at":     now,
		"created_by":     seededBy,
		"updated_by":     seededBy,
	}

	_, err := db.Collection("subscriptions").UpdateOne(ctx,
		bson.M{"_id": doc["_id"]}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot create demo subscription for %s: %w", customerID, err)
	}
	return nil
}

func seedMark(ctx context.Context, db *mongo.Database, customerID uuid.UUID, date time.Time, mark bson.M, now time.Time) error {
	mark["_id"] = uuid.New()
	mark["customer_id"] = customerID
	mark["date"] = date
	mark["schema_version"] = 1
	mark["created_at"] = now
	mark["updated_at"] = now
	mark["created_by"] = seededBy
	mark["updated_by"] = seededBy

	_, err := db.Collection("attendance").UpdateOne(ctx,
		bson.M{"customer_id": customerID, "date": date}, bson.M{"$setOnInsert": mark}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot create demo attendance for %s on %s: %w", customerID, date.Format(time.DateOnly), err)
	}
	return nil
}

func seedPayment(ctx context.Context, db *mongo.Database, customerID uuid.UUID, amount int, paymentType, mode string, date time.Time, now time.Time) error {
	doc := bson.M{
		"_id":            uuid.New(),
		"customer_id":    customerID,
		"amount":         amount,
		"payment_type":   paymentType,
		"mode":           mode,
		"payment_date":   date,
		"status":         "completed",
		"schema_version": 1,
		"created_at":     now,
		"updated_at":     now,
		"created_by":     seededBy,
		"updated_by":     seededBy,
	}

	_, err := db.Collection("payments").UpdateOne(ctx,
		bson.M{"_id": doc["_id"]}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot create demo payment for %s: %w", customerID, err)
	}
	return nil
}
