package tiffin

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const CurrentSubscriptionSchemaVersion = 1

// SubscriptionStatus is the subscription lifecycle state. Active transitions
// to completed on renewal or to cancelled manually; both are terminal.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCompleted SubscriptionStatus = "completed"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// MealFrequency is how many meals per day the plan covers.
type MealFrequency string

const (
	FrequencyOneTime  MealFrequency = "one_time"
	FrequencyTwoTimes MealFrequency = "two_times"
)

// Subscription is a fixed-period, fixed-price meal plan for one customer.
// At most one subscription per customer is active at a time; the repository
// and handlers enforce that, not the entity.
type Subscription struct {
	ID            uuid.UUID          `json:"id" bson:"_id"`
	CustomerID    uuid.UUID          `json:"customer_id" bson:"customer_id"`
	StartDate     time.Time          `json:"start_date" bson:"start_date"`
	EndDate       time.Time          `json:"end_date" bson:"end_date"`
	MealFrequency MealFrequency      `json:"meal_frequency" bson:"meal_frequency"`
	PlanAmount    int                `json:"plan_amount" bson:"plan_amount"`
	Status        SubscriptionStatus `json:"status" bson:"status"`

	SchemaVersion int       `json:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (s *Subscription) GetID() uuid.UUID {
	return s.ID
}

func (s *Subscription) ResourceType() string {
	return "subscriptions"
}

func (s *Subscription) EnsureID() {
	if s.ID == uuid.Nil {
		s.ID = apt.GenerateNewID()
	}
}

func (s *Subscription) BeforeCreate() {
	s.EnsureID()
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.SchemaVersion == 0 {
		s.SchemaVersion = CurrentSubscriptionSchemaVersion
	}
	if s.Status == "" {
		s.Status = SubscriptionActive
	}
	if s.MealFrequency == "" {
		s.MealFrequency = FrequencyTwoTimes
	}
}

func (s *Subscription) BeforeUpdate() {
	s.UpdatedAt = time.Now()
}

// Complete marks the subscription finished, typically on renewal.
func (s *Subscription) Complete() {
	s.Status = SubscriptionCompleted
	s.UpdatedAt = time.Now()
}

// Cancel terminates the subscription manually.
func (s *Subscription) Cancel() {
	s.Status = SubscriptionCancelled
	s.UpdatedAt = time.Now()
}

// Renew completes this subscription and returns its successor covering the
// next period of the same length, starting the day after EndDate.
func (s *Subscription) Renew(planAmount int) *Subscription {
	length := s.EndDate.Sub(s.StartDate)
	next := &Subscription{
		CustomerID:    s.CustomerID,
		StartDate:     s.EndDate.AddDate(0, 0, 1),
		MealFrequency: s.MealFrequency,
		PlanAmount:    planAmount,
		Status:        SubscriptionActive,
	}
	next.EndDate = next.StartDate.Add(length)
	next.BeforeCreate()
	s.Complete()
	return next
}
