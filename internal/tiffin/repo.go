package tiffin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Active       *bool
	CustomerType *CustomerType
	Archived     *bool
	Limit        int
	Offset       int
}

// DateRange is a half-open-inclusive [From, To] day window. Zero values mean
// unbounded on that side; detail pages pass the zero range for "all time".
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	if !r.From.IsZero() && day.Before(DayOf(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(DayOf(r.To)) {
		return false
	}
	return true
}

// MonthOf returns the range covering the calendar month of t.
func MonthOf(t time.Time) DateRange {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	CustomerID *uuid.UUID
	Status     *PaymentStatus
	Range      DateRange
	Limit      int
	Offset     int
}

type CustomerRepo interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]*Customer, error)
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SubscriptionRepo interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Subscription, error)
	Save(ctx context.Context, s *Subscription) error
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}

type AttendanceRepo interface {
	// Upsert writes the day's record, replacing any existing row for the
	// same (customer, date).
	Upsert(ctx context.Context, a *Attendance) error
	Get(ctx context.Context, customerID uuid.UUID, day time.Time) (*Attendance, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, r DateRange) ([]*Attendance, error)
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}

type PaymentRepo interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id uuid.UUID) (*Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}

type PriceListRepo interface {
	Get(ctx context.Context) (*PriceList, error)
	Save(ctx context.Context, pl *PriceList) error
}
