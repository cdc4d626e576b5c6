package tiffin

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const CurrentPaymentSchemaVersion = 1

// PaymentType classifies why the payment was made.
type PaymentType string

const (
	PaymentAdvance PaymentType = "advance"
	PaymentPartial PaymentType = "partial"
	PaymentFull    PaymentType = "full"
	PaymentWalkIn  PaymentType = "walk_in"
)

// PaymentStatus is the settlement state of a payment row.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one append-only payment row. Amounts are whole rupees and
// always positive; corrections are new rows, never edits.
type Payment struct {
	ID             uuid.UUID     `json:"id" bson:"_id"`
	CustomerID     uuid.UUID     `json:"customer_id" bson:"customer_id"`
	SubscriptionID *uuid.UUID    `json:"subscription_id,omitempty" bson:"subscription_id,omitempty"`
	Amount         int           `json:"amount" bson:"amount"`
	PaymentType    PaymentType   `json:"payment_type" bson:"payment_type"`
	Mode           string        `json:"mode" bson:"mode"` // pkg/enums/paymode code
	PaymentDate    time.Time     `json:"payment_date" bson:"payment_date"`
	Status         PaymentStatus `json:"status" bson:"status"`
	Notes          string        `json:"notes,omitempty" bson:"notes,omitempty"`

	SchemaVersion int       `json:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *Payment) GetID() uuid.UUID {
	return p.ID
}

func (p *Payment) ResourceType() string {
	return "payments"
}

func (p *Payment) EnsureID() {
	if p.ID == uuid.Nil {
		p.ID = apt.GenerateNewID()
	}
}

func (p *Payment) BeforeCreate() {
	p.EnsureID()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.SchemaVersion == 0 {
		p.SchemaVersion = CurrentPaymentSchemaVersion
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}
	if p.Status == "" {
		p.Status = PaymentCompleted
	}
}
