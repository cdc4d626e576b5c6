package event

import "time"

const (
	PaymentsTopic   = "tiffin.payments"
	AttendanceTopic = "tiffin.attendance"
	CustomersTopic  = "tiffin.customers"

	EventPaymentRecorded       = "tiffin.payment.recorded"
	EventAttendanceMarked      = "tiffin.attendance.marked"
	EventCustomerArchived      = "tiffin.customer.archived"
	EventCustomerRestored      = "tiffin.customer.restored"
	EventSubscriptionRenewed   = "tiffin.subscription.renewed"
	EventSubscriptionCancelled = "tiffin.subscription.cancelled"
)

// ActivityEventMetadata is the envelope shared by all vendor activity events.
// CustomerID is the routing key consumers care about: every event invalidates
// that customer's cached balance.
type ActivityEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	CustomerID string    `json:"customer_id"`
}

type PaymentRecordedEvent struct {
	ActivityEventMetadata
	PaymentID      string `json:"payment_id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Amount         int    `json:"amount"`
	PaymentType    string `json:"payment_type"`
	Mode           string `json:"mode"`
	Status         string `json:"status"`
}

type AttendanceMarkedEvent struct {
	ActivityEventMetadata
	AttendanceID string `json:"attendance_id"`
	Date         string `json:"date"` // YYYY-MM-DD
	LunchTaken   bool   `json:"lunch_taken"`
	DinnerTaken  bool   `json:"dinner_taken"`
	GuestCount   int    `json:"guest_count"`
	Cancelled    bool   `json:"cancelled"`
}

type CustomerLifecycleEvent struct {
	ActivityEventMetadata
	CustomerName string `json:"customer_name,omitempty"`
}

type SubscriptionEvent struct {
	ActivityEventMetadata
	SubscriptionID string `json:"subscription_id"`
	PlanAmount     int    `json:"plan_amount"`
	Status         string `json:"status"`
}
