package tiffin

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const CurrentAttendanceSchemaVersion = 1

// Attendance is one customer's meal log for one calendar day, unique per
// (customer_id, date). Marking an already-marked day overwrites it.
type Attendance struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	CustomerID  uuid.UUID `json:"customer_id" bson:"customer_id"`
	Date        time.Time `json:"date" bson:"date"`
	LunchTaken  bool      `json:"lunch_taken" bson:"lunch_taken"`
	DinnerTaken bool      `json:"dinner_taken" bson:"dinner_taken"`
	GuestCount  int       `json:"guest_count" bson:"guest_count"`
	Cancelled   bool      `json:"cancelled" bson:"cancelled"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`

	SchemaVersion int       `json:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (a *Attendance) GetID() uuid.UUID {
	return a.ID
}

func (a *Attendance) ResourceType() string {
	return "attendance"
}

func (a *Attendance) EnsureID() {
	if a.ID == uuid.Nil {
		a.ID = apt.GenerateNewID()
	}
}

func (a *Attendance) BeforeCreate() {
	a.EnsureID()
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Date = DayOf(a.Date)
	if a.SchemaVersion == 0 {
		a.SchemaVersion = CurrentAttendanceSchemaVersion
	}
}

func (a *Attendance) BeforeUpdate() {
	a.UpdatedAt = time.Now()
	a.Date = DayOf(a.Date)
}

// MarkCancelled cancels the day and clears meal flags and guests, the same
// normalization the UI applies when the cancellation box is ticked.
func (a *Attendance) MarkCancelled() {
	a.Cancelled = true
	a.LunchTaken = false
	a.DinnerTaken = false
	a.GuestCount = 0
}

// DayOf truncates a timestamp to its UTC calendar day. Attendance is keyed
// by day, never by time.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
