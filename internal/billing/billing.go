// Package billing computes a customer's bill and outstanding balance from a
// subscription, attendance history, and payment history. It is pure: no I/O,
// no clock, no mutation of inputs. Callers fetch the raw records, pick a
// billing mode and guest valuation, and read the resulting Statement.
package billing

import "time"

// Mode selects how meal charges are computed.
type Mode string

const (
	// FixedPlan bills the subscription's plan amount regardless of attendance.
	FixedPlan Mode = "fixed_plan"
	// PerMeal bills each lunch and dinner actually taken at menu prices.
	PerMeal Mode = "per_meal"
)

// GuestValuation selects how guest meals are priced. The vendor app
// historically disagreed with itself here: list pages charged a flat
// per-guest rate while the per-customer report averaged the lunch and dinner
// price. Both variants are kept, chosen explicitly by the caller.
type GuestValuation string

const (
	FlatRate         GuestValuation = "flat_rate"
	AverageMealPrice GuestValuation = "average_meal_price"
)

// SubscriptionStatusActive is the only status that contributes a plan amount.
const SubscriptionStatusActive = "active"

// SubscriptionView is the slice of a subscription the engine needs.
type SubscriptionView struct {
	PlanAmount    int
	StartDate     time.Time
	EndDate       time.Time
	MealFrequency string
	Status        string
}

// AttendanceView is one day's attendance as the engine sees it.
type AttendanceView struct {
	Date        time.Time
	LunchTaken  bool
	DinnerTaken bool
	GuestCount  int
	Cancelled   bool
}

// PaymentView is one payment row as the engine sees it.
type PaymentView struct {
	Amount int
	Status string
}

// PaymentStatusFailed payments are excluded from totals unless the caller
// opts into the legacy sum-everything behavior.
const PaymentStatusFailed = "failed"

// MenuPrices are the per-meal prices resolved from the vendor's price list
// for this customer's dishes. Whole rupees.
type MenuPrices struct {
	LunchPrice  int
	DinnerPrice int
}

// Input carries everything Compute needs. All fields degrade to zero charges
// when absent: nil subscription means no plan, empty slices sum to zero.
type Input struct {
	Subscription   *SubscriptionView
	Attendance     []AttendanceView
	Payments       []PaymentView
	Mode           Mode
	Prices         MenuPrices
	GuestRate      int
	GuestValuation GuestValuation

	// SumAllPayments restores the legacy behavior of summing every payment
	// row regardless of status, failed ones included.
	SumAllPayments bool
}

// Statement is the reconciled bill. Pending is signed: positive is owed by
// the customer, negative is overpayment carried forward, zero is settled.
type Statement struct {
	MealCharges  int `json:"meal_charges"`
	GuestCharges int `json:"guest_charges"`
	TotalDue     int `json:"total_due"`
	TotalPaid    int `json:"total_paid"`
	Pending      int `json:"pending"`

	DaysPresent int `json:"days_present"`
	LunchCount  int `json:"lunch_count"`
	DinnerCount int `json:"dinner_count"`
	TotalMeals  int `json:"total_meals"`
	GuestCount  int `json:"guest_count"`
}

// PendingClamped returns the pending balance floored at zero, the value the
// customer and payment list views display.
func (s Statement) PendingClamped() int {
	if s.Pending < 0 {
		return 0
	}
	return s.Pending
}

// Settled reports whether the customer owes nothing.
func (s Statement) Settled() bool {
	return s.Pending <= 0
}

// Compute reconciles one customer's bill. Deterministic and side-effect
// free: identical inputs always produce identical statements.
//
// A cancelled attendance day contributes nothing, even if its meal flags or
// guest count are set. The UI clears those flags on cancellation but the
// data model does not forbid the combination, so the engine ignores them
// defensively rather than billing a day the customer skipped.
func Compute(in Input) Statement {
	var st Statement

	seen := make(map[string]bool, len(in.Attendance))
	for _, a := range in.Attendance {
		if a.Cancelled {
			continue
		}
		if a.LunchTaken {
			st.LunchCount++
		}
		if a.DinnerTaken {
			st.DinnerCount++
		}
		if a.GuestCount > 0 {
			st.GuestCount += a.GuestCount
		}
		if a.LunchTaken || a.DinnerTaken {
			day := a.Date.Format(time.DateOnly)
			if !seen[day] {
				seen[day] = true
				st.DaysPresent++
			}
		}
	}
	st.TotalMeals = st.LunchCount + st.DinnerCount

	for _, p := range in.Payments {
		if !in.SumAllPayments && p.Status == PaymentStatusFailed {
			continue
		}
		st.TotalPaid += p.Amount
	}

	st.GuestCharges = st.GuestCount * guestRate(in)

	switch in.Mode {
	case PerMeal:
		st.MealCharges = st.LunchCount*in.Prices.LunchPrice + st.DinnerCount*in.Prices.DinnerPrice
	default:
		if in.Subscription != nil && in.Subscription.Status == SubscriptionStatusActive {
			st.MealCharges = in.Subscription.PlanAmount
		}
	}

	st.TotalDue = st.MealCharges + st.GuestCharges
	st.Pending = st.TotalDue - st.TotalPaid

	return st
}

// guestRate resolves the per-guest-meal charge for the chosen valuation.
// The average variant uses integer division, matching the whole-rupee
// arithmetic everywhere else.
func guestRate(in Input) int {
	if in.GuestValuation == AverageMealPrice {
		return (in.Prices.LunchPrice + in.Prices.DinnerPrice) / 2
	}
	return in.GuestRate
}
