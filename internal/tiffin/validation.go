package tiffin

import (
	"strconv"
	"strings"

	"github.com/tiffinclub/tiffin/pkg/enums/paymode"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateCreateCustomer validates a customer before creation
func ValidateCreateCustomer(c *Customer) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if c.CustomerType != "" && c.CustomerType != CustomerMonthly && c.CustomerType != CustomerWalkIn {
		errors = append(errors, ValidationError{
			Field:   "customer_type",
			Message: "customer_type must be one of: monthly, walk_in",
		})
	}

	if c.MealType != "" && c.MealType != MealVeg && c.MealType != MealNonVeg && c.MealType != MealBoth {
		errors = append(errors, ValidationError{
			Field:   "meal_type",
			Message: "meal_type must be one of: veg, non_veg, both",
		})
	}

	for _, dish := range []struct {
		field string
		value Dish
	}{
		{"lunch_dish", c.LunchDish},
		{"dinner_dish", c.DinnerDish},
	} {
		if dish.value != "" && dish.value != DishChapatiBhaji && dish.value != DishRicePlate {
			errors = append(errors, ValidationError{
				Field:   dish.field,
				Message: "dish must be one of: chapati_bhaji, rice_plate",
			})
		}
	}

	return errors
}

// ValidateCreateSubscription validates a subscription before creation
func ValidateCreateSubscription(s *Subscription) []ValidationError {
	var errors []ValidationError

	if s.PlanAmount <= 0 {
		errors = append(errors, ValidationError{
			Field:   "plan_amount",
			Message: "plan_amount must be positive",
		})
	}

	if s.StartDate.IsZero() {
		errors = append(errors, ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	}

	if s.EndDate.IsZero() {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	} else if !s.StartDate.IsZero() && s.EndDate.Before(s.StartDate) {
		errors = append(errors, ValidationError{
			Field:   "end_date",
			Message: "end_date must not precede start_date",
		})
	}

	if s.MealFrequency != "" && s.MealFrequency != FrequencyOneTime && s.MealFrequency != FrequencyTwoTimes {
		errors = append(errors, ValidationError{
			Field:   "meal_frequency",
			Message: "meal_frequency must be one of: one_time, two_times",
		})
	}

	return errors
}

// ValidateAttendance validates an attendance mark before it is written.
// A cancelled day may not also report meals or guests.
func ValidateAttendance(a *Attendance) []ValidationError {
	var errors []ValidationError

	if a.Date.IsZero() {
		errors = append(errors, ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	}

	if a.GuestCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "guest_count",
			Message: "guest_count cannot be negative",
		})
	}

	if a.Cancelled && (a.LunchTaken || a.DinnerTaken || a.GuestCount > 0) {
		errors = append(errors, ValidationError{
			Field:   "cancelled",
			Message: "a cancelled day cannot record meals or guests",
		})
	}

	return errors
}

// ValidateCreatePayment validates a payment before it is recorded
func ValidateCreatePayment(p *Payment) []ValidationError {
	var errors []ValidationError

	if p.Amount <= 0 {
		errors = append(errors, ValidationError{
			Field:   "amount",
			Message: "amount must be positive",
		})
	}

	switch p.PaymentType {
	case "", PaymentAdvance, PaymentPartial, PaymentFull, PaymentWalkIn:
	default:
		errors = append(errors, ValidationError{
			Field:   "payment_type",
			Message: "payment_type must be one of: advance, partial, full, walk_in",
		})
	}

	if p.Mode != "" && paymode.ByName(p.Mode) == nil {
		errors = append(errors, ValidationError{
			Field:   "mode",
			Message: "mode must be one of: cash, upi, card, bank_transfer",
		})
	}

	switch p.Status {
	case "", PaymentCompleted, PaymentPending, PaymentFailed:
	default:
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "status must be one of: completed, pending, failed",
		})
	}

	return errors
}

// ValidatePriceList validates the vendor's price configuration
func ValidatePriceList(pl *PriceList) []ValidationError {
	var errors []ValidationError

	if pl.GuestRate < 0 {
		errors = append(errors, ValidationError{
			Field:   "guest_rate",
			Message: "guest_rate cannot be negative",
		})
	}

	for i, p := range pl.Prices {
		idx := strconv.Itoa(i)
		if p.Amount < 0 {
			errors = append(errors, ValidationError{
				Field:   "prices[" + idx + "].amount",
				Message: "price amount cannot be negative",
			})
		}
		if p.Slot != "lunch" && p.Slot != "dinner" {
			errors = append(errors, ValidationError{
				Field:   "prices[" + idx + "].slot",
				Message: "slot must be one of: lunch, dinner",
			})
		}
		if p.Dish != DishChapatiBhaji && p.Dish != DishRicePlate {
			errors = append(errors, ValidationError{
				Field:   "prices[" + idx + "].dish",
				Message: "dish must be one of: chapati_bhaji, rice_plate",
			})
		}
	}

	return errors
}
