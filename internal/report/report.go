// Package report renders a customer's reconciled statement for sharing:
// a WhatsApp-ready text message and CSV rows for spreadsheet export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tiffinclub/tiffin/internal/billing"
)

// Data carries everything a rendered report needs.
type Data struct {
	CustomerName string
	Phone        string
	From         time.Time
	To           time.Time
	Statement    billing.Statement
}

// Period formats the report window. A same-month window collapses to
// "August 2026"; anything else renders both bounds.
func (d Data) Period() string {
	if d.From.Year() == d.To.Year() && d.From.Month() == d.To.Month() {
		return d.From.Format("January 2006")
	}
	return d.From.Format("02 Jan 2006") + " to " + d.To.Format("02 Jan 2006")
}

// WhatsApp renders the statement as a plain-text message. The signed pending
// is shown so an advance reads as a credit rather than silently disappearing.
func WhatsApp(d Data) string {
	s := d.Statement

	var b strings.Builder
	fmt.Fprintf(&b, "Tiffin bill for %s\n", d.CustomerName)
	fmt.Fprintf(&b, "Period: %s\n", d.Period())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Days present: %d\n", s.DaysPresent)
	fmt.Fprintf(&b, "Lunches: %d, Dinners: %d (total %d meals)\n", s.LunchCount, s.DinnerCount, s.TotalMeals)
	if s.GuestCount > 0 {
		fmt.Fprintf(&b, "Guest meals: %d\n", s.GuestCount)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Meal charges: Rs %d\n", s.MealCharges)
	if s.GuestCharges > 0 {
		fmt.Fprintf(&b, "Guest charges: Rs %d\n", s.GuestCharges)
	}
	fmt.Fprintf(&b, "Total due: Rs %d\n", s.TotalDue)
	fmt.Fprintf(&b, "Paid: Rs %d\n", s.TotalPaid)

	switch {
	case s.Pending > 0:
		fmt.Fprintf(&b, "Pending: Rs %d\n", s.Pending)
	case s.Pending < 0:
		fmt.Fprintf(&b, "Advance balance: Rs %d\n", -s.Pending)
	default:
		b.WriteString("Fully settled. Thank you!\n")
	}

	return b.String()
}

var csvHeader = []string{
	"customer", "phone", "period",
	"days_present", "lunch_count", "dinner_count", "total_meals", "guest_count",
	"meal_charges", "guest_charges", "total_due", "total_paid", "pending",
}

// WriteCSV writes the statement as a header plus one data row.
func WriteCSV(w io.Writer, d Data) error {
	s := d.Statement
	cw := csv.NewWriter(w)

	row := []string{
		d.CustomerName, d.Phone, d.Period(),
		strconv.Itoa(s.DaysPresent), strconv.Itoa(s.LunchCount), strconv.Itoa(s.DinnerCount),
		strconv.Itoa(s.TotalMeals), strconv.Itoa(s.GuestCount),
		strconv.Itoa(s.MealCharges), strconv.Itoa(s.GuestCharges),
		strconv.Itoa(s.TotalDue), strconv.Itoa(s.TotalPaid), strconv.Itoa(s.Pending),
	}

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("cannot write csv header: %w", err)
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("cannot write csv row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
