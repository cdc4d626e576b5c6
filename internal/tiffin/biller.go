package tiffin

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/tiffinclub/tiffin/internal/billing"
)

// StatementOptions tune a single reconciliation run.
type StatementOptions struct {
	// Mode forces fixed_plan or per_meal billing. Empty derives it from the
	// customer: an active subscription bills the plan, otherwise meals are
	// billed individually.
	Mode billing.Mode
	// GuestValuation defaults to the flat guest rate.
	GuestValuation billing.GuestValuation
	// Range bounds the attendance and payments considered. Zero range means
	// the current month.
	Range DateRange
}

// Biller assembles reconciliation inputs from the ledger repositories and
// runs the billing engine. Results are cached per customer.
type Biller struct {
	customers     CustomerRepo
	subscriptions SubscriptionRepo
	attendance    AttendanceRepo
	payments      PaymentRepo
	prices        PriceListRepo
	cache         *BalanceCache
	logger        apt.Logger
}

func NewBiller(customers CustomerRepo, subscriptions SubscriptionRepo, attendance AttendanceRepo, payments PaymentRepo, prices PriceListRepo, cache *BalanceCache, logger apt.Logger) *Biller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Biller{
		customers:     customers,
		subscriptions: subscriptions,
		attendance:    attendance,
		payments:      payments,
		prices:        prices,
		cache:         cache,
		logger:        logger,
	}
}

// StatementFor reconciles a customer's ledger over the given range and
// returns the computed statement. The cache is refreshed only when opts is
// the zero value, so custom runs cannot displace the default numbers.
func (b *Biller) StatementFor(ctx context.Context, customerID uuid.UUID, opts StatementOptions) (billing.Statement, error) {
	customer, err := b.customers.Get(ctx, customerID)
	if err != nil {
		return billing.Statement{}, fmt.Errorf("cannot load customer: %w", err)
	}

	rng := opts.Range
	if rng.From.IsZero() && rng.To.IsZero() {
		rng = MonthOf(time.Now())
	}

	sub, err := b.subscriptions.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return billing.Statement{}, fmt.Errorf("cannot load subscription: %w", err)
	}

	marks, err := b.attendance.ListByCustomer(ctx, customerID, rng)
	if err != nil {
		return billing.Statement{}, fmt.Errorf("cannot load attendance: %w", err)
	}

	pays, err := b.payments.List(ctx, PaymentFilter{CustomerID: &customerID, Range: rng})
	if err != nil {
		return billing.Statement{}, fmt.Errorf("cannot load payments: %w", err)
	}

	priceList, err := b.prices.Get(ctx)
	if err != nil {
		return billing.Statement{}, fmt.Errorf("cannot load price list: %w", err)
	}

	in := billing.Input{
		Mode:           opts.Mode,
		Prices:         priceList.PricesFor(customer),
		GuestRate:      priceList.EffectiveGuestRate(),
		GuestValuation: opts.GuestValuation,
	}

	if sub != nil {
		in.Subscription = &billing.SubscriptionView{
			PlanAmount:    sub.PlanAmount,
			StartDate:     sub.StartDate,
			EndDate:       sub.EndDate,
			MealFrequency: string(sub.MealFrequency),
			Status:        string(sub.Status),
		}
	}

	if in.Mode == "" {
		in.Mode = billing.PerMeal
		if sub != nil {
			in.Mode = billing.FixedPlan
		}
	}

	for _, m := range marks {
		in.Attendance = append(in.Attendance, billing.AttendanceView{
			Date:        m.Date,
			LunchTaken:  m.LunchTaken,
			DinnerTaken: m.DinnerTaken,
			GuestCount:  m.GuestCount,
			Cancelled:   m.Cancelled,
		})
	}

	for _, p := range pays {
		in.Payments = append(in.Payments, billing.PaymentView{
			Amount: p.Amount,
			Status: string(p.Status),
		})
	}

	statement := billing.Compute(in)

	// Only default-option runs are cacheable. The cached read path and the
	// summary assume current-month, flat-guest-rate statements.
	if b.cache != nil && opts == (StatementOptions{}) {
		b.cache.Set(customerID, statement)
	}

	return statement, nil
}

// CachedStatementFor reads the cache first and falls back to a full
// reconciliation with default options on a miss.
func (b *Biller) CachedStatementFor(ctx context.Context, customerID uuid.UUID) (billing.Statement, error) {
	if b.cache != nil {
		if s, ok := b.cache.Get(customerID); ok {
			return s, nil
		}
	}
	return b.StatementFor(ctx, customerID, StatementOptions{})
}

// Summary aggregates current-month statements across active customers for
// the vendor dashboard.
type Summary struct {
	Customers    int `json:"customers"`
	TotalDue     int `json:"total_due"`
	TotalPaid    int `json:"total_paid"`
	TotalPending int `json:"total_pending"`
	Owed         int `json:"owed"`
	Settled      int `json:"settled"`
	Credit       int `json:"credit"`
}

// Summarize reconciles every active customer for the current month. Pending
// amounts are clamped before aggregation so credits do not hide dues.
func (b *Biller) Summarize(ctx context.Context) (Summary, error) {
	active := true
	customers, err := b.customers.List(ctx, CustomerFilter{Active: &active})
	if err != nil {
		return Summary{}, fmt.Errorf("cannot list customers: %w", err)
	}

	var sum Summary
	for _, c := range customers {
		statement, err := b.CachedStatementFor(ctx, c.ID)
		if err != nil {
			b.logger.Errorf("cannot reconcile customer %s: %v", c.ID, err)
			continue
		}

		sum.Customers++
		sum.TotalDue += statement.TotalDue
		sum.TotalPaid += statement.TotalPaid
		sum.TotalPending += statement.PendingClamped()

		switch BucketFor(statement) {
		case BucketOwed:
			sum.Owed++
		case BucketCredit:
			sum.Credit++
		default:
			sum.Settled++
		}
	}

	return sum, nil
}
