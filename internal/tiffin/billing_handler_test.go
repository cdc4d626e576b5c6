package tiffin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type billingFixture struct {
	customers  *MockCustomerRepo
	subs       *MockSubscriptionRepo
	attendance *MockAttendanceRepo
	payments   *MockPaymentRepo
	prices     *MockPriceListRepo
	cache      *BalanceCache
	handler    *BillingHandler
	router     chi.Router
}

func newBillingFixture() *billingFixture {
	f := &billingFixture{
		customers:  NewMockCustomerRepo(),
		subs:       NewMockSubscriptionRepo(),
		attendance: NewMockAttendanceRepo(),
		payments:   NewMockPaymentRepo(),
		prices:     NewMockPriceListRepo(),
		cache:      NewBalanceCache(DefaultBalanceTTL, apt.NewNoopLogger()),
	}

	biller := NewBiller(f.customers, f.subs, f.attendance, f.payments, f.prices, f.cache, apt.NewNoopLogger())
	f.handler = NewBillingHandler(biller, f.customers, f.prices, f.cache, apt.NewConfig(), apt.NewNoopLogger())

	r := chi.NewRouter()
	f.handler.RegisterRoutes(r)
	f.router = r

	return f
}

func (f *billingFixture) addCustomer(name string) *Customer {
	c := &Customer{Name: name}
	c.EnsureID()
	c.BeforeCreate()
	f.customers.AddCustomer(c)
	return c
}

func (f *billingFixture) addActivePlan(customerID uuid.UUID, amount int) *Subscription {
	now := time.Now()
	s := &Subscription{
		CustomerID: customerID,
		StartDate:  time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1),
		PlanAmount: amount,
	}
	s.EnsureID()
	s.BeforeCreate()
	f.subs.AddSubscription(s)
	return s
}

func (f *billingFixture) addMark(customerID uuid.UUID, day int, lunch, dinner bool, guests int) {
	now := time.Now()
	m := &Attendance{
		CustomerID:  customerID,
		Date:        time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC),
		LunchTaken:  lunch,
		DinnerTaken: dinner,
		GuestCount:  guests,
	}
	m.EnsureID()
	m.BeforeCreate()
	f.attendance.AddMark(m)
}

func (f *billingFixture) addPayment(customerID uuid.UUID, amount int) {
	now := time.Now()
	p := &Payment{
		CustomerID:  customerID,
		Amount:      amount,
		Status:      PaymentCompleted,
		PaymentDate: time.Date(now.Year(), now.Month(), 2, 0, 0, 0, 0, time.UTC),
	}
	p.EnsureID()
	f.payments.AddPayment(p)
}

func (f *billingFixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestBillingHandlerGetBillFixedPlan(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addActivePlan(c.ID, 3000)
	f.addMark(c.ID, 5, true, false, 0)

	w, resp := f.get(t, "/customers/"+c.ID.String()+"/bill")
	if w.Code != http.StatusOK {
		t.Fatalf("GetBill() status = %d, body %s", w.Code, w.Body.String())
	}

	data := resp["data"].(map[string]interface{})
	statement := data["statement"].(map[string]interface{})

	if got := statement["total_due"].(float64); got != 3000 {
		t.Errorf("total_due = %v, want 3000", got)
	}
	if got := statement["pending"].(float64); got != 3000 {
		t.Errorf("pending = %v, want 3000", got)
	}
}

func TestBillingHandlerGetBillOverpayment(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addActivePlan(c.ID, 3000)
	f.addPayment(c.ID, 3500)

	w, resp := f.get(t, "/customers/"+c.ID.String()+"/bill")
	if w.Code != http.StatusOK {
		t.Fatalf("GetBill() status = %d", w.Code)
	}

	data := resp["data"].(map[string]interface{})
	statement := data["statement"].(map[string]interface{})

	if got := statement["pending"].(float64); got != -500 {
		t.Errorf("pending = %v, want -500", got)
	}
	if got := data["pending_clamped"].(float64); got != 0 {
		t.Errorf("pending_clamped = %v, want 0", got)
	}
	if settled, _ := data["settled"].(bool); !settled {
		t.Error("overpaid bill should be settled")
	}
}

func TestBillingHandlerGetBillPerMeal(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Ravi")

	for day := 1; day <= 10; day++ {
		f.addMark(c.ID, day, true, day <= 5, 0)
	}
	f.addMark(c.ID, 11, false, false, 2)

	w, resp := f.get(t, "/customers/"+c.ID.String()+"/bill?mode=per_meal")
	if w.Code != http.StatusOK {
		t.Fatalf("GetBill() status = %d", w.Code)
	}

	data := resp["data"].(map[string]interface{})
	statement := data["statement"].(map[string]interface{})

	// 10 lunches at 50 plus 5 dinners at 70, guests at 40 flat
	if got := statement["meal_charges"].(float64); got != 850 {
		t.Errorf("meal_charges = %v, want 850", got)
	}
	if got := statement["guest_charges"].(float64); got != 80 {
		t.Errorf("guest_charges = %v, want 80", got)
	}
	if got := statement["total_due"].(float64); got != 930 {
		t.Errorf("total_due = %v, want 930", got)
	}
}

func TestBillingHandlerGetBillRejectsBadParams(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")

	tests := []struct {
		name  string
		query string
	}{
		{name: "badMode", query: "?mode=hourly"},
		{name: "badValuation", query: "?guest_valuation=double"},
		{name: "badFrom", query: "?from=notadate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := f.get(t, "/customers/"+c.ID.String()+"/bill"+tt.query)
			if w.Code != http.StatusBadRequest {
				t.Errorf("GetBill() status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestBillingHandlerGetSummary(t *testing.T) {
	f := newBillingFixture()

	owing := f.addCustomer("Asha")
	f.addActivePlan(owing.ID, 3000)

	settled := f.addCustomer("Ravi")
	f.addActivePlan(settled.ID, 2000)
	f.addPayment(settled.ID, 2000)

	credit := f.addCustomer("Meera")
	f.addActivePlan(credit.ID, 1000)
	f.addPayment(credit.ID, 1500)

	w, resp := f.get(t, "/billing/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("GetSummary() status = %d, body %s", w.Code, w.Body.String())
	}

	data := resp["data"].(map[string]interface{})

	if got := data["customers"].(float64); got != 3 {
		t.Errorf("customers = %v, want 3", got)
	}
	if got := data["total_due"].(float64); got != 6000 {
		t.Errorf("total_due = %v, want 6000", got)
	}
	if got := data["total_paid"].(float64); got != 3500 {
		t.Errorf("total_paid = %v, want 3500", got)
	}
	// Clamped pending: 3000 + 0 + 0, the credit does not offset dues
	if got := data["total_pending"].(float64); got != 3000 {
		t.Errorf("total_pending = %v, want 3000", got)
	}
	if got := data["owed"].(float64); got != 1 {
		t.Errorf("owed = %v, want 1", got)
	}
	if got := data["settled"].(float64); got != 1 {
		t.Errorf("settled = %v, want 1", got)
	}
	if got := data["credit"].(float64); got != 1 {
		t.Errorf("credit = %v, want 1", got)
	}
}

func TestBillingHandlerGetSummaryUsesCache(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addActivePlan(c.ID, 3000)

	if _, resp := f.get(t, "/billing/summary"); resp == nil {
		t.Fatal("no response")
	}

	if f.cache.Count() != 1 {
		t.Fatalf("cache count = %d, want 1", f.cache.Count())
	}
	if got := f.cache.GetByBucket(BucketOwed); len(got) != 1 {
		t.Errorf("owed bucket size = %d, want 1", len(got))
	}
}

func TestBillingHandlerGetReportWhatsApp(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha Patil")
	f.addActivePlan(c.ID, 3000)
	f.addMark(c.ID, 5, true, true, 1)
	f.addPayment(c.ID, 1000)

	req := httptest.NewRequest(http.MethodGet, "/customers/"+c.ID.String()+"/report", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetReport() status = %d, body %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !strings.Contains(body, "Asha Patil") {
		t.Error("report should name the customer")
	}
	// Plan 3000, guest at average of 50/70 = 60, paid 1000
	if !strings.Contains(body, "Pending: Rs 2060") {
		t.Errorf("report should show pending 2060, got:\n%s", body)
	}
}

func TestBillingHandlerGetReportCSV(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addActivePlan(c.ID, 3000)

	req := httptest.NewRequest(http.MethodGet, "/customers/"+c.ID.String()+"/report?format=csv", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetReport() status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %s, want text/csv", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "customer,phone,period") {
		t.Errorf("unexpected csv header: %s", lines[0])
	}
}

func TestBillingHandlerGetReportRejectsUnknownFormat(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")

	req := httptest.NewRequest(http.MethodGet, "/customers/"+c.ID.String()+"/report?format=pdf", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("GetReport() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestBillingHandlerPrices(t *testing.T) {
	f := newBillingFixture()

	// Defaults come back before any configuration
	w, resp := f.get(t, "/billing/prices")
	if w.Code != http.StatusOK {
		t.Fatalf("GetPrices() status = %d", w.Code)
	}
	data := resp["data"].(map[string]interface{})
	if got := data["guest_rate"].(float64); got != DefaultGuestRate {
		t.Errorf("guest_rate = %v, want %d", got, DefaultGuestRate)
	}

	// Update and read back
	body := `{"prices":[{"slot":"lunch","dish":"chapati_bhaji","amount":60},{"slot":"dinner","dish":"chapati_bhaji","amount":80}],"guest_rate":45}`
	req := httptest.NewRequest(http.MethodPut, "/billing/prices", bytes.NewBufferString(body))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("UpdatePrices() status = %d, body %s", w.Code, w.Body.String())
	}

	_, resp = f.get(t, "/billing/prices")
	data = resp["data"].(map[string]interface{})
	if got := data["guest_rate"].(float64); got != 45 {
		t.Errorf("guest_rate after update = %v, want 45", got)
	}
}

func TestBillingHandlerUpdatePricesValidation(t *testing.T) {
	f := newBillingFixture()

	tests := []struct {
		name string
		body string
	}{
		{name: "negativeGuestRate", body: `{"guest_rate":-5}`},
		{name: "negativeAmount", body: `{"prices":[{"slot":"lunch","dish":"rice_plate","amount":-10}],"guest_rate":40}`},
		{name: "unknownSlot", body: `{"prices":[{"slot":"breakfast","dish":"rice_plate","amount":30}],"guest_rate":40}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/billing/prices", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("UpdatePrices() status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestBillingHandlerUpdatePricesInvalidatesCache(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addActivePlan(c.ID, 3000)

	f.get(t, "/billing/summary")
	if f.cache.Count() != 1 {
		t.Fatalf("cache count = %d, want 1", f.cache.Count())
	}

	body := `{"prices":[{"slot":"lunch","dish":"chapati_bhaji","amount":55}],"guest_rate":40}`
	req := httptest.NewRequest(http.MethodPut, "/billing/prices", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("UpdatePrices() status = %d", w.Code)
	}
	if f.cache.Count() != 0 {
		t.Errorf("cache count after price change = %d, want 0", f.cache.Count())
	}
}

func TestBillingHandlerGetBillUnknownCustomer(t *testing.T) {
	f := newBillingFixture()

	w, _ := f.get(t, "/customers/"+uuid.New().String()+"/bill")
	if w.Code != http.StatusNotFound {
		t.Errorf("GetBill() status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestBillingHandlerGetBillInternalError(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")

	f.prices.GetFunc = func(ctx context.Context) (*PriceList, error) {
		return nil, errors.New("database error")
	}

	w, _ := f.get(t, "/customers/"+c.ID.String()+"/bill")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("GetBill() status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestBillingHandlerReportDoesNotSkewSummary(t *testing.T) {
	f := newBillingFixture()
	c := f.addCustomer("Asha")
	f.addMark(c.ID, 10, true, false, 3)

	// 1 lunch at 50 plus 3 guests at the flat rate of 40
	wantDue := float64(DefaultLunchPrice + 3*DefaultGuestRate)

	w, _ := f.get(t, "/customers/"+c.ID.String()+"/report")
	if w.Code != http.StatusOK {
		t.Fatalf("GetReport() status = %d", w.Code)
	}

	w, resp := f.get(t, "/billing/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("GetSummary() status = %d", w.Code)
	}

	data := resp["data"].(map[string]interface{})
	if data["total_due"].(float64) != wantDue {
		t.Errorf("summary total_due = %v, want %v (report valuation must not leak in)", data["total_due"], wantDue)
	}
}
