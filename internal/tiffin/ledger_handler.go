package tiffin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/tiffinclub/tiffin/pkg/event"
)

// LedgerHandler serves the append-only side of the ledger: daily attendance
// marks and payment records.
type LedgerHandler struct {
	customers  CustomerRepo
	attendance AttendanceRepo
	payments   PaymentRepo
	publisher  events.Publisher
	logger     apt.Logger
	config     *apt.Config
	tlm        *telemetry.HTTP
}

func NewLedgerHandler(customers CustomerRepo, attendance AttendanceRepo, payments PaymentRepo, publisher events.Publisher, config *apt.Config, logger apt.Logger) *LedgerHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &LedgerHandler{
		customers:  customers,
		attendance: attendance,
		payments:   payments,
		publisher:  publisher,
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
	}
}

func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers/{id}", func(r chi.Router) {
		r.Put("/attendance/{date}", h.MarkAttendance)
		r.Get("/attendance", h.ListAttendance)
		r.Post("/payments", h.RecordPayment)
		r.Get("/payments", h.ListCustomerPayments)
	})
	r.Get("/payments", h.ListPayments)
}

func (h *LedgerHandler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// MarkAttendance upserts the attendance mark for a customer on a single day.
// Marking the same day twice replaces the previous mark.
func (h *LedgerHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "LedgerHandler.MarkAttendance")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	dateStr := chi.URLParam(r, "date")
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		log.Debug("invalid date parameter", "date", dateStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid date parameter, expected YYYY-MM-DD")
		return
	}

	mark, ok := decodePayload[Attendance](w, r, log)
	if !ok {
		return
	}

	if _, err := h.customers.Get(ctx, customerID); err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	mark.CustomerID = customerID
	mark.Date = date
	mark.EnsureID()
	mark.BeforeCreate()

	// Validate before normalizing so a cancelled day claiming meals is rejected
	if validationErrors := ValidateAttendance(mark); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	if mark.Cancelled {
		mark.MarkCancelled()
	}

	if err := h.attendance.Upsert(ctx, mark); err != nil {
		log.Error("cannot mark attendance", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not mark attendance")
		return
	}

	h.publishAttendanceMarked(ctx, mark)
	apt.RespondSuccess(w, mark)
}

func (h *LedgerHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "LedgerHandler.ListAttendance")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	rng, ok := parseRangeParams(w, r)
	if !ok {
		return
	}
	if rng.From.IsZero() && rng.To.IsZero() {
		rng = MonthOf(time.Now())
	}

	marks, err := h.attendance.ListByCustomer(ctx, customerID, rng)
	if err != nil {
		log.Errorf("cannot list attendance: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list attendance")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"attendance": marks,
	}, nil)
}

func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "LedgerHandler.RecordPayment")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	payment, ok := decodePayload[Payment](w, r, log)
	if !ok {
		return
	}

	if _, err := h.customers.Get(ctx, customerID); err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	payment.CustomerID = customerID
	payment.EnsureID()
	payment.BeforeCreate()

	if validationErrors := ValidateCreatePayment(payment); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.payments.Create(ctx, payment); err != nil {
		log.Error("cannot record payment", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not record payment")
		return
	}

	h.publishPaymentRecorded(ctx, payment)

	links := apt.RESTfulLinksFor(payment)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, payment, links...)
}

func (h *LedgerHandler) ListCustomerPayments(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "LedgerHandler.ListCustomerPayments")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	rng, ok := parseRangeParams(w, r)
	if !ok {
		return
	}

	filter := PaymentFilter{CustomerID: &customerID, Range: rng}
	if status := r.URL.Query().Get("status"); status != "" {
		ps := PaymentStatus(status)
		filter.Status = &ps
	}

	payments, err := h.payments.List(ctx, filter)
	if err != nil {
		log.Errorf("cannot list payments: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list payments")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
	}, nil)
}

func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "LedgerHandler.ListPayments")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	rng, ok := parseRangeParams(w, r)
	if !ok {
		return
	}

	filter := PaymentFilter{Range: rng}
	if status := r.URL.Query().Get("status"); status != "" {
		ps := PaymentStatus(status)
		filter.Status = &ps
	}

	payments, err := h.payments.List(ctx, filter)
	if err != nil {
		log.Errorf("cannot list payments: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list payments")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
	}, nil)
}

func (h *LedgerHandler) publishAttendanceMarked(ctx context.Context, mark *Attendance) {
	evt := event.AttendanceMarkedEvent{
		ActivityEventMetadata: event.ActivityEventMetadata{
			EventType:  event.EventAttendanceMarked,
			OccurredAt: time.Now(),
			CustomerID: mark.CustomerID.String(),
		},
		AttendanceID: mark.ID.String(),
		Date:         mark.Date.Format(time.DateOnly),
		LunchTaken:   mark.LunchTaken,
		DinnerTaken:  mark.DinnerTaken,
		GuestCount:   mark.GuestCount,
		Cancelled:    mark.Cancelled,
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.AttendanceTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish attendance.marked event: %v", err)
	}
}

func (h *LedgerHandler) publishPaymentRecorded(ctx context.Context, payment *Payment) {
	evt := event.PaymentRecordedEvent{
		ActivityEventMetadata: event.ActivityEventMetadata{
			EventType:  event.EventPaymentRecorded,
			OccurredAt: time.Now(),
			CustomerID: payment.CustomerID.String(),
		},
		PaymentID:   payment.ID.String(),
		Amount:      payment.Amount,
		PaymentType: string(payment.PaymentType),
		Mode:        payment.Mode,
		Status:      string(payment.Status),
	}
	if payment.SubscriptionID != nil {
		evt.SubscriptionID = payment.SubscriptionID.String()
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.PaymentsTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish payment.recorded event: %v", err)
	}
}

func parseRangeParams(w http.ResponseWriter, r *http.Request) (DateRange, bool) {
	var rng DateRange

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid from parameter, expected YYYY-MM-DD")
			return rng, false
		}
		rng.From = from
	}

	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid to parameter, expected YYYY-MM-DD")
			return rng, false
		}
		rng.To = to
	}

	return rng, true
}
