package tiffin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tiffinclub/tiffin/pkg/event"
)

const MaxBodyBytes = 1 << 20

type CustomerHandler struct {
	customers     CustomerRepo
	subscriptions SubscriptionRepo
	attendance    AttendanceRepo
	payments      PaymentRepo
	publisher     events.Publisher
	logger        apt.Logger
	config        *apt.Config
	tlm           *telemetry.HTTP
}

func NewCustomerHandler(customers CustomerRepo, subscriptions SubscriptionRepo, attendance AttendanceRepo, payments PaymentRepo, publisher events.Publisher, config *apt.Config, logger apt.Logger) *CustomerHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CustomerHandler{
		customers:     customers,
		subscriptions: subscriptions,
		attendance:    attendance,
		payments:      payments,
		publisher:     publisher,
		logger:        logger,
		config:        config,
		tlm:           telemetry.NewHTTP(),
	}
}

func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/{id}", h.GetCustomer)
		r.Put("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.ArchiveCustomer)
		r.Post("/{id}/restore", h.RestoreCustomer)
		r.Delete("/{id}/purge", h.PurgeCustomer)
		r.Post("/{id}/subscriptions", h.CreateSubscription)
		r.Post("/{id}/subscriptions/renew", h.RenewSubscription)
		r.Get("/{id}/subscriptions", h.ListSubscriptions)
	})
	r.Patch("/subscriptions/{id}/cancel", h.CancelSubscription)
}

func (h *CustomerHandler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.CreateCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customer, ok := decodePayload[Customer](w, r, log)
	if !ok {
		return
	}

	customer.EnsureID()
	customer.BeforeCreate()

	if validationErrors := ValidateCreateCustomer(customer); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.customers.Create(ctx, customer); err != nil {
		log.Error("cannot create customer", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create customer")
		return
	}

	links := apt.RESTfulLinksFor(customer)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, customer, links...)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.ListCustomers")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	filter := CustomerFilter{}

	if activeStr := r.URL.Query().Get("active"); activeStr != "" {
		active := activeStr == "true"
		filter.Active = &active
	}

	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		ct := CustomerType(typeStr)
		if ct != CustomerMonthly && ct != CustomerWalkIn {
			apt.RespondError(w, http.StatusBadRequest, "Invalid customer type")
			return
		}
		filter.CustomerType = &ct
	}

	if archivedStr := r.URL.Query().Get("archived"); archivedStr != "" {
		archived := archivedStr == "true"
		filter.Archived = &archived
	}

	customers, err := h.customers.List(ctx, filter)
	if err != nil {
		log.Errorf("cannot list customers: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list customers")
		return
	}

	apt.RespondCollection(w, customers, "/customers")
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.GetCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	links := apt.RESTfulLinksFor(customer)
	apt.RespondSuccess(w, customer, links...)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.UpdateCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	customer, ok := decodePayload[Customer](w, r, log)
	if !ok {
		return
	}

	existing, err := h.customers.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	customer.ID = id
	customer.CreatedAt = existing.CreatedAt
	customer.DeletedAt = existing.DeletedAt
	customer.BeforeUpdate()

	if validationErrors := ValidateCreateCustomer(customer); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.customers.Save(ctx, customer); err != nil {
		log.Error("cannot update customer", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update customer")
		return
	}

	links := apt.RESTfulLinksFor(customer)
	apt.RespondSuccess(w, customer, links...)
}

// ArchiveCustomer soft-deletes a customer. The ledger stays intact so the
// customer can be restored with history.
func (h *CustomerHandler) ArchiveCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.ArchiveCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	customer.Archive()

	if err := h.customers.Save(ctx, customer); err != nil {
		log.Error("cannot archive customer", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not archive customer")
		return
	}

	h.publishLifecycle(ctx, event.EventCustomerArchived, customer.ID)
	apt.RespondSuccess(w, customer)
}

func (h *CustomerHandler) RestoreCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.RestoreCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	if !customer.Archived() {
		apt.RespondError(w, http.StatusConflict, "Customer is not archived")
		return
	}

	customer.Restore()

	if err := h.customers.Save(ctx, customer); err != nil {
		log.Error("cannot restore customer", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not restore customer")
		return
	}

	h.publishLifecycle(ctx, event.EventCustomerRestored, customer.ID)
	apt.RespondSuccess(w, customer)
}

// PurgeCustomer permanently removes a customer along with their
// subscriptions, attendance, and payments.
func (h *CustomerHandler) PurgeCustomer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.PurgeCustomer")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	if !customer.Archived() {
		apt.RespondError(w, http.StatusConflict, "Customer must be archived before purge")
		return
	}

	if err := h.attendance.DeleteByCustomer(ctx, id); err != nil {
		log.Error("cannot purge attendance", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not purge customer")
		return
	}
	if err := h.payments.DeleteByCustomer(ctx, id); err != nil {
		log.Error("cannot purge payments", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not purge customer")
		return
	}
	if err := h.subscriptions.DeleteByCustomer(ctx, id); err != nil {
		log.Error("cannot purge subscriptions", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not purge customer")
		return
	}
	if err := h.customers.Delete(ctx, id); err != nil {
		log.Error("cannot purge customer", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not purge customer")
		return
	}

	h.publishLifecycle(ctx, event.EventCustomerArchived, id)
	apt.Respond(w, http.StatusNoContent, nil, nil)
}

func (h *CustomerHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.CreateSubscription")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	sub, ok := decodePayload[Subscription](w, r, log)
	if !ok {
		return
	}

	if _, err := h.customers.Get(ctx, customerID); err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	sub.CustomerID = customerID
	sub.EnsureID()
	sub.BeforeCreate()

	if validationErrors := ValidateCreateSubscription(sub); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	// One active subscription per customer
	existing, err := h.subscriptions.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		log.Errorf("cannot check active subscription: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create subscription")
		return
	}
	if existing != nil {
		apt.RespondError(w, http.StatusConflict, "Customer already has an active subscription")
		return
	}

	if err := h.subscriptions.Create(ctx, sub); err != nil {
		log.Error("cannot create subscription", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create subscription")
		return
	}

	links := apt.RESTfulLinksFor(sub)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, sub, links...)
}

func (h *CustomerHandler) RenewSubscription(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.RenewSubscription")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		PlanAmount int `json:"plan_amount"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
	}

	current, err := h.subscriptions.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		log.Errorf("cannot find active subscription: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not renew subscription")
		return
	}
	if current == nil {
		apt.RespondError(w, http.StatusNotFound, "No active subscription to renew")
		return
	}

	next := current.Renew(payload.PlanAmount)

	if err := h.subscriptions.Save(ctx, current); err != nil {
		log.Error("cannot complete subscription", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not renew subscription")
		return
	}

	if err := h.subscriptions.Create(ctx, next); err != nil {
		log.Error("cannot create renewed subscription", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not renew subscription")
		return
	}

	h.publishSubscription(ctx, event.EventSubscriptionRenewed, next)

	links := apt.RESTfulLinksFor(next)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, next, links...)
}

func (h *CustomerHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.ListSubscriptions")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	subs, err := h.subscriptions.ListByCustomer(ctx, customerID)
	if err != nil {
		log.Errorf("cannot list subscriptions: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list subscriptions")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
	}, nil)
}

func (h *CustomerHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CustomerHandler.CancelSubscription")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	sub, err := h.subscriptions.Get(ctx, id)
	if err != nil {
		log.Errorf("cannot find subscription: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Subscription not found")
		return
	}

	if sub.Status != SubscriptionActive {
		apt.RespondError(w, http.StatusConflict, "Subscription is not active")
		return
	}

	sub.Cancel()

	if err := h.subscriptions.Save(ctx, sub); err != nil {
		log.Error("cannot cancel subscription", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not cancel subscription")
		return
	}

	h.publishSubscription(ctx, event.EventSubscriptionCancelled, sub)
	apt.RespondSuccess(w, sub)
}

func (h *CustomerHandler) publishLifecycle(ctx context.Context, eventType string, customerID uuid.UUID) {
	evt := event.CustomerLifecycleEvent{
		ActivityEventMetadata: event.ActivityEventMetadata{
			EventType:  eventType,
			OccurredAt: time.Now(),
			CustomerID: customerID.String(),
		},
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.CustomersTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish %s event: %v", eventType, err)
	}
}

func (h *CustomerHandler) publishSubscription(ctx context.Context, eventType string, sub *Subscription) {
	evt := event.SubscriptionEvent{
		ActivityEventMetadata: event.ActivityEventMetadata{
			EventType:  eventType,
			OccurredAt: time.Now(),
			CustomerID: sub.CustomerID.String(),
		},
		SubscriptionID: sub.ID.String(),
		PlanAmount:     sub.PlanAmount,
		Status:         string(sub.Status),
	}

	eventBytes, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.CustomersTopic, eventBytes); err != nil {
		h.logger.Errorf("Failed to publish %s event: %v", eventType, err)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log apt.Logger) (*T, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return nil, false
	}

	var payload T
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}

	return &payload, true
}

func respondValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errors,
	})
}
