package tiffin

import (
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/tiffinclub/tiffin/internal/billing"
	"github.com/tiffinclub/tiffin/internal/report"
)

// BillingHandler serves the reconciliation endpoints: per-customer bills,
// the vendor dashboard summary, shareable reports, and price administration.
type BillingHandler struct {
	biller    *Biller
	customers CustomerRepo
	prices    PriceListRepo
	cache     *BalanceCache
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
}

func NewBillingHandler(biller *Biller, customers CustomerRepo, prices PriceListRepo, cache *BalanceCache, config *apt.Config, logger apt.Logger) *BillingHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BillingHandler{
		biller:    biller,
		customers: customers,
		prices:    prices,
		cache:     cache,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers/{id}/bill", h.GetBill)
	r.Get("/customers/{id}/report", h.GetReport)
	r.Route("/billing", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
		r.Get("/prices", h.GetPrices)
		r.Put("/prices", h.UpdatePrices)
	})
}

func (h *BillingHandler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// GetBill reconciles a customer's ledger on demand. Query parameters select
// the billing mode, the period, and the guest valuation strategy; all are
// optional.
func (h *BillingHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BillingHandler.GetBill")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	opts, ok := parseStatementOptions(w, r)
	if !ok {
		return
	}

	if _, err := h.customers.Get(ctx, customerID); err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	statement, err := h.biller.StatementFor(ctx, customerID, opts)
	if err != nil {
		log.Errorf("cannot reconcile customer: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not compute bill")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"customer_id":     customerID,
		"statement":       statement,
		"pending_clamped": statement.PendingClamped(),
		"settled":         statement.Settled(),
	}, nil)
}

// GetSummary serves the vendor dashboard: current-month totals across active
// customers, computed through the balance cache.
func (h *BillingHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BillingHandler.GetSummary")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	summary, err := h.biller.Summarize(ctx)
	if err != nil {
		log.Errorf("cannot summarize billing: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not compute billing summary")
		return
	}

	apt.Respond(w, http.StatusOK, summary, nil)
}

// GetReport renders a customer's detailed statement for sharing. The report
// values guests at the average meal price, matching the bill the vendor
// hands out.
func (h *BillingHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BillingHandler.GetReport")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	customerID, ok := parseIDParam(w, r, log)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "whatsapp"
	}
	if format != "whatsapp" && format != "csv" {
		apt.RespondError(w, http.StatusBadRequest, "Invalid format, expected whatsapp or csv")
		return
	}

	customer, err := h.customers.Get(ctx, customerID)
	if err != nil {
		log.Errorf("cannot find customer: %v", err)
		apt.RespondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	opts, ok := parseStatementOptions(w, r)
	if !ok {
		return
	}
	opts.GuestValuation = billing.AverageMealPrice

	rng := opts.Range
	if rng.From.IsZero() && rng.To.IsZero() {
		rng = MonthOf(time.Now())
		opts.Range = rng
	}

	statement, err := h.biller.StatementFor(ctx, customerID, opts)
	if err != nil {
		log.Errorf("cannot reconcile customer: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not compute report")
		return
	}

	data := report.Data{
		CustomerName: customer.Name,
		Phone:        customer.Phone,
		From:         rng.From,
		To:           rng.To,
		Statement:    statement,
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="bill.csv"`)
		if err := report.WriteCSV(w, data); err != nil {
			log.Errorf("cannot write csv report: %v", err)
		}
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(report.WhatsApp(data)))
	}
}

func (h *BillingHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BillingHandler.GetPrices")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	priceList, err := h.prices.Get(ctx)
	if err != nil {
		log.Errorf("cannot load price list: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load prices")
		return
	}

	apt.Respond(w, http.StatusOK, priceList, nil)
}

// UpdatePrices replaces the vendor's price list. Every cached statement is
// invalidated since prices feed all of them.
func (h *BillingHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BillingHandler.UpdatePrices")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	priceList, ok := decodePayload[PriceList](w, r, log)
	if !ok {
		return
	}

	priceList.ID = PriceListID
	priceList.UpdatedAt = time.Now()

	if validationErrors := ValidatePriceList(priceList); len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		respondValidationErrors(w, validationErrors)
		return
	}

	if err := h.prices.Save(ctx, priceList); err != nil {
		log.Error("cannot save price list", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save prices")
		return
	}

	if h.cache != nil {
		h.cache.InvalidateAll()
	}

	apt.RespondSuccess(w, priceList)
}

func parseStatementOptions(w http.ResponseWriter, r *http.Request) (StatementOptions, bool) {
	var opts StatementOptions

	switch mode := r.URL.Query().Get("mode"); mode {
	case "":
	case string(billing.FixedPlan), string(billing.PerMeal):
		opts.Mode = billing.Mode(mode)
	default:
		apt.RespondError(w, http.StatusBadRequest, "Invalid mode, expected fixed_plan or per_meal")
		return opts, false
	}

	switch gv := r.URL.Query().Get("guest_valuation"); gv {
	case "":
	case string(billing.FlatRate), string(billing.AverageMealPrice):
		opts.GuestValuation = billing.GuestValuation(gv)
	default:
		apt.RespondError(w, http.StatusBadRequest, "Invalid guest_valuation, expected flat_rate or average_meal_price")
		return opts, false
	}

	rng, ok := parseRangeParams(w, r)
	if !ok {
		return opts, false
	}
	opts.Range = rng

	return opts, true
}
