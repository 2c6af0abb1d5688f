package handler

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store"
)

// ReportsHandler computes sales reports. The ledger is small enough for a
// single restaurant that aggregation happens over the full sale list.
type ReportsHandler struct {
	store store.SalesStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store store.SalesStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/payment-summary", h.PaymentSummary)
	r.Get("/top-items", h.TopItems)
}

// --- Response types ---

type dailySalesResponse struct {
	Date         string `json:"date"`
	SaleCount    int    `json:"sale_count"`
	TotalRevenue string `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMode string `json:"payment_mode"`
	SaleCount   int    `json:"sale_count"`
	TotalAmount string `json:"total_amount"`
}

type topItemResponse struct {
	ItemID       string `json:"item_id"`
	ItemName     string `json:"item_name"`
	QuantitySold int    `json:"quantity_sold"`
	TotalRevenue string `json:"total_revenue"`
}

// --- Handlers ---

// DailySales returns per-day sale counts and revenue for a date range.
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sales, err := h.salesInRange(r, start, end)
	if err != nil {
		log.Printf("ERROR: daily sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	type bucket struct {
		count   int
		revenue decimal.Decimal
	}
	byDay := make(map[string]*bucket)
	for _, sale := range sales {
		day := sale.SettledAt.In(reportLocation()).Format("2006-01-02")
		b := byDay[day]
		if b == nil {
			b = &bucket{revenue: decimal.Zero}
			byDay[day] = b
		}
		b.count++
		b.revenue = b.revenue.Add(sale.Amount)
	}

	resp := make([]dailySalesResponse, 0, len(byDay))
	for day, b := range byDay {
		resp = append(resp, dailySalesResponse{
			Date:         day,
			SaleCount:    b.count,
			TotalRevenue: b.revenue.StringFixed(2),
		})
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].Date < resp[j].Date })

	writeJSON(w, http.StatusOK, resp)
}

// PaymentSummary returns the breakdown of revenue by payment mode.
func (h *ReportsHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sales, err := h.salesInRange(r, start, end)
	if err != nil {
		log.Printf("ERROR: payment summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	type bucket struct {
		count  int
		amount decimal.Decimal
	}
	byMode := make(map[string]*bucket)
	for _, sale := range sales {
		b := byMode[sale.PaymentMode]
		if b == nil {
			b = &bucket{amount: decimal.Zero}
			byMode[sale.PaymentMode] = b
		}
		b.count++
		b.amount = b.amount.Add(sale.Amount)
	}

	resp := make([]paymentSummaryResponse, 0, len(byMode))
	for mode, b := range byMode {
		resp = append(resp, paymentSummaryResponse{
			PaymentMode: mode,
			SaleCount:   b.count,
			TotalAmount: b.amount.StringFixed(2),
		})
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].PaymentMode < resp[j].PaymentMode })

	writeJSON(w, http.StatusOK, resp)
}

// TopItems returns the best sellers by quantity. Cancelled lines are
// excluded: a voided item was never served.
func (h *ReportsHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	sales, err := h.salesInRange(r, start, end)
	if err != nil {
		log.Printf("ERROR: top items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	type bucket struct {
		name     string
		quantity int
		revenue  decimal.Decimal
	}
	byItem := make(map[string]*bucket)
	for _, sale := range sales {
		for _, item := range sale.Items {
			if item.Cancelled {
				continue
			}
			b := byItem[item.ID]
			if b == nil {
				b = &bucket{name: item.Name, revenue: decimal.Zero}
				byItem[item.ID] = b
			}
			b.quantity += item.Quantity
			b.revenue = b.revenue.Add(item.LineTotal())
		}
	}

	resp := make([]topItemResponse, 0, len(byItem))
	for id, b := range byItem {
		resp = append(resp, topItemResponse{
			ItemID:       id,
			ItemName:     b.name,
			QuantitySold: b.quantity,
			TotalRevenue: b.revenue.StringFixed(2),
		})
	}
	sort.Slice(resp, func(i, j int) bool {
		if resp[i].QuantitySold != resp[j].QuantitySold {
			return resp[i].QuantitySold > resp[j].QuantitySold
		}
		return resp[i].ItemName < resp[j].ItemName
	})
	if len(resp) > limit {
		resp = resp[:limit]
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *ReportsHandler) salesInRange(r *http.Request, start, end time.Time) ([]model.Sale, error) {
	sales, err := h.store.ListSales(r.Context())
	if err != nil {
		return nil, err
	}
	var out []model.Sale
	for _, sale := range sales {
		if sale.SettledAt.Before(start) || !sale.SettledAt.Before(end) {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

// reportLocation returns the restaurant's local timezone (IST).
func reportLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// parseDateRange parses start_date and end_date query params in the
// restaurant's local timezone. Defaults to the last 30 days.
// Returns (start, end, error) where end is exclusive (next day midnight).
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	loc := reportLocation()
	now := time.Now().In(loc)

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -30)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before end_date")
	}
	return start, end, nil
}
