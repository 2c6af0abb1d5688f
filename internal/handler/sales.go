package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sudarshan2323/Resto/internal/store"
)

// SalesHandler exposes the read-only sales ledger. Records are only ever
// created through settlement.
type SalesHandler struct {
	store store.SalesStore
}

// NewSalesHandler creates a new SalesHandler.
func NewSalesHandler(store store.SalesStore) *SalesHandler {
	return &SalesHandler{store: store}
}

// RegisterRoutes registers the ledger endpoint on the given Chi router.
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List returns every sale in settlement order.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	sales, err := h.store.ListSales(r.Context())
	if err != nil {
		log.Printf("ERROR: list sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toSaleResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}
