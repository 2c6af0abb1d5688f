package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sudarshan2323/Resto/internal/auth"
	"github.com/Sudarshan2323/Resto/internal/middleware"
	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/service"
	"github.com/Sudarshan2323/Resto/internal/store"
)

// TableReader defines the read methods needed by table handlers.
// Satisfied by both store implementations; narrow interface for testability.
type TableReader interface {
	GetTable(ctx context.Context, id string) (model.Table, error)
	ListTables(ctx context.Context) ([]model.Table, error)
}

// TableEngine defines the lifecycle operations needed by table handlers.
// Satisfied by *service.TableService.
type TableEngine interface {
	OpenKOT(ctx context.Context, tableID string, lines []service.KOTLine, captain service.Captain) (model.Table, error)
	CancelKOTItem(ctx context.Context, tableID, kotID, itemID, role, overridePin string) (model.Table, error)
	MoveTable(ctx context.Context, fromID, toID string) (model.Table, model.Table, error)
	GenerateBill(ctx context.Context, tableID string) (model.Table, error)
	SettleBill(ctx context.Context, tableID, paymentMode string) (model.Sale, error)
}

// TableHandler handles table lifecycle endpoints.
type TableHandler struct {
	reader TableReader
	engine TableEngine
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(reader TableReader, engine TableEngine) *TableHandler {
	return &TableHandler{reader: reader, engine: engine}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/kots", h.OpenKOT)
	r.Post("/{id}/kots/{kotID}/items/{itemID}/cancel", h.CancelItem)
	r.Post("/{id}/move/{to}", h.Move)
	r.Post("/{id}/bill", h.GenerateBill)
	r.Post("/{id}/settle", h.Settle)
}

// --- Request types ---

type kotLineRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

type openKOTRequest struct {
	Items []kotLineRequest `json:"items"`
}

type cancelItemRequest struct {
	OverridePin string `json:"override_pin"`
}

type settleRequest struct {
	PaymentMode string `json:"payment_mode"`
}

type moveResponse struct {
	From tableResponse `json:"from"`
	To   tableResponse `json:"to"`
}

// --- Handlers ---

// List returns every table in floor-plan order.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.reader.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single table.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	table, err := h.reader.GetTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get table", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// OpenKOT sends a kitchen order ticket to the table, opening it if needed.
func (h *TableHandler) OpenKOT(w http.ResponseWriter, r *http.Request) {
	var req openKOTRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.KOTLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = service.KOTLine{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		}
	}

	captain := service.Captain{}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		captain.ID = claims.UserID
		captain.Name = claims.Name
	}

	table, err := h.engine.OpenKOT(r.Context(), chi.URLParam(r, "id"), lines, captain)
	if err != nil {
		h.writeError(w, "open kot", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// CancelItem voids one item on a sent ticket. Captains must supply the
// override PIN; admins pass on role alone.
func (h *TableHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	var req cancelItemRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	role := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		role = claims.Role
	}

	table, err := h.engine.CancelKOTItem(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "kotID"), chi.URLParam(r, "itemID"),
		role, req.OverridePin)
	if err != nil {
		h.writeError(w, "cancel kot item", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// Move relocates the active order to another table.
func (h *TableHandler) Move(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.engine.MoveTable(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "to"))
	if err != nil {
		h.writeError(w, "move table", err)
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{From: toTableResponse(from), To: toTableResponse(to)})
}

// GenerateBill moves a running table to Billing.
func (h *TableHandler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	table, err := h.engine.GenerateBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "generate bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// Settle records the sale and frees the table.
func (h *TableHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sale, err := h.engine.SettleBill(r.Context(), chi.URLParam(r, "id"), req.PaymentMode)
	if err != nil {
		h.writeError(w, "settle bill", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleResponse(sale))
}

// writeError maps lifecycle errors to HTTP status codes.
func (h *TableHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrKOTNotFound),
		errors.Is(err, service.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyKOT),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrUnknownMenuItem),
		errors.Is(err, service.ErrSameTable),
		errors.Is(err, service.ErrEmptyPaymentMode):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrOverrideDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNoActiveOrder),
		errors.Is(err, service.ErrDestinationOccupied),
		errors.Is(err, service.ErrTableClosed),
		errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
