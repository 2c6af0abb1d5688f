package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store"
)

// MenuHandler handles menu catalog endpoints. Reads are open to all staff;
// writes are mounted admin-only by the router.
type MenuHandler struct {
	store store.MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store store.MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterReadRoutes registers catalog read endpoints.
func (h *MenuHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterWriteRoutes registers catalog write endpoints.
func (h *MenuHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type menuItemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

func (req menuItemRequest) validate() (decimal.Decimal, string) {
	if strings.TrimSpace(req.Name) == "" {
		return decimal.Zero, "name is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return decimal.Zero, "invalid price"
	}
	if price.IsNegative() {
		return decimal.Zero, "price must not be negative"
	}
	return price, ""
}

// --- Handlers ---

// List returns the full catalog in menu order.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	menu, err := h.store.ListMenu(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(menu))
	for i, m := range menu {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new catalog entry.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item := model.MenuItem{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
	}
	if err := h.store.CreateMenuItem(r.Context(), item); err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update modifies an existing catalog entry. Already-sent KOT items keep
// their snapshot prices.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	item := model.MenuItem{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
	}
	if err := h.store.UpdateMenuItem(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a catalog entry.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
