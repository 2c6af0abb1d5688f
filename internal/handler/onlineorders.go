package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store"
)

// allowedOrderTransitions is the delivery-order state machine. Orders only
// ever move forward.
var allowedOrderTransitions = map[string]string{
	enum.OnlineOrderStatusNew:            enum.OnlineOrderStatusAccepted,
	enum.OnlineOrderStatusAccepted:       enum.OnlineOrderStatusPreparing,
	enum.OnlineOrderStatusPreparing:      enum.OnlineOrderStatusOutForDelivery,
	enum.OnlineOrderStatusOutForDelivery: enum.OnlineOrderStatusCompleted,
}

var errInvalidOrderTransition = errors.New("invalid status transition")

// OnlineOrderHandler handles delivery-platform order endpoints.
type OnlineOrderHandler struct {
	store store.OnlineOrderStore
}

// NewOnlineOrderHandler creates a new OnlineOrderHandler.
func NewOnlineOrderHandler(store store.OnlineOrderStore) *OnlineOrderHandler {
	return &OnlineOrderHandler{store: store}
}

// RegisterRoutes registers online order endpoints on the given Chi router.
func (h *OnlineOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type onlineOrderResponse struct {
	ID       string                  `json:"id"`
	Platform string                  `json:"platform"`
	Items    []model.OnlineOrderItem `json:"items"`
	Total    string                  `json:"total"`
	Status   string                  `json:"status"`
	PlacedAt time.Time               `json:"placed_at"`
}

func toOnlineOrderResponse(o model.OnlineOrder) onlineOrderResponse {
	items := o.Items
	if items == nil {
		items = []model.OnlineOrderItem{}
	}
	return onlineOrderResponse{
		ID:       o.ID,
		Platform: o.Platform,
		Items:    items,
		Total:    o.Total.StringFixed(2),
		Status:   o.Status,
		PlacedAt: o.PlacedAt,
	}
}

// --- Handlers ---

// List returns every delivery order in arrival order.
func (h *OnlineOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOnlineOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list online orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]onlineOrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOnlineOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus advances an order one step along its state machine.
func (h *OnlineOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.store.UpdateOnlineOrder(r.Context(), chi.URLParam(r, "id"), func(o *model.OnlineOrder) error {
		if allowedOrderTransitions[o.Status] != req.Status {
			return fmt.Errorf("%s -> %s: %w", o.Status, req.Status, errInvalidOrderTransition)
		}
		o.Status = req.Status
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "online order not found"})
		case errors.Is(err, errInvalidOrderTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update online order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toOnlineOrderResponse(order))
}
