// Package handler exposes the REST API. Handlers depend on narrow store and
// service interfaces, decode requests, map domain errors to status codes, and
// render response types with money formatted to two decimal places.
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Sudarshan2323/Resto/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// --- Shared response types ---

type menuItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

func toMenuItemResponse(m model.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price.StringFixed(2),
		Category: m.Category,
	}
}

type kotItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	Cancelled bool   `json:"cancelled"`
}

func toKOTItemResponse(i model.KOTItem) kotItemResponse {
	return kotItemResponse{
		ID:        i.ID,
		Name:      i.Name,
		Price:     i.Price.StringFixed(2),
		Quantity:  i.Quantity,
		Notes:     i.Notes,
		Cancelled: i.Cancelled,
	}
}

type kotResponse struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []kotItemResponse `json:"items"`
}

type tableResponse struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	Status         string        `json:"status"`
	OrderStartTime *time.Time    `json:"order_start_time,omitempty"`
	KOTs           []kotResponse `json:"kots"`
	CurrentBill    string        `json:"current_bill"`
	CaptainID      string        `json:"captain_id,omitempty"`
	CaptainName    string        `json:"captain_name,omitempty"`
}

func toTableResponse(t model.Table) tableResponse {
	kots := make([]kotResponse, len(t.KOTs))
	for i, kot := range t.KOTs {
		items := make([]kotItemResponse, len(kot.Items))
		for j, item := range kot.Items {
			items[j] = toKOTItemResponse(item)
		}
		kots[i] = kotResponse{ID: kot.ID, CreatedAt: kot.CreatedAt, Items: items}
	}
	return tableResponse{
		ID:             t.ID,
		Name:           t.Name,
		Category:       t.Category,
		Status:         t.Status,
		OrderStartTime: t.OrderStartTime,
		KOTs:           kots,
		CurrentBill:    t.CurrentBill.StringFixed(2),
		CaptainID:      t.CaptainID,
		CaptainName:    t.CaptainName,
	}
}

type saleResponse struct {
	ID          string            `json:"id"`
	TableID     string            `json:"table_id"`
	TableName   string            `json:"table_name"`
	CaptainID   string            `json:"captain_id,omitempty"`
	CaptainName string            `json:"captain_name,omitempty"`
	Amount      string            `json:"amount"`
	PaymentMode string            `json:"payment_mode"`
	Items       []kotItemResponse `json:"items"`
	SettledAt   time.Time         `json:"settled_at"`
}

func toSaleResponse(s model.Sale) saleResponse {
	items := make([]kotItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = toKOTItemResponse(item)
	}
	return saleResponse{
		ID:          s.ID,
		TableID:     s.TableID,
		TableName:   s.TableName,
		CaptainID:   s.CaptainID,
		CaptainName: s.CaptainName,
		Amount:      s.Amount.StringFixed(2),
		PaymentMode: s.PaymentMode,
		Items:       items,
		SettledAt:   s.SettledAt,
	}
}
