// Package model holds the domain entities shared by the stores, the table
// lifecycle service, and the HTTP layer. Money is carried as decimal.Decimal
// everywhere; timestamps serialize as RFC 3339 strings.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/enum"
)

// MenuItem is a catalog entry. The lifecycle service copies it by value into
// KOT items, so later catalog edits never change an already-sent ticket.
type MenuItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// KOTItem is a menu item snapshot plus order quantity. Once the ticket is
// sent to the kitchen the item is immutable except for Cancelled, which only
// ever flips false→true.
type KOTItem struct {
	MenuItem
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// LineTotal is price × quantity regardless of cancellation state.
func (i KOTItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// KOT is one kitchen order ticket: a batch of items sent at one time.
type KOT struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Items     []KOTItem `json:"items"`
}

// Table is a physical or logical dining table. KOTs accumulate in
// chronological order; CurrentBill is maintained incrementally as tickets
// are added and items voided.
type Table struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Status         string          `json:"status"`
	OrderStartTime *time.Time      `json:"order_start_time,omitempty"`
	KOTs           []KOT           `json:"kots"`
	CurrentBill    decimal.Decimal `json:"current_bill"`
	CaptainID      string          `json:"captain_id,omitempty"`
	CaptainName    string          `json:"captain_name,omitempty"`
}

// ItemsTotal recomputes the bill from scratch: the sum of price × quantity
// over every non-cancelled item across all KOTs. CurrentBill must always
// equal this value; tests assert it after every lifecycle operation.
func (t Table) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, kot := range t.KOTs {
		for _, item := range kot.Items {
			if item.Cancelled {
				continue
			}
			total = total.Add(item.LineTotal())
		}
	}
	return total
}

// FlattenItems returns every KOT item in chronological order, including
// cancelled ones. Used to build the audit item list on a Sale.
func (t Table) FlattenItems() []KOTItem {
	var items []KOTItem
	for _, kot := range t.KOTs {
		items = append(items, kot.Items...)
	}
	return items
}

// ResetToAvailable restores the Available baseline: no KOTs, zero bill, no
// captain, no order start time. Identity fields (ID, Name, Category) keep
// their values.
func (t *Table) ResetToAvailable() {
	t.Status = enum.TableStatusAvailable
	t.OrderStartTime = nil
	t.KOTs = nil
	t.CurrentBill = decimal.Zero
	t.CaptainID = ""
	t.CaptainName = ""
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate committed state through a shared slice.
func (t Table) Clone() Table {
	out := t
	if t.OrderStartTime != nil {
		ts := *t.OrderStartTime
		out.OrderStartTime = &ts
	}
	if t.KOTs != nil {
		out.KOTs = make([]KOT, len(t.KOTs))
		for i, kot := range t.KOTs {
			out.KOTs[i] = kot
			out.KOTs[i].Items = append([]KOTItem(nil), kot.Items...)
		}
	}
	return out
}

// Sale is the immutable settlement record appended to the sales ledger.
// Items include cancelled lines so the audit trail survives the table reset.
type Sale struct {
	ID          string          `json:"id"`
	TableID     string          `json:"table_id"`
	TableName   string          `json:"table_name"`
	CaptainID   string          `json:"captain_id,omitempty"`
	CaptainName string          `json:"captain_name,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode"`
	Items       []KOTItem       `json:"items"`
	SettledAt   time.Time       `json:"settled_at"`
}

// Clone returns a deep copy of the sale.
func (s Sale) Clone() Sale {
	out := s
	out.Items = append([]KOTItem(nil), s.Items...)
	return out
}

// User is a dashboard account: one admin plus any number of captains.
// Handlers never serialize this struct directly; they map to response types
// so the hash stays out of API payloads while still round-tripping through
// the state file.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password,omitempty"`
	Name           string `json:"name"`
	Role           string `json:"role"`
}

// OnlineOrderItem is a line on a delivery-platform order. Platform orders
// arrive priced, so only name and quantity are tracked.
type OnlineOrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OnlineOrder is an order pushed from a delivery platform (Zomato, Swiggy).
type OnlineOrder struct {
	ID       string            `json:"id"`
	Platform string            `json:"platform"`
	Items    []OnlineOrderItem `json:"items"`
	Total    decimal.Decimal   `json:"total"`
	Status   string            `json:"status"`
	PlacedAt time.Time         `json:"placed_at"`
}
