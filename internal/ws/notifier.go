package ws

import "github.com/Sudarshan2323/Resto/internal/model"

// Event types pushed to dashboard clients.
const (
	EventTableUpdated = "table.updated"
	EventSaleRecorded = "sale.recorded"
)

// Notifier adapts the hub to the lifecycle engine's notification contract.
type Notifier struct {
	hub *Hub
}

// NewNotifier wraps a hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// TableChanged broadcasts the committed table state.
func (n *Notifier) TableChanged(table model.Table) {
	n.hub.Broadcast(EventTableUpdated, table)
}

// SaleRecorded broadcasts a freshly settled sale.
func (n *Notifier) SaleRecorded(sale model.Sale) {
	n.hub.Broadcast(EventSaleRecorded, sale)
}
