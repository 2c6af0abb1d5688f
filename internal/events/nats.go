// Package events publishes committed lifecycle changes to NATS so kitchen
// displays and other services can react without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Sudarshan2323/Resto/internal/model"
)

// Subjects published by the engine.
const (
	SubjectTableStatus  = "tables.status"
	SubjectSaleRecorded = "sales.recorded"
)

// TableStatusEvent is the wire payload for table changes.
type TableStatusEvent struct {
	TableID     string    `json:"table_id"`
	TableName   string    `json:"table_name"`
	Status      string    `json:"status"`
	CurrentBill string    `json:"current_bill"`
	CaptainName string    `json:"captain_name,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// SaleRecordedEvent is the wire payload for settlements.
type SaleRecordedEvent struct {
	SaleID      string    `json:"sale_id"`
	TableID     string    `json:"table_id"`
	TableName   string    `json:"table_name"`
	Amount      string    `json:"amount"`
	PaymentMode string    `json:"payment_mode"`
	SettledAt   time.Time `json:"settled_at"`
}

// Publisher pushes lifecycle events onto NATS. Implements the engine's
// notification contract; publish failures are logged and never propagate.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials the NATS server.
func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("resto-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Printf("ERROR: drain nats: %v", err)
	}
}

func (p *Publisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", subject, err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		log.Printf("ERROR: publish %s: %v", subject, err)
	}
}

// TableChanged publishes the table's new status.
func (p *Publisher) TableChanged(table model.Table) {
	p.publish(SubjectTableStatus, TableStatusEvent{
		TableID:     table.ID,
		TableName:   table.Name,
		Status:      string(table.Status),
		CurrentBill: table.CurrentBill.StringFixed(2),
		CaptainName: table.CaptainName,
		OccurredAt:  time.Now().UTC(),
	})
}

// SaleRecorded publishes a settlement.
func (p *Publisher) SaleRecorded(sale model.Sale) {
	p.publish(SubjectSaleRecorded, SaleRecordedEvent{
		SaleID:      sale.ID,
		TableID:     sale.TableID,
		TableName:   sale.TableName,
		Amount:      sale.Amount.StringFixed(2),
		PaymentMode: sale.PaymentMode,
		SettledAt:   sale.SettledAt,
	})
}
