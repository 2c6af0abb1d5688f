// Package service implements the table lifecycle engine: the invariant-
// preserving operations that take a dining table from Available through
// Running and Billing and back, accumulating kitchen order tickets and
// settling bills into the sales ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/model"
)

// Errors returned by the lifecycle operations.
var (
	ErrEmptyKOT            = errors.New("kot items are required")
	ErrInvalidQuantity     = errors.New("quantity must be >= 1")
	ErrUnknownMenuItem     = errors.New("unknown menu item")
	ErrKOTNotFound         = errors.New("kot not found")
	ErrItemNotFound        = errors.New("kot item not found")
	ErrNoActiveOrder       = errors.New("table has no active order")
	ErrDestinationOccupied = errors.New("destination table is occupied")
	ErrSameTable           = errors.New("source and destination are the same table")
	ErrTableClosed         = errors.New("table is closed for service")
	ErrEmptyPaymentMode    = errors.New("payment mode is required")
)

// TableStore is the registry contract the engine needs. Satisfied by both
// store implementations; narrow interface for testability.
type TableStore interface {
	UpdateTable(ctx context.Context, id string, mutate func(*model.Table) error) (model.Table, error)
	UpdateTablePair(ctx context.Context, fromID, toID string, mutate func(from, to *model.Table) error) (model.Table, model.Table, error)
	SettleTable(ctx context.Context, id string, mutate func(*model.Table) (model.Sale, error)) (model.Sale, error)
}

// MenuResolver prices KOT lines against the catalog.
type MenuResolver interface {
	ResolveMenuItem(ctx context.Context, id string) (model.MenuItem, error)
}

// Authorizer grants the elevated bill-edit capability required to void a
// billed item. Satisfied by auth.OverrideAuthorizer.
type Authorizer interface {
	AuthorizeVoid(role, overridePin string) error
}

// Notifier receives committed state changes. Implementations fan the change
// out to live UI subscriptions or a message bus; errors there never affect
// the committed operation.
type Notifier interface {
	TableChanged(table model.Table)
	SaleRecorded(sale model.Sale)
}

// Captain identifies the acting floor-staff member, supplied by the
// authentication collaborator.
type Captain struct {
	ID   string
	Name string
}

// KOTLine is one requested line of a kitchen order ticket.
type KOTLine struct {
	MenuItemID string
	Quantity   int
	Notes      string
}

// TableService is the lifecycle engine.
type TableService struct {
	tables    TableStore
	menu      MenuResolver
	authz     Authorizer
	notifiers []Notifier
	now       func() time.Time
}

// NewTableService creates the engine. Zero or more notifiers may be wired.
func NewTableService(tables TableStore, menu MenuResolver, authz Authorizer, notifiers ...Notifier) *TableService {
	return &TableService{
		tables:    tables,
		menu:      menu,
		authz:     authz,
		notifiers: notifiers,
		now:       time.Now,
	}
}

func (s *TableService) notifyTable(t model.Table) {
	for _, n := range s.notifiers {
		n.TableChanged(t)
	}
}

func (s *TableService) notifySale(sale model.Sale) {
	for _, n := range s.notifiers {
		n.SaleRecorded(sale)
	}
}

// OpenKOT creates a kitchen order ticket and appends it to the table,
// opening the table if it was available. Repeated lines for the same menu
// item are merged with cumulative quantity before the ticket is sent. The
// acting captain always takes over the table (last ticket's captain wins).
// Adding a ticket while the table is Billing is allowed: the kitchen may
// still send late items before settlement.
func (s *TableService) OpenKOT(ctx context.Context, tableID string, lines []KOTLine, captain Captain) (model.Table, error) {
	if len(lines) == 0 {
		return model.Table{}, ErrEmptyKOT
	}

	// Resolve and merge lines before touching the table so a validation
	// failure mutates nothing.
	var items []model.KOTItem
	index := make(map[string]int)
	for i, line := range lines {
		if line.Quantity < 1 {
			return model.Table{}, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItem, err := s.menu.ResolveMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return model.Table{}, fmt.Errorf("items[%d] %s: %w", i, line.MenuItemID, ErrUnknownMenuItem)
		}
		if at, ok := index[menuItem.ID]; ok {
			items[at].Quantity += line.Quantity
			if line.Notes != "" {
				items[at].Notes = line.Notes
			}
			continue
		}
		index[menuItem.ID] = len(items)
		items = append(items, model.KOTItem{
			MenuItem: menuItem,
			Quantity: line.Quantity,
			Notes:    line.Notes,
		})
	}

	now := s.now()
	kot := model.KOT{
		ID:        newID("kot", now),
		CreatedAt: now,
		Items:     items,
	}
	kotTotal := decimal.Zero
	for _, item := range kot.Items {
		kotTotal = kotTotal.Add(item.LineTotal())
	}

	updated, err := s.tables.UpdateTable(ctx, tableID, func(t *model.Table) error {
		if t.Status == enum.TableStatusClosed {
			return ErrTableClosed
		}
		if t.Status == enum.TableStatusAvailable {
			t.Status = enum.TableStatusRunning
			start := now
			t.OrderStartTime = &start
		}
		t.KOTs = append(t.KOTs, kot)
		t.CurrentBill = t.CurrentBill.Add(kotTotal)
		t.CaptainID = captain.ID
		t.CaptainName = captain.Name
		return nil
	})
	if err != nil {
		return model.Table{}, err
	}
	s.notifyTable(updated)
	return updated, nil
}

// CancelKOTItem voids one item on a sent ticket and deducts its line total
// from the running bill, clamped at zero. The item stays in the KOT history
// with a cancelled marker. Voiding an already-cancelled item is an
// idempotent no-op. Requires the bill-edit capability: the authorizer is
// consulted before any state is read or written.
func (s *TableService) CancelKOTItem(ctx context.Context, tableID, kotID, itemID, role, overridePin string) (model.Table, error) {
	if err := s.authz.AuthorizeVoid(role, overridePin); err != nil {
		return model.Table{}, err
	}

	changed := false
	updated, err := s.tables.UpdateTable(ctx, tableID, func(t *model.Table) error {
		for ki := range t.KOTs {
			if t.KOTs[ki].ID != kotID {
				continue
			}
			for ii := range t.KOTs[ki].Items {
				item := &t.KOTs[ki].Items[ii]
				if item.MenuItem.ID != itemID {
					continue
				}
				if item.Cancelled {
					return nil
				}
				item.Cancelled = true
				t.CurrentBill = t.CurrentBill.Sub(item.LineTotal())
				if t.CurrentBill.IsNegative() {
					t.CurrentBill = decimal.Zero
				}
				changed = true
				return nil
			}
			return fmt.Errorf("kot %s item %s: %w", kotID, itemID, ErrItemNotFound)
		}
		return fmt.Errorf("kot %s: %w", kotID, ErrKOTNotFound)
	})
	if err != nil {
		return model.Table{}, err
	}
	if changed {
		s.notifyTable(updated)
	}
	return updated, nil
}

// MoveTable relocates the active order from one table to another. Only the
// occupancy state moves; each table keeps its own name and category. The
// destination must be available, the source must not be, and the operation
// is all-or-nothing across both tables.
func (s *TableService) MoveTable(ctx context.Context, fromID, toID string) (model.Table, model.Table, error) {
	if fromID == toID {
		return model.Table{}, model.Table{}, ErrSameTable
	}
	from, to, err := s.tables.UpdateTablePair(ctx, fromID, toID, func(from, to *model.Table) error {
		if to.Status != enum.TableStatusAvailable {
			return fmt.Errorf("table %s: %w", to.ID, ErrDestinationOccupied)
		}
		if from.Status == enum.TableStatusAvailable {
			return fmt.Errorf("table %s: %w", from.ID, ErrNoActiveOrder)
		}
		if from.Status == enum.TableStatusClosed {
			return fmt.Errorf("table %s: %w", from.ID, ErrTableClosed)
		}
		to.Status = from.Status
		to.OrderStartTime = from.OrderStartTime
		to.KOTs = from.KOTs
		to.CurrentBill = from.CurrentBill
		to.CaptainID = from.CaptainID
		to.CaptainName = from.CaptainName
		from.ResetToAvailable()
		return nil
	})
	if err != nil {
		return model.Table{}, model.Table{}, err
	}
	s.notifyTable(from)
	s.notifyTable(to)
	return from, to, nil
}

// GenerateBill transitions a running table to Billing. The bill amount is
// already maintained incrementally; nothing is recomputed here.
func (s *TableService) GenerateBill(ctx context.Context, tableID string) (model.Table, error) {
	updated, err := s.tables.UpdateTable(ctx, tableID, func(t *model.Table) error {
		switch t.Status {
		case enum.TableStatusAvailable:
			return fmt.Errorf("table %s: %w", t.ID, ErrNoActiveOrder)
		case enum.TableStatusClosed:
			return fmt.Errorf("table %s: %w", t.ID, ErrTableClosed)
		}
		t.Status = enum.TableStatusBilling
		return nil
	})
	if err != nil {
		return model.Table{}, err
	}
	s.notifyTable(updated)
	return updated, nil
}

// SettleBill records a sale for the table's current bill and frees the
// table, atomically across the registry and the sales ledger. Settlement is
// permitted from Running as well as Billing; the sale amount is the
// incrementally maintained bill, taken as-is. Items are flattened from all
// KOTs, cancelled lines included, for the audit trail.
func (s *TableService) SettleBill(ctx context.Context, tableID, paymentMode string) (model.Sale, error) {
	if paymentMode == "" {
		return model.Sale{}, ErrEmptyPaymentMode
	}

	now := s.now()
	var settled model.Table
	sale, err := s.tables.SettleTable(ctx, tableID, func(t *model.Table) (model.Sale, error) {
		switch t.Status {
		case enum.TableStatusAvailable:
			return model.Sale{}, fmt.Errorf("table %s: %w", t.ID, ErrNoActiveOrder)
		case enum.TableStatusClosed:
			return model.Sale{}, fmt.Errorf("table %s: %w", t.ID, ErrTableClosed)
		}
		sale := model.Sale{
			ID:          newID("sale", now),
			TableID:     t.ID,
			TableName:   t.Name,
			CaptainID:   t.CaptainID,
			CaptainName: t.CaptainName,
			Amount:      t.CurrentBill,
			PaymentMode: paymentMode,
			Items:       t.FlattenItems(),
			SettledAt:   now,
		}
		t.ResetToAvailable()
		settled = *t
		return sale, nil
	})
	if err != nil {
		return model.Sale{}, err
	}
	s.notifyTable(settled)
	s.notifySale(sale)
	return sale, nil
}

// newID builds a unique, time-ordered id like kot-1756500000000-1a2b3c4d.
func newID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), uuid.NewString()[:8])
}
