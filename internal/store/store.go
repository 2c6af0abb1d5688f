// Package store defines the contracts the table lifecycle service and the
// HTTP layer require from a backing store, together with the sentinel errors
// every implementation reports. Two implementations exist: memory (optionally
// file-backed) and postgres.
package store

import (
	"context"
	"errors"

	"github.com/Sudarshan2323/Resto/internal/model"
)

var (
	// ErrNotFound is returned for any lookup miss (table, sale, menu item,
	// user, online order).
	ErrNotFound = errors.New("not found")

	// ErrConflict signals concurrent-write contention. Nothing was
	// persisted; the caller may retry the whole operation.
	ErrConflict = errors.New("concurrent modification, retry")

	// ErrDuplicate is returned when a unique constraint (user email, entity
	// id) would be violated.
	ErrDuplicate = errors.New("already exists")
)

// TableStore is the authoritative registry of tables. All writes go through
// mutation closures executed atomically: the closure receives committed
// state, and either every change it makes is persisted or none is. A closure
// returning an error aborts the update with no mutation.
type TableStore interface {
	GetTable(ctx context.Context, id string) (model.Table, error)
	// ListTables returns tables in their stable floor-plan order.
	ListTables(ctx context.Context) ([]model.Table, error)
	// UpdateTable applies mutate to a single table as one atomic unit.
	UpdateTable(ctx context.Context, id string, mutate func(*model.Table) error) (model.Table, error)
	// UpdateTablePair applies mutate to two tables atomically. Implementations
	// must be deadlock-free under concurrent pair updates (lock in id order).
	UpdateTablePair(ctx context.Context, fromID, toID string, mutate func(from, to *model.Table) error) (model.Table, model.Table, error)
	// SettleTable atomically appends the sale produced by mutate to the sales
	// ledger and persists the mutated table. The two writes commit together.
	SettleTable(ctx context.Context, id string, mutate func(*model.Table) (model.Sale, error)) (model.Sale, error)
}

// SalesStore is the append-only sales ledger. Records are only ever created
// through TableStore.SettleTable; there is no update or delete.
type SalesStore interface {
	// ListSales returns sales in chronological settlement order.
	ListSales(ctx context.Context) ([]model.Sale, error)
}

// MenuStore is the menu catalog consulted when pricing KOT lines.
type MenuStore interface {
	ResolveMenuItem(ctx context.Context, id string) (model.MenuItem, error)
	ListMenu(ctx context.Context) ([]model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) error
	UpdateMenuItem(ctx context.Context, item model.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
}

// UserStore holds dashboard accounts.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id string) error
}

// OnlineOrderStore holds delivery-platform orders. Status updates go through
// the same atomic mutation-closure pattern as tables.
type OnlineOrderStore interface {
	ListOnlineOrders(ctx context.Context) ([]model.OnlineOrder, error)
	UpdateOnlineOrder(ctx context.Context, id string, mutate func(*model.OnlineOrder) error) (model.OnlineOrder, error)
}

// Store aggregates every contract; both implementations satisfy it.
type Store interface {
	TableStore
	SalesStore
	MenuStore
	UserStore
	OnlineOrderStore
}
