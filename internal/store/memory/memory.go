// Package memory provides the in-memory store implementation. A single
// writer lock serializes every mutation, which makes the two-table move and
// the table+ledger settlement trivially atomic; readers take the shared lock
// and receive deep copies of committed state only.
//
// With a state file configured the store snapshots itself to disk after each
// committed write and reloads on startup, giving the same durability as the
// original file-backed JSON database without changing any semantics.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store"
)

// Store implements store.Store.
type Store struct {
	mu sync.RWMutex

	tables     map[string]*model.Table
	tableOrder []string
	sales      []model.Sale
	menu       map[string]*model.MenuItem
	menuOrder  []string
	users      map[string]*model.User
	userOrder  []string
	orders     map[string]*model.OnlineOrder
	orderOrder []string

	stateFile string
}

// state is the on-disk snapshot layout: one record per table keyed by id in
// floor order, plus the append-only collections.
type state struct {
	Tables       []model.Table       `json:"tables"`
	Sales        []model.Sale        `json:"sales"`
	Menu         []model.MenuItem    `json:"menu"`
	Users        []model.User        `json:"users"`
	OnlineOrders []model.OnlineOrder `json:"online_orders"`
}

// New creates an empty store. If stateFile is non-empty and the file exists,
// the previous snapshot is loaded.
func New(stateFile string) (*Store, error) {
	s := &Store{
		tables:    make(map[string]*model.Table),
		menu:      make(map[string]*model.MenuItem),
		users:     make(map[string]*model.User),
		orders:    make(map[string]*model.OnlineOrder),
		stateFile: stateFile,
	}
	if stateFile != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse state file %s: %w", s.stateFile, err)
	}
	for i := range st.Tables {
		t := st.Tables[i]
		s.tables[t.ID] = &t
		s.tableOrder = append(s.tableOrder, t.ID)
	}
	s.sales = st.Sales
	for i := range st.Menu {
		m := st.Menu[i]
		s.menu[m.ID] = &m
		s.menuOrder = append(s.menuOrder, m.ID)
	}
	for i := range st.Users {
		u := st.Users[i]
		s.users[u.ID] = &u
		s.userOrder = append(s.userOrder, u.ID)
	}
	for i := range st.OnlineOrders {
		o := st.OnlineOrders[i]
		s.orders[o.ID] = &o
		s.orderOrder = append(s.orderOrder, o.ID)
	}
	return nil
}

// saveLocked snapshots the store to the state file. Callers hold the write
// lock. Written via a temp file and rename so a crash never truncates the
// previous snapshot.
func (s *Store) saveLocked() error {
	if s.stateFile == "" {
		return nil
	}
	st := state{
		Tables:       s.listTablesLocked(),
		Sales:        s.sales,
		Menu:         s.listMenuLocked(),
		Users:        s.listUsersLocked(),
		OnlineOrders: s.listOrdersLocked(),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.stateFile + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return os.Rename(tmp, s.stateFile)
}

// Empty reports whether the store holds no tables yet (fresh install, no
// snapshot). cmd/server seeds the default floor plan in that case.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables) == 0
}

// Seed loads the initial floor plan, menu, and accounts. Existing ids are
// left untouched so seeding an already-populated store is a no-op.
func (s *Store) Seed(tables []model.Table, menu []model.MenuItem, users []model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tables {
		if _, ok := s.tables[t.ID]; ok {
			continue
		}
		c := t.Clone()
		s.tables[t.ID] = &c
		s.tableOrder = append(s.tableOrder, t.ID)
	}
	for _, m := range menu {
		if _, ok := s.menu[m.ID]; ok {
			continue
		}
		c := m
		s.menu[m.ID] = &c
		s.menuOrder = append(s.menuOrder, m.ID)
	}
	for _, u := range users {
		if _, ok := s.users[u.ID]; ok {
			continue
		}
		c := u
		s.users[u.ID] = &c
		s.userOrder = append(s.userOrder, u.ID)
	}
	return s.saveLocked()
}

// AddOnlineOrder registers a delivery-platform order (used by seeding and by
// the platform webhook collaborator).
func (s *Store) AddOnlineOrder(o model.OnlineOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("online order %s: %w", o.ID, store.ErrDuplicate)
	}
	c := o
	c.Items = append([]model.OnlineOrderItem(nil), o.Items...)
	s.orders[o.ID] = &c
	s.orderOrder = append(s.orderOrder, o.ID)
	return s.saveLocked()
}

// ── TableStore ──

func (s *Store) GetTable(ctx context.Context, id string) (model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return model.Table{}, fmt.Errorf("table %s: %w", id, store.ErrNotFound)
	}
	return t.Clone(), nil
}

func (s *Store) ListTables(ctx context.Context) ([]model.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTablesLocked(), nil
}

func (s *Store) listTablesLocked() []model.Table {
	out := make([]model.Table, 0, len(s.tableOrder))
	for _, id := range s.tableOrder {
		out = append(out, s.tables[id].Clone())
	}
	return out
}

func (s *Store) UpdateTable(ctx context.Context, id string, mutate func(*model.Table) error) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tables[id]
	if !ok {
		return model.Table{}, fmt.Errorf("table %s: %w", id, store.ErrNotFound)
	}
	next := cur.Clone()
	if err := mutate(&next); err != nil {
		return model.Table{}, err
	}
	s.tables[id] = &next
	if err := s.saveLocked(); err != nil {
		s.tables[id] = cur
		return model.Table{}, err
	}
	return next.Clone(), nil
}

func (s *Store) UpdateTablePair(ctx context.Context, fromID, toID string, mutate func(from, to *model.Table) error) (model.Table, model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	curFrom, ok := s.tables[fromID]
	if !ok {
		return model.Table{}, model.Table{}, fmt.Errorf("table %s: %w", fromID, store.ErrNotFound)
	}
	curTo, ok := s.tables[toID]
	if !ok {
		return model.Table{}, model.Table{}, fmt.Errorf("table %s: %w", toID, store.ErrNotFound)
	}
	nextFrom, nextTo := curFrom.Clone(), curTo.Clone()
	if err := mutate(&nextFrom, &nextTo); err != nil {
		return model.Table{}, model.Table{}, err
	}
	s.tables[fromID] = &nextFrom
	s.tables[toID] = &nextTo
	if err := s.saveLocked(); err != nil {
		s.tables[fromID] = curFrom
		s.tables[toID] = curTo
		return model.Table{}, model.Table{}, err
	}
	return nextFrom.Clone(), nextTo.Clone(), nil
}

func (s *Store) SettleTable(ctx context.Context, id string, mutate func(*model.Table) (model.Sale, error)) (model.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tables[id]
	if !ok {
		return model.Sale{}, fmt.Errorf("table %s: %w", id, store.ErrNotFound)
	}
	next := cur.Clone()
	sale, err := mutate(&next)
	if err != nil {
		return model.Sale{}, err
	}
	s.tables[id] = &next
	s.sales = append(s.sales, sale.Clone())
	if err := s.saveLocked(); err != nil {
		s.tables[id] = cur
		s.sales = s.sales[:len(s.sales)-1]
		return model.Sale{}, err
	}
	return sale, nil
}

// ── SalesStore ──

func (s *Store) ListSales(ctx context.Context) ([]model.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Sale, len(s.sales))
	for i, sale := range s.sales {
		out[i] = sale.Clone()
	}
	return out, nil
}

// ── MenuStore ──

func (s *Store) ResolveMenuItem(ctx context.Context, id string) (model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menu[id]
	if !ok {
		return model.MenuItem{}, fmt.Errorf("menu item %s: %w", id, store.ErrNotFound)
	}
	return *m, nil
}

func (s *Store) ListMenu(ctx context.Context) ([]model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMenuLocked(), nil
}

func (s *Store) listMenuLocked() []model.MenuItem {
	out := make([]model.MenuItem, 0, len(s.menuOrder))
	for _, id := range s.menuOrder {
		out = append(out, *s.menu[id])
	}
	return out
}

func (s *Store) CreateMenuItem(ctx context.Context, item model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[item.ID]; ok {
		return fmt.Errorf("menu item %s: %w", item.ID, store.ErrDuplicate)
	}
	c := item
	s.menu[item.ID] = &c
	s.menuOrder = append(s.menuOrder, item.ID)
	return s.saveLocked()
}

func (s *Store) UpdateMenuItem(ctx context.Context, item model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[item.ID]; !ok {
		return fmt.Errorf("menu item %s: %w", item.ID, store.ErrNotFound)
	}
	c := item
	s.menu[item.ID] = &c
	return s.saveLocked()
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[id]; !ok {
		return fmt.Errorf("menu item %s: %w", id, store.ErrNotFound)
	}
	delete(s.menu, id)
	for i, mid := range s.menuOrder {
		if mid == id {
			s.menuOrder = append(s.menuOrder[:i], s.menuOrder[i+1:]...)
			break
		}
	}
	return s.saveLocked()
}

// ── UserStore ──

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.userOrder {
		if s.users[id].Email == email {
			return *s.users[id], nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return *u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUsersLocked(), nil
}

func (s *Store) listUsersLocked() []model.User {
	out := make([]model.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, *s.users[id])
	}
	return out
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrDuplicate)
	}
	for _, id := range s.userOrder {
		if s.users[id].Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	c := user
	s.users[user.ID] = &c
	s.userOrder = append(s.userOrder, user.ID)
	return s.saveLocked()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	delete(s.users, id)
	for i, uid := range s.userOrder {
		if uid == id {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
	return s.saveLocked()
}

// ── OnlineOrderStore ──

func (s *Store) ListOnlineOrders(ctx context.Context) ([]model.OnlineOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listOrdersLocked(), nil
}

func (s *Store) listOrdersLocked() []model.OnlineOrder {
	out := make([]model.OnlineOrder, 0, len(s.orderOrder))
	for _, id := range s.orderOrder {
		o := *s.orders[id]
		o.Items = append([]model.OnlineOrderItem(nil), o.Items...)
		out = append(out, o)
	}
	return out
}

func (s *Store) UpdateOnlineOrder(ctx context.Context, id string, mutate func(*model.OnlineOrder) error) (model.OnlineOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[id]
	if !ok {
		return model.OnlineOrder{}, fmt.Errorf("online order %s: %w", id, store.ErrNotFound)
	}
	next := *cur
	next.Items = append([]model.OnlineOrderItem(nil), cur.Items...)
	if err := mutate(&next); err != nil {
		return model.OnlineOrder{}, err
	}
	s.orders[id] = &next
	if err := s.saveLocked(); err != nil {
		s.orders[id] = cur
		return model.OnlineOrder{}, err
	}
	return next, nil
}
