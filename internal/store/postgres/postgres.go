// Package postgres provides the pgx-backed store implementation. Every
// lifecycle mutation runs in its own transaction with the affected table
// rows locked FOR UPDATE; the two-table move locks rows in id order so
// concurrent moves can never deadlock.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store implements store.Store on Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the schema. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ── conversion helpers ──

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func emptyToText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// row abstracts pgx.Row / pgx.Rows for the scan helpers.
type row interface {
	Scan(dest ...any) error
}

const tableColumns = `id, name, category, status, order_start_time, kots, current_bill, captain_id, captain_name`

func scanTable(r row) (model.Table, error) {
	var (
		t         model.Table
		startTime pgtype.Timestamptz
		kotsJSON  []byte
		bill      pgtype.Numeric
		captainID pgtype.Text
		captain   pgtype.Text
	)
	err := r.Scan(&t.ID, &t.Name, &t.Category, &t.Status, &startTime, &kotsJSON, &bill, &captainID, &captain)
	if err != nil {
		return model.Table{}, err
	}
	if startTime.Valid {
		ts := startTime.Time
		t.OrderStartTime = &ts
	}
	if err := json.Unmarshal(kotsJSON, &t.KOTs); err != nil {
		return model.Table{}, fmt.Errorf("decode kots for table %s: %w", t.ID, err)
	}
	t.CurrentBill = numericToDecimal(bill)
	t.CaptainID = textOrEmpty(captainID)
	t.CaptainName = textOrEmpty(captain)
	return t, nil
}

// writeTable persists the mutable occupancy state of a table. Identity
// fields (name, category, position) never change through the registry.
func writeTable(ctx context.Context, tx pgx.Tx, t model.Table) error {
	kots := t.KOTs
	if kots == nil {
		kots = []model.KOT{}
	}
	kotsJSON, err := json.Marshal(kots)
	if err != nil {
		return fmt.Errorf("encode kots for table %s: %w", t.ID, err)
	}
	var startTime pgtype.Timestamptz
	if t.OrderStartTime != nil {
		startTime = pgtype.Timestamptz{Time: *t.OrderStartTime, Valid: true}
	}
	_, err = tx.Exec(ctx, `
		UPDATE tables
		SET status = $2, order_start_time = $3, kots = $4, current_bill = $5,
		    captain_id = $6, captain_name = $7
		WHERE id = $1`,
		t.ID, t.Status, startTime, kotsJSON, decimalToNumeric(t.CurrentBill),
		emptyToText(t.CaptainID), emptyToText(t.CaptainName))
	if err != nil {
		return fmt.Errorf("update table %s: %w", t.ID, err)
	}
	return nil
}

func lockTable(ctx context.Context, tx pgx.Tx, id string) (model.Table, error) {
	t, err := scanTable(tx.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Table{}, fmt.Errorf("table %s: %w", id, store.ErrNotFound)
		}
		return model.Table{}, fmt.Errorf("lock table %s: %w", id, err)
	}
	return t, nil
}

// ── TableStore ──

func (s *Store) GetTable(ctx context.Context, id string) (model.Table, error) {
	t, err := scanTable(s.pool.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Table{}, fmt.Errorf("table %s: %w", id, store.ErrNotFound)
		}
		return model.Table{}, fmt.Errorf("get table %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTables(ctx context.Context) ([]model.Table, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tableColumns+` FROM tables ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTable(ctx context.Context, id string, mutate func(*model.Table) error) (model.Table, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Table{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	t, err := lockTable(ctx, tx, id)
	if err != nil {
		return model.Table{}, err
	}
	if err := mutate(&t); err != nil {
		return model.Table{}, err
	}
	if err := writeTable(ctx, tx, t); err != nil {
		return model.Table{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Table{}, fmt.Errorf("commit tx: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTablePair(ctx context.Context, fromID, toID string, mutate func(from, to *model.Table) error) (model.Table, model.Table, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Table{}, model.Table{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock in id order so two concurrent moves touching the same pair in
	// opposite directions cannot deadlock.
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	locked := make(map[string]model.Table, 2)
	for _, id := range []string{first, second} {
		t, err := lockTable(ctx, tx, id)
		if err != nil {
			return model.Table{}, model.Table{}, err
		}
		locked[id] = t
	}

	from, to := locked[fromID], locked[toID]
	if err := mutate(&from, &to); err != nil {
		return model.Table{}, model.Table{}, err
	}
	if err := writeTable(ctx, tx, from); err != nil {
		return model.Table{}, model.Table{}, err
	}
	if err := writeTable(ctx, tx, to); err != nil {
		return model.Table{}, model.Table{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Table{}, model.Table{}, fmt.Errorf("commit tx: %w", err)
	}
	return from, to, nil
}

func (s *Store) SettleTable(ctx context.Context, id string, mutate func(*model.Table) (model.Sale, error)) (model.Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Sale{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	t, err := lockTable(ctx, tx, id)
	if err != nil {
		return model.Sale{}, err
	}
	sale, err := mutate(&t)
	if err != nil {
		return model.Sale{}, err
	}

	items := sale.Items
	if items == nil {
		items = []model.KOTItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return model.Sale{}, fmt.Errorf("encode sale items: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sales (id, table_id, table_name, captain_id, captain_name,
		                   amount, payment_mode, items, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.TableID, sale.TableName,
		emptyToText(sale.CaptainID), emptyToText(sale.CaptainName),
		decimalToNumeric(sale.Amount), sale.PaymentMode, itemsJSON, sale.SettledAt)
	if err != nil {
		return model.Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	if err := writeTable(ctx, tx, t); err != nil {
		return model.Sale{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Sale{}, fmt.Errorf("commit tx: %w", err)
	}
	return sale, nil
}

// ── SalesStore ──

func (s *Store) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, table_id, table_name, captain_id, captain_name,
		       amount, payment_mode, items, settled_at
		FROM sales ORDER BY settled_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []model.Sale
	for rows.Next() {
		var (
			sale      model.Sale
			captainID pgtype.Text
			captain   pgtype.Text
			amount    pgtype.Numeric
			itemsJSON []byte
		)
		err := rows.Scan(&sale.ID, &sale.TableID, &sale.TableName, &captainID,
			&captain, &amount, &sale.PaymentMode, &itemsJSON, &sale.SettledAt)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sale.CaptainID = textOrEmpty(captainID)
		sale.CaptainName = textOrEmpty(captain)
		sale.Amount = numericToDecimal(amount)
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, fmt.Errorf("decode items for sale %s: %w", sale.ID, err)
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

// ── MenuStore ──

func scanMenuItem(r row) (model.MenuItem, error) {
	var m model.MenuItem
	var price pgtype.Numeric
	if err := r.Scan(&m.ID, &m.Name, &price, &m.Category); err != nil {
		return model.MenuItem{}, err
	}
	m.Price = numericToDecimal(price)
	return m, nil
}

func (s *Store) ResolveMenuItem(ctx context.Context, id string) (model.MenuItem, error) {
	m, err := scanMenuItem(s.pool.QueryRow(ctx,
		`SELECT id, name, price, category FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, fmt.Errorf("menu item %s: %w", id, store.ErrNotFound)
		}
		return model.MenuItem{}, fmt.Errorf("get menu item %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) ListMenu(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price, category FROM menu_items ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	var out []model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateMenuItem(ctx context.Context, item model.MenuItem) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO menu_items (id, name, price, category, position)
		VALUES ($1, $2, $3, $4,
		        (SELECT COALESCE(MAX(position), 0) + 1 FROM menu_items))`,
		item.ID, item.Name, decimalToNumeric(item.Price), item.Category)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("menu item %s: %w", item.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item model.MenuItem) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE menu_items SET name = $2, price = $3, category = $4 WHERE id = $1`,
		item.ID, item.Name, decimalToNumeric(item.Price), item.Category)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menu item %s: %w", item.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menu item %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ── UserStore ──

func scanUser(r row) (model.User, error) {
	var u model.User
	if err := r.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.Role); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, name, role FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, name, role FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, hashed_password, name, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password, name, role)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.HashedPassword, user.Name, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ── OnlineOrderStore ──

func scanOnlineOrder(r row) (model.OnlineOrder, error) {
	var o model.OnlineOrder
	var total pgtype.Numeric
	var itemsJSON []byte
	if err := r.Scan(&o.ID, &o.Platform, &itemsJSON, &total, &o.Status, &o.PlacedAt); err != nil {
		return model.OnlineOrder{}, err
	}
	o.Total = numericToDecimal(total)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return model.OnlineOrder{}, fmt.Errorf("decode items for order %s: %w", o.ID, err)
	}
	return o, nil
}

func (s *Store) ListOnlineOrders(ctx context.Context) ([]model.OnlineOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, platform, items, total, status, placed_at
		FROM online_orders ORDER BY placed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list online orders: %w", err)
	}
	defer rows.Close()

	var out []model.OnlineOrder
	for rows.Next() {
		o, err := scanOnlineOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOnlineOrder(ctx context.Context, id string, mutate func(*model.OnlineOrder) error) (model.OnlineOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.OnlineOrder{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	o, err := scanOnlineOrder(tx.QueryRow(ctx, `
		SELECT id, platform, items, total, status, placed_at
		FROM online_orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OnlineOrder{}, fmt.Errorf("online order %s: %w", id, store.ErrNotFound)
		}
		return model.OnlineOrder{}, fmt.Errorf("lock online order %s: %w", id, err)
	}
	if err := mutate(&o); err != nil {
		return model.OnlineOrder{}, err
	}
	_, err = tx.Exec(ctx, `UPDATE online_orders SET status = $2 WHERE id = $1`, o.ID, o.Status)
	if err != nil {
		return model.OnlineOrder{}, fmt.Errorf("update online order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.OnlineOrder{}, fmt.Errorf("commit tx: %w", err)
	}
	return o, nil
}

// ── Seeding ──

// SeedTables inserts the floor plan if the registry is empty.
func (s *Store) SeedTables(ctx context.Context, tables []model.Table) error {
	for i, t := range tables {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO tables (id, name, category, status, current_bill, position)
			VALUES ($1, $2, $3, $4, 0, $5)
			ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Name, t.Category, t.Status, i)
		if err != nil {
			return fmt.Errorf("seed table %s: %w", t.ID, err)
		}
	}
	return nil
}

// SeedMenu inserts catalog entries, skipping existing ids.
func (s *Store) SeedMenu(ctx context.Context, menu []model.MenuItem) error {
	for i, m := range menu {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO menu_items (id, name, price, category, position)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			m.ID, m.Name, decimalToNumeric(m.Price), m.Category, i)
		if err != nil {
			return fmt.Errorf("seed menu item %s: %w", m.ID, err)
		}
	}
	return nil
}

// SeedUsers inserts accounts, skipping existing emails.
func (s *Store) SeedUsers(ctx context.Context, users []model.User) error {
	for _, u := range users {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO users (id, email, hashed_password, name, role)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING`,
			u.ID, u.Email, u.HashedPassword, u.Name, u.Role)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}
