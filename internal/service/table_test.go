package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Sudarshan2323/Resto/internal/auth"
	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/model"
	"github.com/Sudarshan2323/Resto/internal/service"
	"github.com/Sudarshan2323/Resto/internal/store"
	"github.com/Sudarshan2323/Resto/internal/store/memory"
)

var captainJack = service.Captain{ID: "2", Name: "Captain Jack"}

// recordingNotifier captures committed notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	tables []model.Table
	sales  []model.Sale
}

func (n *recordingNotifier) TableChanged(t model.Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables = append(n.tables, t)
}

func (n *recordingNotifier) SaleRecorded(s model.Sale) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sales = append(n.sales, s)
}

func (n *recordingNotifier) tableCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tables)
}

// --- Fixtures ---

func testMenu() []model.MenuItem {
	return []model.MenuItem{
		{ID: "m1", Name: "Paneer Tikka", Price: decimal.NewFromInt(250), Category: "Starters"},
		{ID: "m3", Name: "Garlic Naan", Price: decimal.NewFromInt(70), Category: "Main Course"},
		{ID: "m5", Name: "Coke", Price: decimal.NewFromInt(60), Category: "Beverages"},
	}
}

func testTables() []model.Table {
	return []model.Table{
		{ID: "d1", Name: "D1", Category: enum.TableCategoryDineIn, Status: enum.TableStatusAvailable, CurrentBill: decimal.Zero},
		{ID: "d2", Name: "D2", Category: enum.TableCategoryDineIn, Status: enum.TableStatusAvailable, CurrentBill: decimal.Zero},
		{ID: "t1", Name: "T1", Category: enum.TableCategoryTerrace, Status: enum.TableStatusAvailable, CurrentBill: decimal.Zero},
		{ID: "x1", Name: "X1", Category: enum.TableCategoryDineIn, Status: enum.TableStatusClosed, CurrentBill: decimal.Zero},
	}
}

func newTestService(t *testing.T) (*service.TableService, *memory.Store, *recordingNotifier) {
	t.Helper()
	st, err := memory.New("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := st.Seed(testTables(), testMenu(), nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	notifier := &recordingNotifier{}
	svc := service.NewTableService(st, st, auth.NewOverrideAuthorizer("5566"), notifier)
	return svc, st, notifier
}

// checkBillInvariant asserts the incrementally maintained bill matches a
// recomputation over all non-cancelled items.
func checkBillInvariant(t *testing.T, st *memory.Store, tableID string) {
	t.Helper()
	table, err := st.GetTable(context.Background(), tableID)
	if err != nil {
		t.Fatalf("get table %s: %v", tableID, err)
	}
	if !table.CurrentBill.Equal(table.ItemsTotal()) {
		t.Fatalf("bill invariant violated on %s: current_bill=%s items_total=%s",
			tableID, table.CurrentBill, table.ItemsTotal())
	}
}

func mustOpenKOT(t *testing.T, svc *service.TableService, tableID string, lines ...service.KOTLine) model.Table {
	t.Helper()
	table, err := svc.OpenKOT(context.Background(), tableID, lines, captainJack)
	if err != nil {
		t.Fatalf("open kot on %s: %v", tableID, err)
	}
	return table
}

// --- OpenKOT ---

func TestOpenKOT_OpensAvailableTable(t *testing.T) {
	svc, st, _ := newTestService(t)

	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 2})

	if table.Status != enum.TableStatusRunning {
		t.Errorf("status: got %s, want Running", table.Status)
	}
	if table.OrderStartTime == nil {
		t.Error("order_start_time should be set when the table opens")
	}
	if !table.CurrentBill.Equal(decimal.NewFromInt(500)) {
		t.Errorf("current_bill: got %s, want 500", table.CurrentBill)
	}
	if table.CaptainID != captainJack.ID || table.CaptainName != captainJack.Name {
		t.Errorf("captain: got %s/%s, want %s/%s", table.CaptainID, table.CaptainName, captainJack.ID, captainJack.Name)
	}
	if len(table.KOTs) != 1 || len(table.KOTs[0].Items) != 1 {
		t.Fatalf("expected 1 KOT with 1 item, got %+v", table.KOTs)
	}
	checkBillInvariant(t, st, "d1")
}

func TestOpenKOT_AccumulatesAcrossTickets(t *testing.T) {
	svc, st, _ := newTestService(t)

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 2})
	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m5", Quantity: 1})

	if !table.CurrentBill.Equal(decimal.NewFromInt(560)) {
		t.Errorf("current_bill: got %s, want 560", table.CurrentBill)
	}
	if len(table.KOTs) != 2 {
		t.Errorf("expected 2 KOTs, got %d", len(table.KOTs))
	}
	if table.OrderStartTime == nil {
		t.Error("order_start_time should survive later tickets")
	}
	checkBillInvariant(t, st, "d1")
}

func TestOpenKOT_MergesDuplicateLines(t *testing.T) {
	svc, st, _ := newTestService(t)

	table := mustOpenKOT(t, svc, "d1",
		service.KOTLine{MenuItemID: "m1", Quantity: 1},
		service.KOTLine{MenuItemID: "m5", Quantity: 1},
		service.KOTLine{MenuItemID: "m1", Quantity: 2, Notes: "extra spicy"},
	)

	items := table.KOTs[0].Items
	if len(items) != 2 {
		t.Fatalf("expected merged lines (2 items), got %d", len(items))
	}
	if items[0].ID != "m1" || items[0].Quantity != 3 {
		t.Errorf("merged line: got %s x%d, want m1 x3", items[0].ID, items[0].Quantity)
	}
	if items[0].Notes != "extra spicy" {
		t.Errorf("notes: got %q, want %q", items[0].Notes, "extra spicy")
	}
	if !table.CurrentBill.Equal(decimal.NewFromInt(810)) {
		t.Errorf("current_bill: got %s, want 810", table.CurrentBill)
	}
	checkBillInvariant(t, st, "d1")
}

func TestOpenKOT_SnapshotsMenuPrice(t *testing.T) {
	svc, st, _ := newTestService(t)

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})

	// A later price change must not touch the sent ticket.
	err := st.UpdateMenuItem(context.Background(), model.MenuItem{
		ID: "m1", Name: "Paneer Tikka", Price: decimal.NewFromInt(999), Category: "Starters",
	})
	if err != nil {
		t.Fatalf("update menu item: %v", err)
	}

	table, err := st.GetTable(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if !table.KOTs[0].Items[0].Price.Equal(decimal.NewFromInt(250)) {
		t.Errorf("kot item price: got %s, want snapshot 250", table.KOTs[0].Items[0].Price)
	}
	if !table.CurrentBill.Equal(decimal.NewFromInt(250)) {
		t.Errorf("current_bill: got %s, want 250", table.CurrentBill)
	}
}

func TestOpenKOT_WhileBillingAllowed(t *testing.T) {
	svc, st, _ := newTestService(t)

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	if _, err := svc.GenerateBill(context.Background(), "d1"); err != nil {
		t.Fatalf("generate bill: %v", err)
	}

	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m5", Quantity: 1})
	if table.Status != enum.TableStatusBilling {
		t.Errorf("status: got %s, want Billing preserved", table.Status)
	}
	if !table.CurrentBill.Equal(decimal.NewFromInt(310)) {
		t.Errorf("current_bill: got %s, want 310", table.CurrentBill)
	}
	checkBillInvariant(t, st, "d1")
}

func TestOpenKOT_ValidationErrors(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.OpenKOT(ctx, "d1", nil, captainJack); !errors.Is(err, service.ErrEmptyKOT) {
		t.Errorf("empty items: got %v, want ErrEmptyKOT", err)
	}
	if _, err := svc.OpenKOT(ctx, "d1", []service.KOTLine{{MenuItemID: "m1", Quantity: 0}}, captainJack); !errors.Is(err, service.ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.OpenKOT(ctx, "d1", []service.KOTLine{{MenuItemID: "nope", Quantity: 1}}, captainJack); !errors.Is(err, service.ErrUnknownMenuItem) {
		t.Errorf("unknown item: got %v, want ErrUnknownMenuItem", err)
	}
	if _, err := svc.OpenKOT(ctx, "missing", []service.KOTLine{{MenuItemID: "m1", Quantity: 1}}, captainJack); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing table: got %v, want ErrNotFound", err)
	}
	if _, err := svc.OpenKOT(ctx, "x1", []service.KOTLine{{MenuItemID: "m1", Quantity: 1}}, captainJack); !errors.Is(err, service.ErrTableClosed) {
		t.Errorf("closed table: got %v, want ErrTableClosed", err)
	}

	// A failed ticket mutates nothing.
	table, err := st.GetTable(ctx, "d1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	if table.Status != enum.TableStatusAvailable || len(table.KOTs) != 0 {
		t.Errorf("table mutated by failed ticket: %+v", table)
	}
}

// --- CancelKOTItem ---

func TestCancelKOTItem_DeductsAndMarks(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	table := mustOpenKOT(t, svc, "d1",
		service.KOTLine{MenuItemID: "m1", Quantity: 2},
		service.KOTLine{MenuItemID: "m5", Quantity: 1},
	)
	kotID := table.KOTs[0].ID

	updated, err := svc.CancelKOTItem(ctx, "d1", kotID, "m5", enum.UserRoleAdmin, "")
	if err != nil {
		t.Fatalf("cancel item: %v", err)
	}

	if !updated.CurrentBill.Equal(decimal.NewFromInt(500)) {
		t.Errorf("current_bill: got %s, want 500", updated.CurrentBill)
	}
	item := updated.KOTs[0].Items[1]
	if !item.Cancelled {
		t.Error("item should be marked cancelled, not removed")
	}
	if len(updated.KOTs[0].Items) != 2 {
		t.Errorf("cancelled item must stay in KOT history, got %d items", len(updated.KOTs[0].Items))
	}
	checkBillInvariant(t, st, "d1")
}

func TestCancelKOTItem_Idempotent(t *testing.T) {
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 2})
	kotID := table.KOTs[0].ID

	if _, err := svc.CancelKOTItem(ctx, "d1", kotID, "m1", enum.UserRoleAdmin, ""); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	before := notifier.tableCount()

	updated, err := svc.CancelKOTItem(ctx, "d1", kotID, "m1", enum.UserRoleAdmin, "")
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !updated.CurrentBill.Equal(decimal.Zero) {
		t.Errorf("current_bill: got %s, want 0", updated.CurrentBill)
	}
	if notifier.tableCount() != before {
		t.Error("no-op cancel must not emit a change notification")
	}
	checkBillInvariant(t, st, "d1")
}

func TestCancelKOTItem_Authorization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	kotID := table.KOTs[0].ID

	if _, err := svc.CancelKOTItem(ctx, "d1", kotID, "m1", enum.UserRoleCaptain, ""); !errors.Is(err, auth.ErrOverrideDenied) {
		t.Errorf("captain without pin: got %v, want ErrOverrideDenied", err)
	}
	if _, err := svc.CancelKOTItem(ctx, "d1", kotID, "m1", enum.UserRoleCaptain, "0000"); !errors.Is(err, auth.ErrOverrideDenied) {
		t.Errorf("captain with wrong pin: got %v, want ErrOverrideDenied", err)
	}
	if _, err := svc.CancelKOTItem(ctx, "d1", kotID, "m1", enum.UserRoleCaptain, "5566"); err != nil {
		t.Errorf("captain with correct pin: got %v, want success", err)
	}
}

func TestCancelKOTItem_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	kotID := table.KOTs[0].ID

	if _, err := svc.CancelKOTItem(ctx, "d1", "kot-bogus", "m1", enum.UserRoleAdmin, ""); !errors.Is(err, service.ErrKOTNotFound) {
		t.Errorf("unknown kot: got %v, want ErrKOTNotFound", err)
	}
	if _, err := svc.CancelKOTItem(ctx, "d1", kotID, "m9", enum.UserRoleAdmin, ""); !errors.Is(err, service.ErrItemNotFound) {
		t.Errorf("unknown item: got %v, want ErrItemNotFound", err)
	}
}

// --- MoveTable ---

func TestMoveTable_TransfersOrder(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	opened := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 2})

	from, to, err := svc.MoveTable(ctx, "d1", "t1")
	if err != nil {
		t.Fatalf("move table: %v", err)
	}

	if from.Status != enum.TableStatusAvailable || len(from.KOTs) != 0 || !from.CurrentBill.IsZero() {
		t.Errorf("source should be reset to Available baseline, got %+v", from)
	}
	if from.CaptainID != "" || from.OrderStartTime != nil {
		t.Error("source should lose captain and order start time")
	}
	if to.Status != enum.TableStatusRunning {
		t.Errorf("destination status: got %s, want Running", to.Status)
	}
	if !to.CurrentBill.Equal(opened.CurrentBill) {
		t.Errorf("destination bill: got %s, want %s", to.CurrentBill, opened.CurrentBill)
	}
	if len(to.KOTs) != 1 {
		t.Errorf("destination should carry the KOT history, got %d", len(to.KOTs))
	}
	// Identity fields never move.
	if to.Name != "T1" || to.Category != enum.TableCategoryTerrace {
		t.Errorf("destination identity changed: %s/%s", to.Name, to.Category)
	}
	checkBillInvariant(t, st, "d1")
	checkBillInvariant(t, st, "t1")
}

func TestMoveTable_AllOrNothing(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	mustOpenKOT(t, svc, "d2", service.KOTLine{MenuItemID: "m5", Quantity: 1})

	_, _, err := svc.MoveTable(ctx, "d1", "d2")
	if !errors.Is(err, service.ErrDestinationOccupied) {
		t.Fatalf("occupied destination: got %v, want ErrDestinationOccupied", err)
	}

	// Neither table changed.
	d1, _ := st.GetTable(ctx, "d1")
	d2, _ := st.GetTable(ctx, "d2")
	if d1.Status != enum.TableStatusRunning || !d1.CurrentBill.Equal(decimal.NewFromInt(250)) {
		t.Errorf("source mutated by failed move: %+v", d1)
	}
	if d2.Status != enum.TableStatusRunning || !d2.CurrentBill.Equal(decimal.NewFromInt(60)) {
		t.Errorf("destination mutated by failed move: %+v", d2)
	}
}

func TestMoveTable_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.MoveTable(ctx, "d1", "d1"); !errors.Is(err, service.ErrSameTable) {
		t.Errorf("same table: got %v, want ErrSameTable", err)
	}
	if _, _, err := svc.MoveTable(ctx, "d1", "t1"); !errors.Is(err, service.ErrNoActiveOrder) {
		t.Errorf("available source: got %v, want ErrNoActiveOrder", err)
	}
	if _, _, err := svc.MoveTable(ctx, "d1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing destination: got %v, want ErrNotFound", err)
	}
}

func TestMoveTable_BillingStateMoves(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	if _, err := svc.GenerateBill(ctx, "d1"); err != nil {
		t.Fatalf("generate bill: %v", err)
	}

	_, to, err := svc.MoveTable(ctx, "d1", "t1")
	if err != nil {
		t.Fatalf("move table: %v", err)
	}
	if to.Status != enum.TableStatusBilling {
		t.Errorf("destination status: got %s, want Billing carried over", to.Status)
	}
}

// --- GenerateBill ---

func TestGenerateBill(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GenerateBill(ctx, "d1"); !errors.Is(err, service.ErrNoActiveOrder) {
		t.Errorf("available table: got %v, want ErrNoActiveOrder", err)
	}

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	table, err := svc.GenerateBill(ctx, "d1")
	if err != nil {
		t.Fatalf("generate bill: %v", err)
	}
	if table.Status != enum.TableStatusBilling {
		t.Errorf("status: got %s, want Billing", table.Status)
	}
	if !table.CurrentBill.Equal(decimal.NewFromInt(250)) {
		t.Errorf("current_bill: got %s, want unchanged 250", table.CurrentBill)
	}
}

// --- SettleBill ---

func TestSettleBill_RecordsSaleAndFreesTable(t *testing.T) {
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	// Paneer Tikka x2 = 500, plus Coke = 560, cancel Coke = 500, settle 500.
	table := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 2})
	table = mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m5", Quantity: 1})
	if _, err := svc.CancelKOTItem(ctx, "d1", table.KOTs[1].ID, "m5", enum.UserRoleAdmin, ""); err != nil {
		t.Fatalf("cancel item: %v", err)
	}
	if _, err := svc.GenerateBill(ctx, "d1"); err != nil {
		t.Fatalf("generate bill: %v", err)
	}

	sale, err := svc.SettleBill(ctx, "d1", enum.PaymentModeUPI)
	if err != nil {
		t.Fatalf("settle bill: %v", err)
	}

	if !sale.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("sale amount: got %s, want 500", sale.Amount)
	}
	if sale.TableID != "d1" || sale.TableName != "D1" {
		t.Errorf("sale table: got %s/%s", sale.TableID, sale.TableName)
	}
	if sale.PaymentMode != enum.PaymentModeUPI {
		t.Errorf("payment mode: got %s", sale.PaymentMode)
	}
	if sale.CaptainName != captainJack.Name {
		t.Errorf("captain: got %s", sale.CaptainName)
	}
	// Audit items include the cancelled Coke.
	if len(sale.Items) != 2 {
		t.Fatalf("sale items: got %d, want 2 (cancelled included)", len(sale.Items))
	}
	cancelled := 0
	for _, item := range sale.Items {
		if item.Cancelled {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Errorf("cancelled audit items: got %d, want 1", cancelled)
	}

	// The ledger holds the sale.
	sales, err := st.ListSales(ctx)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 1 || sales[0].ID != sale.ID {
		t.Fatalf("ledger: got %d sales", len(sales))
	}

	// The table is back at the Available baseline.
	freed, _ := st.GetTable(ctx, "d1")
	if freed.Status != enum.TableStatusAvailable || len(freed.KOTs) != 0 ||
		!freed.CurrentBill.IsZero() || freed.OrderStartTime != nil || freed.CaptainID != "" {
		t.Errorf("table not reset after settlement: %+v", freed)
	}

	if len(notifier.sales) != 1 {
		t.Errorf("sale notification: got %d, want 1", len(notifier.sales))
	}

	// The freed table opens fresh.
	reopened := mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m3", Quantity: 1})
	if !reopened.CurrentBill.Equal(decimal.NewFromInt(70)) {
		t.Errorf("reopened bill: got %s, want 70", reopened.CurrentBill)
	}
	if len(reopened.KOTs) != 1 {
		t.Errorf("reopened table must not inherit history, got %d KOTs", len(reopened.KOTs))
	}
}

func TestSettleBill_FromRunningAllowed(t *testing.T) {
	svc, _, _ := newTestService(t)

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	sale, err := svc.SettleBill(context.Background(), "d1", enum.PaymentModeCash)
	if err != nil {
		t.Fatalf("settle from Running: %v", err)
	}
	if !sale.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("sale amount: got %s, want 250", sale.Amount)
	}
}

func TestSettleBill_Errors(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SettleBill(ctx, "d1", enum.PaymentModeCash); !errors.Is(err, service.ErrNoActiveOrder) {
		t.Errorf("available table: got %v, want ErrNoActiveOrder", err)
	}

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	if _, err := svc.SettleBill(ctx, "d1", ""); !errors.Is(err, service.ErrEmptyPaymentMode) {
		t.Errorf("empty payment mode: got %v, want ErrEmptyPaymentMode", err)
	}

	// Failed settlement leaves the table and ledger untouched.
	table, _ := st.GetTable(ctx, "d1")
	if table.Status != enum.TableStatusRunning {
		t.Errorf("table mutated by failed settlement: %+v", table)
	}
	sales, _ := st.ListSales(ctx)
	if len(sales) != 0 {
		t.Errorf("ledger mutated by failed settlement: %d sales", len(sales))
	}
}

// --- Concurrency ---

func TestConcurrentKOTs_BillSumsExactly(t *testing.T) {
	svc, st, _ := newTestService(t)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			captain := service.Captain{ID: fmt.Sprintf("c%d", n), Name: fmt.Sprintf("Captain %d", n)}
			_, err := svc.OpenKOT(context.Background(), "d1",
				[]service.KOTLine{{MenuItemID: "m5", Quantity: 1}}, captain)
			if err != nil {
				t.Errorf("worker %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	table, err := st.GetTable(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	want := decimal.NewFromInt(60 * workers)
	if !table.CurrentBill.Equal(want) {
		t.Errorf("current_bill: got %s, want %s", table.CurrentBill, want)
	}
	if len(table.KOTs) != workers {
		t.Errorf("kots: got %d, want %d", len(table.KOTs), workers)
	}
	checkBillInvariant(t, st, "d1")
}

func TestConcurrentMoves_OnlyOneWins(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	mustOpenKOT(t, svc, "d1", service.KOTLine{MenuItemID: "m1", Quantity: 1})
	mustOpenKOT(t, svc, "d2", service.KOTLine{MenuItemID: "m5", Quantity: 1})

	// Both running tables race to move onto the same free table.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, from := range []string{"d1", "d2"} {
		wg.Add(1)
		go func(i int, from string) {
			defer wg.Done()
			_, _, results[i] = svc.MoveTable(ctx, from, "t1")
		}(i, from)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrDestinationOccupied):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("got %d wins and %d conflicts, want exactly 1 each", wins, conflicts)
	}

	t1, _ := st.GetTable(ctx, "t1")
	if t1.Status != enum.TableStatusRunning || len(t1.KOTs) != 1 {
		t.Errorf("destination after race: %+v", t1)
	}
	checkBillInvariant(t, st, "t1")
}
