package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// The ledger service only uses *sql.DB for Begin/Commit/Rollback; every data
// access goes through the repositories. This stub driver hands out
// transactions that always succeed so the service can be exercised against
// in-memory fakes.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() { sql.Register("ledgerstub", stubDriver{}) })
	db, err := sql.Open("ledgerstub", "")
	if err != nil {
		t.Fatalf("opening stub database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeLedgerCatalog mirrors the conditional-update semantics of the real
// repository: sold moves with every delta, stock only for finite tours, and a
// positive delta that exceeds the remaining units is a conflict.
type fakeLedgerCatalog struct {
	repositories.CatalogRepository
	tours map[int64]*models.Tour
}

func (f *fakeLedgerCatalog) GetTourForSale(_ repositories.SQLExecutor, id int64) (*models.Tour, error) {
	tour, ok := f.tours[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *tour
	return &copied, nil
}

func (f *fakeLedgerCatalog) AdjustStockAndSold(_ repositories.SQLExecutor, tourID int64, delta int) (int, error) {
	tour, ok := f.tours[tourID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if tour.Sold+delta < 0 {
		return 0, repositories.ErrStockConflict
	}
	if tour.Unlimited() {
		tour.Sold += delta
		return tour.Stock, nil
	}
	if delta > 0 && tour.Stock < delta {
		return 0, repositories.ErrStockConflict
	}
	tour.Stock -= delta
	tour.Sold += delta
	return tour.Stock, nil
}

func (f *fakeLedgerCatalog) RestoreStock(_ repositories.SQLExecutor, tourID int64, quantity int) error {
	tour, ok := f.tours[tourID]
	if !ok {
		return repositories.ErrNotFound
	}
	if tour.Unlimited() {
		return nil
	}
	tour.Stock += quantity
	tour.Sold -= quantity
	return nil
}

type fakeLedgerSales struct {
	repositories.SaleRepository
	nextID int64
	lines  []models.SaleLine
}

func (f *fakeLedgerSales) CreateLine(_ repositories.SQLExecutor, line *models.SaleLine) (int64, error) {
	f.nextID++
	line.ID = f.nextID
	f.lines = append(f.lines, *line)
	return line.ID, nil
}

func (f *fakeLedgerSales) GetBatchLines(_ repositories.SQLExecutor, batchID models.BatchID) ([]models.SaleLine, error) {
	var out []models.SaleLine
	for _, l := range f.lines {
		if l.BatchID == batchID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLedgerSales) UpdateLine(_ repositories.SQLExecutor, lineID int64, quantity int, total decimal.Decimal, deposit, balanceDue *decimal.Decimal) error {
	for i := range f.lines {
		if f.lines[i].ID == lineID {
			f.lines[i].Quantity = quantity
			f.lines[i].Total = total
			f.lines[i].Deposit = deposit
			f.lines[i].BalanceDue = balanceDue
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeLedgerSales) DeleteLine(_ repositories.SQLExecutor, lineID int64) error {
	for i := range f.lines {
		if f.lines[i].ID == lineID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeLedgerSales) VoidBatchLines(_ repositories.SQLExecutor, batchID models.BatchID, voidedAt time.Time, reason *string) (int64, error) {
	var count int64
	for i := range f.lines {
		if f.lines[i].BatchID == batchID {
			at := voidedAt
			f.lines[i].VoidedAt = &at
			f.lines[i].VoidReason = reason
			count++
		}
	}
	return count, nil
}

type fakeMovements struct {
	repositories.MovementRepository
	records []models.StockMovement
}

func (f *fakeMovements) RecordMovement(_ repositories.SQLExecutor, movement *models.StockMovement) (int64, error) {
	movement.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *movement)
	return movement.ID, nil
}

type ledgerFixture struct {
	catalog   *fakeLedgerCatalog
	sales     *fakeLedgerSales
	movements *fakeMovements
	svc       LedgerService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	catalog := &fakeLedgerCatalog{tours: map[int64]*models.Tour{
		1: {ID: 1, Name: "Xcaret", Stock: 10, Sold: 0},
		2: {ID: 2, Name: "Tulum", Stock: 3, Sold: 1},
		3: {ID: 3, Name: "City Pass", Stock: models.UnlimitedStock, Sold: 5},
	}}
	sales := &fakeLedgerSales{}
	movements := &fakeMovements{}
	svc := NewLedgerService(sales, catalog, movements, nil, newStubDB(t))
	return &ledgerFixture{catalog: catalog, sales: sales, movements: movements, svc: svc}
}

func (fx *ledgerFixture) counters(t *testing.T, tourID int64) (stock, sold int) {
	t.Helper()
	tour, ok := fx.catalog.tours[tourID]
	if !ok {
		t.Fatalf("tour %d missing from fixture", tourID)
	}
	return tour.Stock, tour.Sold
}

var testAdmin = models.Caller{Username: "admin", Role: models.RoleAdmin}

func batchRequest(items ...CreateSaleLineRequest) CreateBatchRequest {
	return CreateBatchRequest{
		Items:    items,
		Customer: CustomerFields{CustomerName: "Ana"},
	}
}

func TestCreateBatchMovesCountersAndRecordsMovements(t *testing.T) {
	fx := newLedgerFixture(t)

	batch, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 1, Quantity: 2, Total: decimal.NewFromInt(1700)},
		CreateSaleLineRequest{TourID: 2, Quantity: 3, Total: decimal.NewFromInt(850)},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Lines) != 2 {
		t.Fatalf("batch has %d lines, want 2", len(batch.Lines))
	}

	if stock, sold := fx.counters(t, 1); stock != 8 || sold != 2 {
		t.Errorf("tour 1 counters = (%d, %d), want (8, 2)", stock, sold)
	}
	if stock, sold := fx.counters(t, 2); stock != 0 || sold != 4 {
		t.Errorf("tour 2 counters = (%d, %d), want (0, 4)", stock, sold)
	}

	if len(fx.movements.records) != 2 {
		t.Fatalf("recorded %d movements, want 2", len(fx.movements.records))
	}
	for i, want := range []struct {
		tourID int64
		delta  int
	}{{1, 2}, {2, 3}} {
		got := fx.movements.records[i]
		if got.MovementType != models.MovementSale || got.TourID != want.tourID || got.QuantityChanged != want.delta {
			t.Errorf("movement %d = %s tour %d delta %d, want sale tour %d delta %d",
				i, got.MovementType, got.TourID, got.QuantityChanged, want.tourID, want.delta)
		}
		if got.Actor != "admin" {
			t.Errorf("movement %d actor = %q, want admin", i, got.Actor)
		}
		if got.BatchID != batch.ID {
			t.Errorf("movement %d batch = %v, want %v", i, got.BatchID, batch.ID)
		}
	}
}

func TestCreateBatchFailingLineLeavesNothingBehind(t *testing.T) {
	fx := newLedgerFixture(t)

	// Tour 2 only has 3 units; the whole batch must be refused, including the
	// first line that would have fit on its own.
	_, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 1, Quantity: 2},
		CreateSaleLineRequest{TourID: 2, Quantity: 4},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	if stock, sold := fx.counters(t, 1); stock != 10 || sold != 0 {
		t.Errorf("tour 1 counters = (%d, %d), want untouched (10, 0)", stock, sold)
	}
	if stock, sold := fx.counters(t, 2); stock != 3 || sold != 1 {
		t.Errorf("tour 2 counters = (%d, %d), want untouched (3, 1)", stock, sold)
	}
	if len(fx.sales.lines) != 0 {
		t.Errorf("created %d lines, want 0", len(fx.sales.lines))
	}
	if len(fx.movements.records) != 0 {
		t.Errorf("recorded %d movements, want 0", len(fx.movements.records))
	}
}

func TestUnlimitedTourOnlyMovesSold(t *testing.T) {
	fx := newLedgerFixture(t)

	batch, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 3, Quantity: 4},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock, sold := fx.counters(t, 3); stock != models.UnlimitedStock || sold != 9 {
		t.Errorf("counters after sale = (%d, %d), want (-1, 9)", stock, sold)
	}

	// Voiding restores nothing for an unlimited tour: sold is a permanent total.
	if err := fx.svc.VoidBatch(testAdmin, batch.ID, nil); err != nil {
		t.Fatalf("void failed: %v", err)
	}
	if stock, sold := fx.counters(t, 3); stock != models.UnlimitedStock || sold != 9 {
		t.Errorf("counters after void = (%d, %d), want (-1, 9)", stock, sold)
	}
}

func TestVoidBatchRestoresStockAndMarksLines(t *testing.T) {
	fx := newLedgerFixture(t)

	batch, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 1, Quantity: 4},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock, sold := fx.counters(t, 1); stock != 6 || sold != 4 {
		t.Fatalf("counters after sale = (%d, %d), want (6, 4)", stock, sold)
	}

	reason := "customer cancelled"
	if err := fx.svc.VoidBatch(testAdmin, batch.ID, &reason); err != nil {
		t.Fatalf("void failed: %v", err)
	}

	if stock, sold := fx.counters(t, 1); stock != 10 || sold != 0 {
		t.Errorf("counters after void = (%d, %d), want (10, 0)", stock, sold)
	}
	for _, line := range fx.sales.lines {
		if !line.Voided() || line.VoidReason == nil || *line.VoidReason != reason {
			t.Errorf("line %d not voided with reason: %+v", line.ID, line)
		}
	}

	last := fx.movements.records[len(fx.movements.records)-1]
	if last.MovementType != models.MovementVoidRestore || last.QuantityChanged != -4 {
		t.Errorf("last movement = %s delta %d, want void_restore delta -4", last.MovementType, last.QuantityChanged)
	}
	if last.Reason == nil || *last.Reason != reason {
		t.Errorf("last movement reason = %v, want %q", last.Reason, reason)
	}

	// A voided batch cannot be voided twice.
	if err := fx.svc.VoidBatch(testAdmin, batch.ID, nil); !errors.Is(err, ErrBatchVoided) {
		t.Errorf("second void error = %v, want ErrBatchVoided", err)
	}
}

func TestUpdateBatchAppliesCounterDeltas(t *testing.T) {
	fx := newLedgerFixture(t)

	batch, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 1, Quantity: 2},
		CreateSaleLineRequest{TourID: 2, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keepID := batch.Lines[0].ID

	// Grow line one to 5 (delta +3), drop line two (restores tour 2), add an
	// unlimited-tour line.
	updated, err := fx.svc.UpdateBatch(testAdmin, batch.ID, []ProposedLine{
		{LineID: &keepID, TourID: 1, Quantity: 5},
		{TourID: 3, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("updated batch has %d lines, want 2", len(updated.Lines))
	}

	if stock, sold := fx.counters(t, 1); stock != 5 || sold != 5 {
		t.Errorf("tour 1 counters = (%d, %d), want (5, 5)", stock, sold)
	}
	if stock, sold := fx.counters(t, 2); stock != 3 || sold != 1 {
		t.Errorf("tour 2 counters = (%d, %d), want restored (3, 1)", stock, sold)
	}
	if stock, sold := fx.counters(t, 3); stock != models.UnlimitedStock || sold != 7 {
		t.Errorf("tour 3 counters = (%d, %d), want (-1, 7)", stock, sold)
	}

	types := map[string]int{}
	for _, m := range fx.movements.records {
		types[m.MovementType]++
	}
	if types[models.MovementLineRemoval] != 1 || types[models.MovementEditAdjust] != 1 {
		t.Errorf("movement types = %v, want one line_removal and one edit_adjustment", types)
	}

	// Shrinking back to 2 restores the three consumed units.
	if _, err := fx.svc.UpdateBatch(testAdmin, batch.ID, []ProposedLine{
		{LineID: &keepID, TourID: 1, Quantity: 2},
		{LineID: &updated.Lines[1].ID, TourID: 3, Quantity: 2},
	}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if stock, sold := fx.counters(t, 1); stock != 8 || sold != 2 {
		t.Errorf("tour 1 counters after shrink = (%d, %d), want (8, 2)", stock, sold)
	}
}

func TestFiniteCountersConserveAcrossOperations(t *testing.T) {
	fx := newLedgerFixture(t)
	sum := func(tourID int64) int {
		stock, sold := fx.counters(t, tourID)
		return stock + sold
	}
	before := sum(1)

	batch, err := fx.svc.CreateBatch(testAdmin, batchRequest(
		CreateSaleLineRequest{TourID: 1, Quantity: 3},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sum(1); got != before {
		t.Errorf("stock+sold after create = %d, want %d", got, before)
	}

	lineID := batch.Lines[0].ID
	if _, err := fx.svc.UpdateBatch(testAdmin, batch.ID, []ProposedLine{
		{LineID: &lineID, TourID: 1, Quantity: 7},
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := sum(1); got != before {
		t.Errorf("stock+sold after edit = %d, want %d", got, before)
	}

	if err := fx.svc.VoidBatch(testAdmin, batch.ID, nil); err != nil {
		t.Fatalf("void failed: %v", err)
	}
	if got := sum(1); got != before {
		t.Errorf("stock+sold after void = %d, want %d", got, before)
	}
}
