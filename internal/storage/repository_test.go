package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/fundimport/internal/domain/models"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*holdingsRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &holdingsRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

func sampleHolding(id, fund string) models.Holding {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return models.Holding{
		ID:             id,
		ClientID:       "000000123456",
		ClientName:     "张三",
		FundCode:       fund,
		FundName:       "基金" + fund,
		PurchaseAmount: decimal.RequireFromString("1000.00"),
		PurchaseShares: decimal.RequireFromString("500.0000"),
		PurchaseDate:   day,
		CurrentNav:     decimal.RequireFromString("2.0000"),
		NavDate:        day,
		IsValid:        true,
	}
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestNewHoldingsRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	r := NewHoldingsRepository(db)
	if r == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestListHoldings_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "client_id", "client_name", "fund_code", "fund_name",
		"purchase_amount", "purchase_shares", "purchase_date", "current_nav", "nav_date",
		"remarks", "is_valid", "is_pinned"}
	rows := sqlmock.NewRows(cols).
		AddRow("a", "000000123456", "张三", "000001", "基金000001", "1000.50", "500.1234", day, "2.0006", day, "", true, false).
		AddRow("b", "000000654321", "李四", "000002", "基金000002", "20", "10", day, "2", day, "补录", true, true)

	mock.ExpectQuery(`SELECT .+ FROM holdings ORDER BY purchase_date`).WillReturnRows(rows)

	out, err := repo.ListHoldings(context.Background())
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 holdings, got %d", len(out))
	}
	if got := out[0].PurchaseAmount.StringFixed(2); got != "1000.50" {
		t.Fatalf("amount: got %s", got)
	}
	if got := out[0].NaturalKey(); got != "000000123456-000001-100050-5001234-2024-03-05" {
		t.Fatalf("natural key: got %s", got)
	}
	if !out[1].IsPinned || out[1].Remarks != "补录" {
		t.Fatalf("unexpected second row: %+v", out[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListHoldings_QueryError(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM holdings`).WillReturnError(dummyErr{})
	if _, err := repo.ListHoldings(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCommitBatch_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	dupMsg := `duplicate key value violates unique constraint "holdings_natural_key"`

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO holdings`)
	// first record ok
	mock.ExpectExec(`^SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WithArgs(append([]driver.Value{"a", "000000123456", "张三", "000001"}, anyArgs(9)...)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^RELEASE SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	// second record refused by the database
	mock.ExpectExec(`^SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnError(&pq.Error{Code: "23505", Message: dupMsg})
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	// third record ok
	mock.ExpectExec(`^SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^RELEASE SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := repo.CommitBatch(context.Background(), []models.Holding{
		sampleHolding("a", "000001"),
		sampleHolding("b", "000001"),
		sampleHolding("c", "000003"),
	})
	if err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}
	if res.Success != 2 || res.Failed != 1 {
		t.Fatalf("got success=%d failed=%d", res.Success, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Index != 1 || res.Errors[0].Message != dupMsg {
		t.Fatalf("unexpected failures: %+v", res.Errors)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommitBatch_Empty(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	res, err := repo.CommitBatch(context.Background(), nil)
	if err != nil || res.Success != 0 || res.Failed != 0 {
		t.Fatalf("unexpected res=%+v err=%v", res, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestCommitBatch_ErrorOnBegin(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin().WillReturnError(dummyErr{})
	if _, err := repo.CommitBatch(context.Background(), []models.Holding{sampleHolding("a", "000001")}); err == nil {
		t.Fatalf("expected error on begin")
	}
}

func TestCommitBatch_ErrorOnPrepare(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO holdings`).WillReturnError(dummyErr{})
	mock.ExpectRollback()

	if _, err := repo.CommitBatch(context.Background(), []models.Holding{sampleHolding("a", "000001")}); err == nil {
		t.Fatalf("expected error on prepare")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommitBatch_ErrorOnSavepoint(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO holdings`)
	mock.ExpectExec(`^SAVEPOINT holding$`).WillReturnError(dummyErr{})
	mock.ExpectRollback()

	res, err := repo.CommitBatch(context.Background(), []models.Holding{sampleHolding("a", "000001")})
	if err == nil {
		t.Fatalf("expected error on savepoint")
	}
	if res.Success != 0 {
		t.Fatalf("nothing may be reported as committed, got %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommitBatch_ErrorOnCommit(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO holdings`)
	mock.ExpectExec(`^SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^RELEASE SAVEPOINT holding$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(dummyErr{})

	res, err := repo.CommitBatch(context.Background(), []models.Holding{sampleHolding("a", "000001")})
	if err == nil {
		t.Fatalf("expected error on commit")
	}
	if res.Success != 0 {
		t.Fatalf("failed commit must not report successes, got %+v", res)
	}
}

func TestImportLog_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	sum := "3f2a"
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM import_log WHERE checksum = $1)")).
		WithArgs(sum).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.HasImport(context.Background(), sum)
	if err != nil || !ok {
		t.Fatalf("HasImport: ok=%v err=%v", ok, err)
	}

	mock.ExpectExec(`INSERT INTO import_log .+ ON CONFLICT \(checksum\) DO UPDATE`).
		WithArgs(sum, "holdings.csv", 3, 1, 2, at).WillReturnResult(sqlmock.NewResult(1, 1))
	err = repo.RecordImport(context.Background(), models.ImportLogEntry{
		Checksum: sum, FileName: "holdings.csv", Success: 3, Failed: 1, Skipped: 2, ImportedAt: at,
	})
	if err != nil {
		t.Fatalf("RecordImport: %v", err)
	}

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("other").WillReturnError(dummyErr{})
	if _, err := repo.HasImport(context.Background(), "other"); err == nil {
		t.Fatalf("expected HasImport error")
	}

	mock.ExpectExec(`INSERT INTO import_log`).WillReturnError(dummyErr{})
	if err := repo.RecordImport(context.Background(), models.ImportLogEntry{FileName: "x.csv"}); !errors.Is(err, dummyErr{}) {
		t.Fatalf("want wrapped dummy error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDBMessage(t *testing.T) {
	if got := dbMessage(&pq.Error{Message: "value too long for type character(6)"}); got != "value too long for type character(6)" {
		t.Fatalf("pq error: got %q", got)
	}
	if got := dbMessage(dummyErr{}); got != "dummy" {
		t.Fatalf("plain error: got %q", got)
	}
}
