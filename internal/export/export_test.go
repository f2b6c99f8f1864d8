package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/RSKPixel/wealth/internal/domain"
)

type mockSheetWriter struct {
	sheet  string
	values [][]any
	err    error
}

func (m *mockSheetWriter) Write(_ context.Context, sheet string, values [][]any) error {
	m.sheet = sheet
	m.values = values
	return m.err
}

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{
			ClientPAN:       "ABCDE1234F",
			Portfolio:       domain.PortfolioMutualFund,
			AssetClass:      domain.AssetClassMutualFund,
			Folio:           "91234567",
			FolioName:       "Axis Mutual Fund",
			Instrument:      "INF846K01DP8",
			InstrumentName:  "Axis Bluechip Fund",
			TransactionDate: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			TransactionType: "buy",
			Price:           decimal.RequireFromString("45.3210"),
			Quantity:        decimal.RequireFromString("110.325"),
			Value:           decimal.RequireFromString("5000.00"),
			TransactionID:   "20230115-1",
		},
		{
			ClientPAN:       "ABCDE1234F",
			Portfolio:       domain.PortfolioMutualFund,
			AssetClass:      domain.AssetClassMutualFund,
			Folio:           "91234567",
			FolioName:       "Axis Mutual Fund",
			Instrument:      "INF846K01DP8",
			InstrumentName:  "Axis Bluechip Fund",
			TransactionDate: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			TransactionType: "sell",
			Price:           decimal.RequireFromString("46.0000"),
			Quantity:        decimal.RequireFromString("-50.000"),
			Value:           decimal.RequireFromString("-2300.00"),
			TransactionID:   "20230301-1",
		},
	}
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(nil)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
	if rows[0][0] != "client_pan" || rows[0][12] != "transaction_id" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestServiceExport(t *testing.T) {
	w := &mockSheetWriter{}
	svc := NewService(w)

	if err := svc.Export(context.Background(), "ABCDE1234F", sampleTransactions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.sheet != "ABCDE1234F" {
		t.Errorf("expected sheet ABCDE1234F, got %q", w.sheet)
	}
	if len(w.values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(w.values))
	}

	row := w.values[1]
	if row[7] != "2023-01-15" {
		t.Errorf("expected date 2023-01-15, got %v", row[7])
	}
	if row[10] != 110.325 {
		t.Errorf("expected quantity 110.325, got %v", row[10])
	}
	if w.values[2][8] != "sell" {
		t.Errorf("expected sell, got %v", w.values[2][8])
	}
}

func TestServiceExportError(t *testing.T) {
	w := &mockSheetWriter{err: errors.New("quota exceeded")}
	svc := NewService(w)

	err := svc.Export(context.Background(), "ABCDE1234F", sampleTransactions())
	if !errors.Is(err, w.err) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleTransactions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(TransactionsSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "client_pan" {
		t.Errorf("expected header client_pan, got %q", rows[0][0])
	}
	if rows[1][5] != "INF846K01DP8" {
		t.Errorf("expected instrument INF846K01DP8, got %q", rows[1][5])
	}
	if rows[2][12] != "20230301-1" {
		t.Errorf("expected id 20230301-1, got %q", rows[2][12])
	}
}
