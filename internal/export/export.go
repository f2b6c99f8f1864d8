package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/ledger"
)

// SheetWriter writes a table of values to a named spreadsheet tab.
type SheetWriter interface {
	Write(ctx context.Context, sheet string, values [][]any) error
}

// Service exports ingested transactions to a spreadsheet, one tab per client.
// Implements ingest.AfterIngestHook.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export replaces the client's tab with the statement's transactions.
func (s *Service) Export(ctx context.Context, clientPAN string, txs []domain.Transaction) error {
	if err := s.writer.Write(ctx, clientPAN, BuildRows(ledger.Project(txs))); err != nil {
		return fmt.Errorf("exporting transactions for %s: %w", clientPAN, err)
	}
	return nil
}

// BuildRows renders ledger rows as a header line followed by one line per row.
// Columns follow ledger.Columns.
func BuildRows(rows []ledger.Row) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, lo.Map(ledger.Columns, func(c string, _ int) any { return c }))

	for _, r := range rows {
		data = append(data, []any{
			r.ClientPAN,
			r.Portfolio,
			r.AssetClass,
			r.Folio,
			r.FolioName,
			r.Instrument,
			r.InstrumentName,
			r.TransactionDate.Format(time.DateOnly),
			r.TransactionType,
			toFloat(r.Price),
			toFloat(r.Quantity),
			toFloat(r.Value),
			r.TransactionID,
		})
	}
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
