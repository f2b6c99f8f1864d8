package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/RSKPixel/wealth/internal/domain"
)

// Table is the ledger table statement transactions are upserted into.
const Table = "wealth_transactions"

// Columns is the storage column order of a Row.
var Columns = []string{
	"client_pan",
	"portfolio",
	"asset_class",
	"folio",
	"folio_name",
	"instrument",
	"instrument_name",
	"transaction_date",
	"transaction_type",
	"price",
	"quantity",
	"value",
	"transaction_id",
}

// ConflictColumns identify a stored transaction. They are never updated once written.
var ConflictColumns = []string{"client_pan", "folio", "instrument", "transaction_date", "transaction_id"}

// UpdateColumns are overwritten when a conflicting row is upserted again.
var UpdateColumns = []string{
	"portfolio",
	"asset_class",
	"folio_name",
	"instrument_name",
	"transaction_type",
	"value",
	"quantity",
	"price",
}

// Row is one storage row, fields in Columns order.
type Row struct {
	ClientPAN       string          `json:"client_pan"`
	Portfolio       string          `json:"portfolio"`
	AssetClass      string          `json:"asset_class"`
	Folio           string          `json:"folio"`
	FolioName       string          `json:"folio_name"`
	Instrument      string          `json:"instrument"`
	InstrumentName  string          `json:"instrument_name"`
	TransactionDate time.Time       `json:"transaction_date"`
	TransactionType string          `json:"transaction_type"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Value           decimal.Decimal `json:"value"`
	TransactionID   string          `json:"transaction_id"`
}

// Values returns the row as query arguments in Columns order.
func (r Row) Values() []any {
	return []any{
		r.ClientPAN,
		r.Portfolio,
		r.AssetClass,
		r.Folio,
		r.FolioName,
		r.Instrument,
		r.InstrumentName,
		r.TransactionDate,
		r.TransactionType,
		r.Price,
		r.Quantity,
		r.Value,
		r.TransactionID,
	}
}

// Project reshapes normalized transactions into storage rows.
func Project(txs []domain.Transaction) []Row {
	return lo.Map(txs, func(tx domain.Transaction, _ int) Row {
		return Row{
			ClientPAN:       tx.ClientPAN,
			Portfolio:       tx.Portfolio,
			AssetClass:      tx.AssetClass,
			Folio:           tx.Folio,
			FolioName:       tx.FolioName,
			Instrument:      tx.Instrument,
			InstrumentName:  tx.InstrumentName,
			TransactionDate: tx.TransactionDate,
			TransactionType: tx.TransactionType,
			Price:           tx.Price,
			Quantity:        tx.Quantity,
			Value:           tx.Value,
			TransactionID:   tx.TransactionID,
		}
	})
}

// UpsertSQL builds the insert-or-update statement for one Row.
func UpsertSQL() string {
	placeholders := lo.Map(Columns, func(_ string, i int) string { return fmt.Sprintf("$%d", i+1) })
	updates := lo.Map(UpdateColumns, func(c string, _ int) string { return c + " = EXCLUDED." + c })

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		Table,
		strings.Join(Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(ConflictColumns, ", "),
		strings.Join(updates, ", "),
	)
}
