package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// PortfolioMutualFund is the portfolio name stamped on every statement transaction.
	PortfolioMutualFund = "Mutual Fund"
	// AssetClassMutualFund is the asset class stamped on every statement transaction.
	AssetClassMutualFund = "Mutual Fund"
)

// RawTransaction is a transaction line as captured by the statement scanner.
// Numeric fields are kept in accounting notation exactly as matched.
type RawTransaction struct {
	Line        int    `json:"line"`
	Folio       string `json:"folio"`
	ISIN        string `json:"isin"`
	FundName    string `json:"fundName"`
	AMCName     string `json:"amcName"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Units       string `json:"units"`
	NAV         string `json:"nav"`
	UnitBalance string `json:"unitBalance"`
}

// Transaction is a normalized ledger transaction.
type Transaction struct {
	ClientPAN       string          `json:"client_pan"`
	Portfolio       string          `json:"portfolio"`
	AssetClass      string          `json:"asset_class"`
	Folio           string          `json:"folio"`
	FolioName       string          `json:"folio_name"`
	Instrument      string          `json:"instrument"`
	InstrumentName  string          `json:"instrument_name"`
	TransactionDate time.Time       `json:"transaction_date"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Value           decimal.Decimal `json:"value"`
	NAV             decimal.Decimal `json:"nav"`
	UnitBalance     decimal.Decimal `json:"unit_balance"`
	TransactionID   string          `json:"transaction_id"`
}

// NaturalKey returns the grouping key used to number transactions within a day.
func (t Transaction) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", t.ClientPAN, t.Folio, t.Instrument, t.TransactionDate.Format(time.DateOnly))
}

// RecordError describes a transaction line that matched but could not be normalized.
type RecordError struct {
	Line   int    `json:"line"`
	Date   string `json:"date"`
	ISIN   string `json:"isin"`
	Reason string `json:"reason"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// DirectionLabels holds the transaction_type vocabulary.
type DirectionLabels struct {
	Acquisition string `json:"acquisition"`
	Disposal    string `json:"disposal"`
}

// DefaultDirectionLabels is the vocabulary used when none is configured.
var DefaultDirectionLabels = DirectionLabels{Acquisition: "buy", Disposal: "sell"}

// Classify returns the acquisition label for positive quantities and the disposal label otherwise.
func (l DirectionLabels) Classify(quantity decimal.Decimal) string {
	if quantity.IsPositive() {
		return l.Acquisition
	}
	return l.Disposal
}
