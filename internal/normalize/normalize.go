package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/RSKPixel/wealth/internal/domain"
)

// DateLayout is the statement transaction date format (DD-MMM-YYYY).
const DateLayout = "02-Jan-2006"

// Normalizer converts scanned transactions into typed ledger transactions.
type Normalizer struct {
	labels domain.DirectionLabels
}

// NewNormalizer creates a Normalizer using the given transaction_type vocabulary.
func NewNormalizer(labels domain.DirectionLabels) *Normalizer {
	if labels.Acquisition == "" {
		labels.Acquisition = domain.DefaultDirectionLabels.Acquisition
	}
	if labels.Disposal == "" {
		labels.Disposal = domain.DefaultDirectionLabels.Disposal
	}
	return &Normalizer{labels: labels}
}

// Labels returns the vocabulary in use.
func (n *Normalizer) Labels() domain.DirectionLabels {
	return n.labels
}

// Normalize types every raw transaction for the given client. Records that fail to parse are
// returned as RecordErrors and excluded; transaction IDs are numbered over the accepted records
// only, so each natural key always gets a contiguous 1-based sequence.
func (n *Normalizer) Normalize(clientPAN string, raws []domain.RawTransaction) ([]domain.Transaction, []domain.RecordError) {
	var (
		txs      []domain.Transaction
		rejected []domain.RecordError
	)

	for _, raw := range raws {
		tx, err := n.normalizeOne(clientPAN, raw)
		if err != nil {
			recErr := domain.RecordError{Line: raw.Line, Date: raw.Date, ISIN: raw.ISIN, Reason: err.Error()}
			slog.Warn("normalize: rejecting transaction", "line", raw.Line, "isin", raw.ISIN, "reason", recErr.Reason)
			rejected = append(rejected, recErr)
			continue
		}
		txs = append(txs, tx)
	}

	AssignIDs(txs)
	return txs, rejected
}

func (n *Normalizer) normalizeOne(clientPAN string, raw domain.RawTransaction) (domain.Transaction, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return domain.Transaction{}, err
	}

	amount, err := domain.ParseAccounting(raw.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	units, err := domain.ParseAccounting(raw.Units)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("units: %w", err)
	}
	nav, err := domain.ParseAccounting(raw.NAV)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("nav: %w", err)
	}
	balance, err := domain.ParseAccounting(raw.UnitBalance)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("unit balance: %w", err)
	}

	value := amount.Round(domain.ValuePrecision)
	quantity := units.Round(domain.QuantityPrecision)

	return domain.Transaction{
		ClientPAN:       clientPAN,
		Portfolio:       domain.PortfolioMutualFund,
		AssetClass:      domain.AssetClassMutualFund,
		Folio:           domain.StripSpaces(raw.Folio),
		FolioName:       raw.AMCName,
		Instrument:      strings.ToUpper(strings.TrimSpace(raw.ISIN)),
		InstrumentName:  raw.FundName,
		TransactionDate: date,
		TransactionType: n.labels.Classify(quantity),
		Description:     raw.Description,
		Price:           domain.DivideOrZero(value, quantity, domain.PricePrecision),
		Quantity:        quantity,
		Value:           value,
		NAV:             nav,
		UnitBalance:     balance.Round(domain.QuantityPrecision),
	}, nil
}

// ParseDate parses a DD-MMM-YYYY statement date as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// AssignIDs numbers transactions within each (client, folio, instrument, date) group in slice
// order: "<YYYYMMDD>-<n>".
func AssignIDs(txs []domain.Transaction) {
	groups := lo.GroupBy(lo.Range(len(txs)), func(i int) string {
		return txs[i].NaturalKey()
	})
	for _, idxs := range groups {
		for pos, i := range idxs {
			txs[i].TransactionID = txs[i].TransactionDate.Format("20060102") + "-" + strconv.Itoa(pos+1)
		}
	}
}
