package portfolio

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/ledger"
)

// Holding is the position in one instrument within one folio.
type Holding struct {
	Folio          string          `json:"folio"`
	FolioName      string          `json:"folio_name"`
	Instrument     string          `json:"instrument"`
	InstrumentName string          `json:"instrument_name"`
	Units          decimal.Decimal `json:"units"`
	Invested       decimal.Decimal `json:"invested"`
	NAV            decimal.Decimal `json:"nav"`
	NAVSource      string          `json:"nav_source,omitempty"`
	MarketValue    decimal.Decimal `json:"market_value"`
	Transactions   int             `json:"transactions"`
}

// Totals aggregates all holdings of a client.
type Totals struct {
	Invested      decimal.Decimal `json:"invested"`
	MarketValue   decimal.Decimal `json:"market_value"`
	HoldingCount  int             `json:"holding_count"`
	UnpricedCount int             `json:"unpriced_count"`
}

// Summary is a client's holdings with totals.
type Summary struct {
	ClientPAN string    `json:"pan"`
	Holdings  []Holding `json:"holdings"`
	Totals    Totals    `json:"totals"`
}

type positionKey struct {
	folio      string
	instrument string
}

// buildHoldings folds ledger rows into one holding per folio and instrument.
// Positions whose units net to zero are closed and omitted.
func buildHoldings(rows []ledger.Row) []Holding {
	grouped := lo.GroupBy(rows, func(r ledger.Row) positionKey {
		return positionKey{folio: r.Folio, instrument: r.Instrument}
	})

	holdings := make([]Holding, 0, len(grouped))
	for key, group := range grouped {
		units := lo.Reduce(group, func(acc decimal.Decimal, r ledger.Row, _ int) decimal.Decimal {
			return acc.Add(r.Quantity)
		}, decimal.Zero)
		if units.IsZero() {
			continue
		}
		invested := lo.Reduce(group, func(acc decimal.Decimal, r ledger.Row, _ int) decimal.Decimal {
			return acc.Add(r.Value)
		}, decimal.Zero)

		last := group[len(group)-1]
		holdings = append(holdings, Holding{
			Folio:          key.folio,
			FolioName:      last.FolioName,
			Instrument:     key.instrument,
			InstrumentName: last.InstrumentName,
			Units:          units.Round(domain.QuantityPrecision),
			Invested:       invested.Round(domain.ValuePrecision),
			Transactions:   len(group),
		})
	}

	slices.SortFunc(holdings, func(a, b Holding) int {
		return cmp.Or(cmp.Compare(a.Folio, b.Folio), cmp.Compare(a.Instrument, b.Instrument))
	})
	return holdings
}

// calculateTotals sums invested and market value across holdings.
func calculateTotals(holdings []Holding) Totals {
	return Totals{
		Invested: lo.Reduce(holdings, func(acc decimal.Decimal, h Holding, _ int) decimal.Decimal {
			return acc.Add(h.Invested)
		}, decimal.Zero),
		MarketValue: lo.Reduce(holdings, func(acc decimal.Decimal, h Holding, _ int) decimal.Decimal {
			return acc.Add(h.MarketValue)
		}, decimal.Zero),
		HoldingCount: len(holdings),
		UnpricedCount: lo.CountBy(holdings, func(h Holding) bool {
			return h.NAVSource == ""
		}),
	}
}
