package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/eod"
	"github.com/RSKPixel/wealth/internal/ledger"
)

const (
	NAVSourceReference = "reference"
	NAVSourceEOD       = "eod"
)

// LedgerReader lists a client's stored transactions.
type LedgerReader interface {
	ListByPAN(ctx context.Context, clientPAN string) ([]ledger.Row, error)
}

// ReferenceSource provides the current instrument reference; nil means unavailable.
type ReferenceSource interface {
	Reference(ctx context.Context) *amfi.Reference
}

// NAVStore serves stored end-of-day NAVs.
type NAVStore interface {
	LatestNAV(ctx context.Context, isin string) (eod.NAV, error)
}

// Service values a client's holdings at the latest known NAV.
type Service struct {
	ledger LedgerReader
	refs   ReferenceSource
	navs   NAVStore
}

// NewService creates a new holdings Service. refs and navs may be nil.
func NewService(store LedgerReader, refs ReferenceSource, navs NAVStore) *Service {
	return &Service{ledger: store, refs: refs, navs: navs}
}

// Summary returns the open positions of a client valued at the latest NAV.
// The live reference is preferred; stored end-of-day NAVs fill the gaps.
func (s *Service) Summary(ctx context.Context, clientPAN string) (Summary, error) {
	clientPAN = strings.ToUpper(strings.TrimSpace(clientPAN))

	rows, err := s.ledger.ListByPAN(ctx, clientPAN)
	if err != nil {
		return Summary{}, fmt.Errorf("listing transactions for %s: %w", clientPAN, err)
	}

	var ref *amfi.Reference
	if s.refs != nil {
		ref = s.refs.Reference(ctx)
	}

	holdings := buildHoldings(rows)
	for i := range holdings {
		h := &holdings[i]
		nav, source, err := s.price(ctx, ref, h.Instrument)
		if err != nil {
			return Summary{}, err
		}
		if source == "" {
			slog.Warn("portfolio: no NAV for holding", "pan", clientPAN, "instrument", h.Instrument)
			continue
		}
		h.NAV = nav
		h.NAVSource = source
		h.MarketValue = nav.Mul(h.Units).Round(domain.ValuePrecision)
	}

	return Summary{
		ClientPAN: clientPAN,
		Holdings:  holdings,
		Totals:    calculateTotals(holdings),
	}, nil
}

func (s *Service) price(ctx context.Context, ref *amfi.Reference, isin string) (decimal.Decimal, string, error) {
	if res, ok := ref.Resolve(isin); ok {
		if nav := domain.SafeParse(res.NAV); nav.IsPositive() {
			return nav, NAVSourceReference, nil
		}
	}

	if s.navs == nil {
		return decimal.Zero, "", nil
	}
	stored, err := s.navs.LatestNAV(ctx, isin)
	switch {
	case errors.Is(err, eod.ErrNotFound):
		return decimal.Zero, "", nil
	case err != nil:
		return decimal.Zero, "", fmt.Errorf("getting NAV for %s: %w", isin, err)
	case !stored.NAV.IsPositive():
		return decimal.Zero, "", nil
	}
	return stored.NAV, NAVSourceEOD, nil
}
