package eod

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RSKPixel/wealth/internal/amfi"
)

// Refresher forces a reload of the instrument reference.
type Refresher interface {
	Refresh(ctx context.Context) (*amfi.Reference, error)
}

// HoldingsSource lists the instruments held in the ledger.
type HoldingsSource interface {
	Instruments(ctx context.Context) ([]string, error)
}

// Service refreshes the reference feed and stores NAVs of held instruments.
type Service struct {
	refs     Refresher
	holdings HoldingsSource
	repo     Repository
	types    SchemeTypes
}

// NewService creates a new EOD service. types may be nil.
func NewService(refs Refresher, holdings HoldingsSource, repo Repository, types SchemeTypes) *Service {
	return &Service{refs: refs, holdings: holdings, repo: repo, types: types}
}

// FetchAndStore refreshes the feed and upserts today's NAVs for every held instrument.
// It returns the number of NAVs stored.
func (s *Service) FetchAndStore(ctx context.Context) (int, error) {
	instruments, err := s.holdings.Instruments(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing held instruments: %w", err)
	}

	ref, err := s.refs.Refresh(ctx)
	if err != nil {
		return 0, fmt.Errorf("refreshing reference feed: %w", err)
	}

	navs := FilterHeld(ParseNAVs(ref, s.types), instruments)
	if err := s.repo.SaveNAVs(ctx, navs); err != nil {
		return 0, fmt.Errorf("storing NAVs: %w", err)
	}

	slog.Info("eod: NAVs stored", "held", len(instruments), "stored", len(navs))
	return len(navs), nil
}

// LatestNAV returns the most recent stored NAV of an instrument.
func (s *Service) LatestNAV(ctx context.Context, isin string) (NAV, error) {
	return s.repo.LatestNAV(ctx, isin)
}
