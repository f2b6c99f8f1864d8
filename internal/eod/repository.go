package eod

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no NAV is stored for the instrument.
var ErrNotFound = errors.New("nav not found")

// Repository defines persistent storage for end-of-day NAVs.
type Repository interface {
	SaveNAVs(ctx context.Context, navs []NAV) error
	LatestNAV(ctx context.Context, isin string) (NAV, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL NAV repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// upsertNAVSQL keys rows on the scheme code: the growth ISIN column holds "-" for schemes that
// only publish a reinvestment ISIN.
const upsertNAVSQL = `INSERT INTO mutualfund_eod
  (date, scheme_code, scheme_name, amc_name, isin_1, isin_2, nav, asset_class, scheme_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (date, scheme_code) DO UPDATE SET
  scheme_name = EXCLUDED.scheme_name,
  amc_name = EXCLUDED.amc_name,
  isin_1 = EXCLUDED.isin_1,
  isin_2 = EXCLUDED.isin_2,
  nav = EXCLUDED.nav,
  asset_class = EXCLUDED.asset_class,
  scheme_type = EXCLUDED.scheme_type`

func (r *PgRepository) SaveNAVs(ctx context.Context, navs []NAV) error {
	if len(navs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range navs {
		batch.Queue(upsertNAVSQL,
			n.Date, n.SchemeCode, n.SchemeName, n.AMCName, n.ISINGrowth, n.ISINReinvest,
			n.NAV, n.AssetClass, n.SchemeType)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving %d NAVs: %w", len(navs), err)
	}
	return nil
}

func (r *PgRepository) LatestNAV(ctx context.Context, isin string) (NAV, error) {
	var n NAV
	err := r.pool.QueryRow(ctx,
		`SELECT date, scheme_code, scheme_name, amc_name, isin_1, isin_2, nav, asset_class, scheme_type
		 FROM mutualfund_eod
		 WHERE isin_1 = $1 OR isin_2 = $1
		 ORDER BY date DESC
		 LIMIT 1`, strings.ToUpper(isin)).Scan(
		&n.Date, &n.SchemeCode, &n.SchemeName, &n.AMCName, &n.ISINGrowth, &n.ISINReinvest,
		&n.NAV, &n.AssetClass, &n.SchemeType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NAV{}, ErrNotFound
		}
		return NAV{}, fmt.Errorf("getting latest NAV for %s: %w", isin, err)
	}
	return n, nil
}
