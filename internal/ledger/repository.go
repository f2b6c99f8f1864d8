package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistent storage for ledger rows.
type Repository interface {
	Upsert(ctx context.Context, rows []Row) error
	ListByPAN(ctx context.Context, clientPAN string) ([]Row, error)
	Instruments(ctx context.Context) ([]string, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL ledger repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

var upsertSQL = UpsertSQL()

// Upsert writes all rows in one transaction; either every row is applied or none is.
func (r *PgRepository) Upsert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertSQL, row.Values()...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d transactions: %w", len(rows), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

func (r *PgRepository) ListByPAN(ctx context.Context, clientPAN string) ([]Row, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+strings.Join(Columns, ", ")+`
		 FROM `+Table+`
		 WHERE client_pan = $1
		 ORDER BY transaction_date, folio, instrument, transaction_id`, clientPAN)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ClientPAN, &row.Portfolio, &row.AssetClass, &row.Folio, &row.FolioName,
			&row.Instrument, &row.InstrumentName, &row.TransactionDate, &row.TransactionType,
			&row.Price, &row.Quantity, &row.Value, &row.TransactionID,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return result, nil
}

func (r *PgRepository) Instruments(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT instrument FROM `+Table+` ORDER BY instrument`)
	if err != nil {
		return nil, fmt.Errorf("listing instruments: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var isin string
		if err := rows.Scan(&isin); err != nil {
			return nil, fmt.Errorf("scanning instrument: %w", err)
		}
		result = append(result, isin)
	}
	return result, rows.Err()
}
