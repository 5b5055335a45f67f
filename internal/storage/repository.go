package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/fundimport/internal/domain/models"
)

// HoldingsRepository defines contract for DB operations.
type HoldingsRepository interface {
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	CommitBatch(ctx context.Context, holdings []models.Holding) (models.CommitResult, error)
	HasImport(ctx context.Context, checksum string) (bool, error)
	RecordImport(ctx context.Context, entry models.ImportLogEntry) error
}

type holdingsRepository struct {
	db *sql.DB
}

func NewHoldingsRepository(db *sql.DB) HoldingsRepository {
	return &holdingsRepository{db: db}
}

const holdingColumns = `id, client_id, client_name, fund_code, fund_name,
	purchase_amount, purchase_shares, purchase_date, current_nav, nav_date,
	remarks, is_valid, is_pinned`

// ListHoldings returns every stored holding, oldest purchase first.
func (r *holdingsRepository) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+holdingColumns+` FROM holdings ORDER BY purchase_date, client_id, fund_code`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(
			&h.ID,
			&h.ClientID,
			&h.ClientName,
			&h.FundCode,
			&h.FundName,
			&h.PurchaseAmount,
			&h.PurchaseShares,
			&h.PurchaseDate,
			&h.CurrentNav,
			&h.NavDate,
			&h.Remarks,
			&h.IsValid,
			&h.IsPinned,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CommitBatch inserts holdings in a single transaction.
//
// Every record runs under its own savepoint: a record the database refuses
// is rolled back to its savepoint and reported with the database message,
// the others are committed together. An error is returned only when the
// transaction itself cannot be opened, prepared or committed, in which case
// nothing is written.
func (r *holdingsRepository) CommitBatch(ctx context.Context, holdings []models.Holding) (models.CommitResult, error) {
	var res models.CommitResult
	if len(holdings) == 0 {
		return res, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO holdings (`+holdingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		_ = tx.Rollback()
		return res, err
	}
	defer func() { _ = stmt.Close() }()

	for i, h := range holdings {
		if _, err := tx.ExecContext(ctx, `SAVEPOINT holding`); err != nil {
			_ = tx.Rollback()
			return models.CommitResult{}, err
		}
		_, insErr := stmt.ExecContext(ctx,
			h.ID,
			h.ClientID,
			h.ClientName,
			h.FundCode,
			h.FundName,
			h.PurchaseAmount,
			h.PurchaseShares,
			h.PurchaseDate,
			h.CurrentNav,
			h.NavDate,
			h.Remarks,
			h.IsValid,
			h.IsPinned,
		)
		if insErr != nil {
			if _, err := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT holding`); err != nil {
				_ = tx.Rollback()
				return models.CommitResult{}, err
			}
			res.Failed++
			res.Errors = append(res.Errors, models.CommitFailure{Index: i, Message: dbMessage(insErr)})
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT holding`); err != nil {
			_ = tx.Rollback()
			return models.CommitResult{}, err
		}
		res.Success++
	}

	if err := tx.Commit(); err != nil {
		return models.CommitResult{}, err
	}
	return res, nil
}

// HasImport reports whether a file with this checksum was imported before.
func (r *holdingsRepository) HasImport(ctx context.Context, checksum string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM import_log WHERE checksum = $1)`, checksum).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RecordImport records (or updates) the import log entry of a file.
func (r *holdingsRepository) RecordImport(ctx context.Context, e models.ImportLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_log (checksum, file_name, success_count, failed_count, skipped_count, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (checksum)
		DO UPDATE SET file_name = EXCLUDED.file_name,
					  success_count = EXCLUDED.success_count,
					  failed_count = EXCLUDED.failed_count,
					  skipped_count = EXCLUDED.skipped_count,
					  imported_at = EXCLUDED.imported_at
	`, e.Checksum, e.FileName, e.Success, e.Failed, e.Skipped, e.ImportedAt)
	if err != nil {
		return fmt.Errorf("record import %s: %w", e.FileName, err)
	}
	return nil
}

// dbMessage returns the server message of a PostgreSQL error, or the error
// text for anything else.
func dbMessage(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
