package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/model"
	"github.com/jqliu/bondflow/internal/service"
)

// SaveBonds persists bonds, skipping records already stored (keyed by hash).
// It returns the number of newly inserted rows.
func (s *SQLiteStorage) SaveBonds(ctx context.Context, bonds []model.Bond) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateBonds(bonds); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO bonds (
			hash, isin, code, issuer, bond_type, issue_date, rating
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, bond := range bonds {
		if bond.Hash == "" {
			bond.Hash = bond.GenerateHash()
		}

		result, execErr := stmt.ExecContext(ctx,
			bond.Hash,
			bond.ISIN,
			bond.Code,
			bond.Issuer,
			bond.BondType,
			bond.IssueDate,
			bond.Rating,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert bond %s: %w", bond.ISIN, execErr)
		}

		rows, raErr := result.RowsAffected()
		if raErr != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", raErr)
		}
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return inserted, nil
}

// GetBondByISIN returns a single stored bond.
func (s *SQLiteStorage) GetBondByISIN(ctx context.Context, isin string) (*model.Bond, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(isin, "isin"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT hash, isin, code, issuer, bond_type, issue_date, rating
		FROM bonds WHERE isin = ?
	`, isin)

	bond, err := scanBond(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bond %s: %w", isin, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bond: %w", err)
	}

	return bond, nil
}

// ListBonds returns stored bonds matching the query, ordered by issue date.
func (s *SQLiteStorage) ListBonds(ctx context.Context, query service.BondQuery) ([]model.Bond, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any

	if query.BondType != "" {
		conditions = append(conditions, "bond_type = ?")
		args = append(args, query.BondType)
	}
	if query.IssueYear != "" {
		conditions = append(conditions, "issue_date LIKE ?")
		args = append(args, query.IssueYear+"-%")
	}
	if query.Issuer != "" {
		conditions = append(conditions, "issuer LIKE ?")
		args = append(args, "%"+query.Issuer+"%")
	}

	q := "SELECT hash, isin, code, issuer, bond_type, issue_date, rating FROM bonds"
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += " ORDER BY issue_date, isin"

	if query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
		if query.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, query.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bonds []model.Bond
	for rows.Next() {
		bond, scanErr := scanBond(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bond: %w", scanErr)
		}
		bonds = append(bonds, *bond)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bonds: %w", err)
	}

	return bonds, nil
}

// CountBonds returns the number of stored bonds.
func (s *SQLiteStorage) CountBonds(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bonds").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bonds: %w", err)
	}
	return count, nil
}

// RecordFetchRun stores the outcome of one upstream fetch.
func (s *SQLiteStorage) RecordFetchRun(ctx context.Context, run *service.FetchRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_runs (bond_type, issue_year, records, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.BondType, run.IssueYear, run.Records, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record fetch run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read fetch run id: %w", err)
	}
	run.ID = id

	return nil
}

// ListFetchRuns returns the most recent fetch runs, newest first.
func (s *SQLiteStorage) ListFetchRuns(ctx context.Context, limit int) ([]service.FetchRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bond_type, issue_year, records, started_at, completed_at
		FROM fetch_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []service.FetchRun
	for rows.Next() {
		var run service.FetchRun
		if err := rows.Scan(&run.ID, &run.BondType, &run.IssueYear, &run.Records,
			&run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fetch runs: %w", err)
	}

	return runs, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanBond.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBond(row rowScanner) (*model.Bond, error) {
	var bond model.Bond
	var issueDate, rating sql.NullString

	if err := row.Scan(&bond.Hash, &bond.ISIN, &bond.Code, &bond.Issuer,
		&bond.BondType, &issueDate, &rating); err != nil {
		return nil, err
	}

	bond.IssueDate = issueDate.String
	bond.Rating = rating.String

	return &bond, nil
}
