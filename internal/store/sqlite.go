package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"options-risk/internal/errors"
	"options-risk/internal/models"
)

// SQLiteStore implements ValidationStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the journal database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per validated trade
	CREATE TABLE IF NOT EXISTS validations (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		strategy TEXT NOT NULL,
		risk_profile TEXT NOT NULL,
		cash REAL NOT NULL,
		estimated_cost REAL NOT NULL,
		passed INTEGER NOT NULL,
		blockers INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		new_positions TEXT NOT NULL,
		existing_positions TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_validations_symbol ON validations(symbol);
	CREATE INDEX IF NOT EXISTS idx_validations_timestamp ON validations(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveValidation inserts or replaces a journal record. A missing ID or
// timestamp is filled in on the record.
func (s *SQLiteStore) SaveValidation(ctx context.Context, record *ValidationRecord) error {
	if record == nil {
		return errors.NewValidationError("record", nil, "is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	newPositions, err := json.Marshal(positionsOrEmpty(record.NewPositions))
	if err != nil {
		return fmt.Errorf("failed to encode new positions: %w", err)
	}
	existing, err := json.Marshal(positionsOrEmpty(record.ExistingPositions))
	if err != nil {
		return fmt.Errorf("failed to encode existing positions: %w", err)
	}
	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	passed := 0
	if record.Passed {
		passed = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validations (id, timestamp, symbol, strategy, risk_profile, cash, estimated_cost, passed, blockers, warnings, new_positions, existing_positions, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Timestamp.UTC(), record.Symbol, string(record.Strategy), string(record.RiskProfile),
		record.Cash, record.EstimatedCost, passed, record.Blockers, record.Warnings,
		string(newPositions), string(existing), string(result))
	if err != nil {
		return fmt.Errorf("failed to save validation: %w: %w", errors.ErrDatabaseError, err)
	}
	return nil
}

const selectValidations = `SELECT id, timestamp, symbol, strategy, risk_profile, cash, estimated_cost, passed, blockers, warnings, new_positions, existing_positions, result FROM validations`

// GetValidations returns journal records, newest first.
func (s *SQLiteStore) GetValidations(ctx context.Context, filter ValidationFilter) ([]ValidationRecord, error) {
	query := selectValidations + " WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, string(filter.Strategy))
	}
	if filter.Passed != nil {
		passed := 0
		if *filter.Passed {
			passed = 1
		}
		query += " AND passed = ?"
		args = append(args, passed)
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query validations: %w", err)
	}
	defer rows.Close()

	var records []ValidationRecord
	for rows.Next() {
		rec, err := scanValidation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetValidationByID returns one journal record. A missing ID yields an error
// matching errors.ErrDataNotFound.
func (s *SQLiteStore) GetValidationByID(ctx context.Context, id string) (*ValidationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectValidations+" WHERE id = ?", id)
	rec, err := scanValidation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewDataError("validation", id, "not in journal", errors.ErrDataNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanValidation(row scanner) (*ValidationRecord, error) {
	var (
		rec                               ValidationRecord
		strategy, profile                 string
		passed                            int
		newJSON, existingJSON, resultJSON string
	)

	if err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Symbol, &strategy, &profile, &rec.Cash,
		&rec.EstimatedCost, &passed, &rec.Blockers, &rec.Warnings, &newJSON, &existingJSON, &resultJSON); err != nil {
		return nil, fmt.Errorf("failed to scan validation: %w", err)
	}

	rec.Strategy = models.StrategyType(strategy)
	rec.RiskProfile = models.RiskProfile(profile)
	rec.Passed = passed == 1

	if err := json.Unmarshal([]byte(newJSON), &rec.NewPositions); err != nil {
		return nil, fmt.Errorf("failed to decode new positions for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(existingJSON), &rec.ExistingPositions); err != nil {
		return nil, fmt.Errorf("failed to decode existing positions for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode result for %s: %w", rec.ID, err)
	}

	return &rec, nil
}

func positionsOrEmpty(p []models.OptionPosition) []models.OptionPosition {
	if p == nil {
		return []models.OptionPosition{}
	}
	return p
}
