// Package storage persists rate snapshots and the last conversion in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"selectrate/modules/currency"
)

const (
	metaLastRefresh    = "last_refresh_time"
	metaLastSelection  = "last_selection"
	metaLastConversion = "last_conversion_results"
)

type Store struct {
	sql *sql.DB
}

var (
	_ currency.SnapshotStore      = (*Store)(nil)
	_ currency.ConversionRecorder = (*Store)(nil)
)

// Open opens (and creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	s := &Store{sql: sqldb}
	if err := s.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.sql.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS rates (
			code TEXT PRIMARY KEY,
			alpha_code TEXT NOT NULL DEFAULT '',
			numeric_code TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			rate REAL NOT NULL,
			inverse_rate REAL NOT NULL,
			date TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, rates currency.RateSnapshot, fetchedAt time.Time) error {
	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rates`); err != nil {
		return fmt.Errorf("clearing rates: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rates (code, alpha_code, numeric_code, name, rate, inverse_rate, date) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, code := range rates.Codes() {
		r := rates[code]
		if _, err := stmt.ExecContext(ctx, code, r.AlphaCode, r.NumericCode, r.Name, r.Rate, r.InverseRate, r.Date); err != nil {
			return fmt.Errorf("saving rate %s: %w", code, err)
		}
	}
	if err := setMeta(ctx, tx, metaLastRefresh, fetchedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot, or an empty one if nothing was saved yet.
func (s *Store) LoadSnapshot(ctx context.Context) (currency.RateSnapshot, time.Time, error) {
	rows, err := s.sql.QueryContext(ctx, `SELECT code, alpha_code, numeric_code, name, rate, inverse_rate, date FROM rates`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	snapshot := currency.RateSnapshot{}
	for rows.Next() {
		var r currency.CurrencyRate
		if err := rows.Scan(&r.Code, &r.AlphaCode, &r.NumericCode, &r.Name, &r.Rate, &r.InverseRate, &r.Date); err != nil {
			return nil, time.Time{}, err
		}
		snapshot[r.Code] = r
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	raw, err := s.getMeta(ctx, metaLastRefresh)
	if err != nil || raw == "" {
		return snapshot, time.Time{}, err
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing %s: %w", metaLastRefresh, err)
	}
	return snapshot, fetchedAt, nil
}

// LastConversion is the most recent selection that produced results.
type LastConversion struct {
	Selection string                      `json:"selection"`
	Results   []currency.ConversionResult `json:"results"`
}

// ConvertedValue is what the "copy" action puts on the clipboard.
func (l LastConversion) ConvertedValue() string {
	if len(l.Results) == 0 {
		return ""
	}
	return l.Results[0].ConversionResultText
}

func (s *Store) RecordConversion(ctx context.Context, selection string, results []currency.ConversionResult) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := setMeta(ctx, tx, metaLastSelection, selection); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, metaLastConversion, string(payload)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) LastConversion(ctx context.Context) (LastConversion, error) {
	var last LastConversion
	selection, err := s.getMeta(ctx, metaLastSelection)
	if err != nil {
		return last, err
	}
	last.Selection = selection

	raw, err := s.getMeta(ctx, metaLastConversion)
	if err != nil || raw == "" {
		return last, err
	}
	if err := json.Unmarshal([]byte(raw), &last.Results); err != nil {
		return last, fmt.Errorf("decoding %s: %w", metaLastConversion, err)
	}
	return last, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}
