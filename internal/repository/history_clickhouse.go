package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TuniCast/internal/domain/models"
	"TuniCast/internal/domain/repository"
)

// Schema statements for the daily bars table, executed at startup through
// the client's InitSchema. ReplacingMergeTree keyed on (code, seance) makes
// re-ingesting a session idempotent.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    code   LowCardinality(String),
    seance Date,
    open   Float64,
    high   Float64,
    low    Float64,
    close  Float64,
    volume Float64,
    value  Float64
) ENGINE = ReplacingMergeTree
ORDER BY (code, seance)`, database, table),
	}
}

// ClickHouseHistoryStore implements HistoryStore on the daily bars table.
type ClickHouseHistoryStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseHistoryStore creates the store. table is fully qualified,
// e.g. "tunicast.daily_bars".
func NewClickHouseHistoryStore(db *sql.DB, table string) repository.HistoryStore {
	return &ClickHouseHistoryStore{db: db, table: table}
}

func (s *ClickHouseHistoryStore) GetHistory(ctx context.Context, code string) ([]models.Bar, error) {
	q := fmt.Sprintf(
		"SELECT code, seance, open, high, low, close, volume, value FROM %s FINAL WHERE code = ? ORDER BY seance ASC",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, code)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

func (s *ClickHouseHistoryStore) GetLatestNBars(ctx context.Context, code string, n int) ([]models.Bar, error) {
	q := fmt.Sprintf(
		"SELECT code, seance, open, high, low, close, volume, value FROM %s FINAL WHERE code = ? ORDER BY seance DESC LIMIT ?",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, code, n)
	if err != nil {
		return nil, fmt.Errorf("query latest bars: %w", err)
	}
	defer rows.Close()
	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	// The query returns newest first; callers expect ascending.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (s *ClickHouseHistoryStore) ListInstruments(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT code FROM %s ORDER BY code", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *ClickHouseHistoryStore) InsertBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Multi-row VALUES in chunks to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			if b.Code == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Code, b.Session, b.Open, b.High, b.Low, b.Close, b.Volume, b.Value)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (code, seance, open, high, low, close, volume, value) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanBars(rows *sql.Rows) ([]models.Bar, error) {
	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Code, &b.Session, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Value); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
