package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jgoulah/greenmeter/pkg/models"
	_ "modernc.org/sqlite"
)

// Default row limits for list queries
const (
	DefaultReadingsLimit        = 5000
	DefaultReadingsBetweenLimit = 50000
	DefaultDailyStatsLimit      = 60
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The archive writer and HTTP history reads share one file; serialize access.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		watts REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- one row per day (YYYY-MM-DD)
	CREATE TABLE IF NOT EXISTS daily_stats (
		day TEXT PRIMARY KEY,
		kwh REAL NOT NULL,
		cost REAL NOT NULL,
		baseline_cost REAL NOT NULL,
		projected_30d_cost REAL NOT NULL,
		projected_30d_cost_baseline REAL NOT NULL,
		projected_30d_savings REAL NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertReading appends a raw reading
func (db *DB) InsertReading(timestamp string, watts float64) error {
	query := `INSERT INTO readings (timestamp, watts) VALUES (?, ?)`
	if _, err := db.conn.Exec(query, timestamp, watts); err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

// SaveReading stores a live reading. It lets the DB act as an archive sink.
func (db *DB) SaveReading(r models.Reading) error {
	return db.InsertReading(r.Timestamp, r.Power)
}

// ListReadings returns up to limit readings in insertion order
func (db *DB) ListReadings(limit int) ([]models.StoredReading, error) {
	if limit <= 0 {
		limit = DefaultReadingsLimit
	}

	query := `
	SELECT id, timestamp, watts
	FROM readings
	ORDER BY id ASC
	LIMIT ?
	`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	return scanReadings(rows)
}

// ListReadingsBetween returns readings with start <= timestamp < end, ordered by timestamp
func (db *DB) ListReadingsBetween(start, end string, limit int) ([]models.StoredReading, error) {
	if limit <= 0 {
		limit = DefaultReadingsBetweenLimit
	}

	query := `
	SELECT id, timestamp, watts
	FROM readings
	WHERE timestamp >= ? AND timestamp < ?
	ORDER BY timestamp ASC
	LIMIT ?
	`

	rows, err := db.conn.Query(query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings between %s and %s: %w", start, end, err)
	}
	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]models.StoredReading, error) {
	defer rows.Close()

	results := []models.StoredReading{}
	for rows.Next() {
		var r models.StoredReading
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Watts); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetSetting returns the value stored under key. ok is false when the key is absent.
func (db *DB) GetSetting(key string) (value string, ok bool, err error) {
	row := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key)
	err = row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting inserts or replaces a setting
func (db *DB) SetSetting(key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}

// SaveSetting lets the DB act as an archive settings sink
func (db *DB) SaveSetting(key, value string) error {
	return db.SetSetting(key, value)
}

// UpsertDailyStat inserts or replaces the aggregate row for stat.Day
func (db *DB) UpsertDailyStat(stat models.DailyStat) error {
	query := `
	INSERT INTO daily_stats (day, kwh, cost, baseline_cost, projected_30d_cost,
	                         projected_30d_cost_baseline, projected_30d_savings)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(day) DO UPDATE SET
		kwh = excluded.kwh,
		cost = excluded.cost,
		baseline_cost = excluded.baseline_cost,
		projected_30d_cost = excluded.projected_30d_cost,
		projected_30d_cost_baseline = excluded.projected_30d_cost_baseline,
		projected_30d_savings = excluded.projected_30d_savings
	`

	_, err := db.conn.Exec(query,
		stat.Day, stat.KWh, stat.Cost, stat.BaselineCost,
		stat.Projected30dCost, stat.Projected30dCostBaseline, stat.Projected30dSavings,
	)
	if err != nil {
		return fmt.Errorf("upserting daily stat %s: %w", stat.Day, err)
	}
	return nil
}

// ListDailyStats returns up to limit daily rows, newest day first
func (db *DB) ListDailyStats(limit int) ([]models.DailyStat, error) {
	if limit <= 0 {
		limit = DefaultDailyStatsLimit
	}

	query := `
	SELECT day, kwh, cost, baseline_cost, projected_30d_cost,
	       projected_30d_cost_baseline, projected_30d_savings
	FROM daily_stats
	ORDER BY day DESC
	LIMIT ?
	`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying daily stats: %w", err)
	}
	defer rows.Close()

	results := []models.DailyStat{}
	for rows.Next() {
		var s models.DailyStat
		if err := rows.Scan(&s.Day, &s.KWh, &s.Cost, &s.BaselineCost,
			&s.Projected30dCost, &s.Projected30dCostBaseline, &s.Projected30dSavings); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, s)
	}

	return results, rows.Err()
}
