package services

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockdata-backend/models"
)

// DefaultTickDBPath is the local sqlite file holding the execution-tick log
const DefaultTickDBPath = "data/ticks.db"

// TickStore keeps a local, best-effort log of trade executions received from
// the live feed, for the recent-ticks endpoint. Losing it never affects the
// realtime fan-out.
type TickStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewTickStore opens (creating if needed) the sqlite tick database
func NewTickStore(path string) (*TickStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tick data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tick database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping tick database: %w", err)
	}

	store := &TickStore{db: db}
	if err := store.createTable(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Tick store initialized at %s", path)
	return store, nil
}

// Close closes the underlying database
func (s *TickStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *TickStore) createTable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	CREATE TABLE IF NOT EXISTS stock_ticks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		price INTEGER NOT NULL,
		volume INTEGER NOT NULL,
		total_volume INTEGER NOT NULL DEFAULT 0,
		trade_type TEXT,
		rate REAL,
		trade_time TEXT,
		event_timestamp INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ticks_ticker ON stock_ticks(ticker, id DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tick table: %w", err)
	}
	return nil
}

// InsertExecution appends one execution event to the tick log
func (s *TickStore) InsertExecution(exec models.TradeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO stock_ticks (ticker, price, volume, total_volume, trade_type, rate, trade_time, event_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.Ticker, exec.Price, exec.Volume, exec.TotalVolume, exec.TradeType, exec.Rate, exec.Time, exec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tick for %s: %w", exec.Ticker, err)
	}
	return nil
}

// RecentTicks returns the most recent executions for a ticker, newest first
func (s *TickStore) RecentTicks(ticker string, limit int) ([]models.TradeExecution, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT ticker, price, volume, total_volume, trade_type, rate, trade_time, event_timestamp
		FROM stock_ticks
		WHERE ticker = ?
		ORDER BY id DESC
		LIMIT ?`,
		ticker, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks for %s: %w", ticker, err)
	}
	defer rows.Close()

	ticks := make([]models.TradeExecution, 0, limit)
	for rows.Next() {
		var t models.TradeExecution
		var tradeType, tradeTime sql.NullString
		var rate sql.NullFloat64
		if err := rows.Scan(&t.Ticker, &t.Price, &t.Volume, &t.TotalVolume, &tradeType, &rate, &tradeTime, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan tick row: %w", err)
		}
		t.TradeType = tradeType.String
		t.Rate = rate.Float64
		t.Time = tradeTime.String
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tick row iteration failed: %w", err)
	}
	return ticks, nil
}

// PruneOlderThan deletes ticks older than the cutoff, returning rows removed
func (s *TickStore) PruneOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM stock_ticks WHERE created_at < ?`, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune ticks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
