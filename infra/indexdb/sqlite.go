// Package indexdb is a secondary, queryable index of executed trades. The
// entry WAL and snapshots remain the source of truth; this index may lag
// and may drop writes under pressure.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"barter/domain/exchange"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan exchange.Trade
	wg   sync.WaitGroup
	once sync.Once

	// mu orders RecordTrade sends against Close closing ch.
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan exchange.Trade, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			from_community TEXT NOT NULL,
			to_community TEXT NOT NULL,
			resource TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			distance_km REAL NOT NULL,
			carbon_kg TEXT NOT NULL,
			price_per_unit TEXT,
			total_value TEXT,
			ts INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_from_ts ON trades(from_community, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_to_ts ON trades(to_community, ts);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains pending writes and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()

		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordTrade queues t for indexing. It never blocks the caller.
func (s *SQLiteIndex) RecordTrade(t exchange.Trade) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- t:
	default:
		s.dropped.Add(1)
	}
}

// Dropped counts trades that never reached the database, including those
// in batches the database rejected.
func (s *SQLiteIndex) Dropped() uint64 {
	return s.dropped.Load() + s.failed.Load()
}

func (s *SQLiteIndex) loop() {
	const batchMax = 256
	batch := make([]exchange.Trade, 0, batchMax)

	for t := range s.ch {
		batch = append(batch[:0], t)
	drain:
		for len(batch) < batchMax {
			select {
			case more, ok := <-s.ch:
				if !ok {
					break drain
				}
				batch = append(batch, more)
			default:
				break drain
			}
		}
		if err := s.writeBatch(batch); err != nil {
			s.failed.Add(uint64(len(batch)))
		}
	}
}

func (s *SQLiteIndex) writeBatch(trades []exchange.Trade) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO trades
		(id, seq, from_community, to_community, resource, quantity, distance_km, carbon_kg, price_per_unit, total_value, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.Exec(
			t.ID, int64(t.Seq), t.FromCommunityID, t.ToCommunityID, t.Resource.String(),
			t.Quantity, t.DistanceKm, t.CarbonCostKg.String(),
			nullString(t.PricePerUnit), nullString(t.TotalValue),
			t.Timestamp.UnixNano(),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// -------------------- Queries --------------------

// CommunityTrades returns trades where communityID is either party,
// newest first. limit <= 0 means all.
func (s *SQLiteIndex) CommunityTrades(ctx context.Context, communityID string, limit int) ([]exchange.Trade, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, seq, from_community, to_community, resource, quantity,
			distance_km, carbon_kg, price_per_unit, total_value, ts
		FROM trades
		WHERE from_community = ? OR to_community = ?
		ORDER BY ts DESC, seq DESC
		LIMIT ?`, communityID, communityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []exchange.Trade
	for rows.Next() {
		var (
			t                exchange.Trade
			seq, ts          int64
			resource, carbon string
			price, total     sql.NullString
		)
		if err := rows.Scan(&t.ID, &seq, &t.FromCommunityID, &t.ToCommunityID, &resource, &t.Quantity,
			&t.DistanceKm, &carbon, &price, &total, &ts); err != nil {
			return nil, err
		}
		if t.Resource, err = exchange.ParseResource(resource); err != nil {
			return nil, err
		}
		if t.CarbonCostKg, err = decimal.NewFromString(carbon); err != nil {
			return nil, err
		}
		if t.PricePerUnit, err = parseNull(price); err != nil {
			return nil, err
		}
		if t.TotalValue, err = parseNull(total); err != nil {
			return nil, err
		}
		t.Seq = uint64(seq)
		t.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n)
	return n, err
}

func nullString(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func parseNull(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
