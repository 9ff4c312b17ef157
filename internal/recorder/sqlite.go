package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PremiumSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS historical_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS etf_status_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			strategy     TEXT,
			vix_color    TEXT,
			sp_color     TEXT,
			ndx_color    TEXT,
			symbol       TEXT,
			last_price   REAL,
			green_calls  INTEGER,
			green_puts   INTEGER,
			yellow_count INTEGER,
			status_color TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_ts ON etf_status_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS regime_changes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			subject    TEXT,
			from_color TEXT,
			to_color   TEXT,
			reason     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_regime_ts ON regime_changes(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) SaveHistorical(ctx context.Context, symbol string, bars []model.OHLCV) error {
	if len(bars) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO historical_prices
		(symbol, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time.UTC().Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, int64(b.Volume)); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s %s: %w", symbol, b.Time.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LoadHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume
		FROM historical_prices WHERE symbol = ?
		ORDER BY date DESC LIMIT ?`, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("query historical: %w", err)
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var (
			date   string
			b      model.OHLCV
			volume int64
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("scan historical: %w", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		b.Time = t
		b.Volume = float64(volume)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (r *SQLiteRecorder) RecordStatus(ctx context.Context, snap *StatusSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.At.Unix()
	for _, st := range snap.ETFs {
		_, err := r.db.ExecContext(ctx, `INSERT INTO etf_status_snapshots
			(timestamp, strategy, vix_color, sp_color, ndx_color,
			 symbol, last_price, green_calls, green_puts, yellow_count, status_color)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			ts, string(snap.Strategy), string(snap.VIX), string(snap.SP500), string(snap.Nasdaq),
			st.Symbol, st.LastPrice, st.GreenCalls, st.GreenPuts, st.YellowCount, string(st.StatusColor),
		)
		if err != nil {
			return fmt.Errorf("insert status %s: %w", st.Symbol, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRegimeChange(ctx context.Context, evt *RegimeChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO regime_changes
		(timestamp, subject, from_color, to_color, reason)
		VALUES (?,?,?,?,?)`,
		evt.At.Unix(), evt.Subject, string(evt.From), string(evt.To), evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
