package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists reading history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the history command read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			subject     TEXT,
			query       TEXT,
			location    TEXT,
			lat         REAL,
			lon         REAL,
			fallback    INTEGER,
			sun_sign    TEXT,
			moon_sign   TEXT,
			rising      TEXT,
			unavailable TEXT,
			body        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(timestamp)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			reading_id TEXT,
			channel    TEXT,
			target     TEXT,
			ok         INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_ts ON deliveries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) RecordReading(evt *ReadingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evt.ID == "" {
		evt.ID = NewID()
	}
	stamp(&evt.CreatedAt)

	_, err := r.db.Exec(`INSERT INTO readings
		(id, timestamp, kind, subject, query, location, lat, lon, fallback,
		 sun_sign, moon_sign, rising, unavailable, body)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.CreatedAt.UnixMilli(), evt.Kind, evt.Subject, evt.Query, evt.Location,
		evt.Lat, evt.Lon, boolInt(evt.Fallback),
		evt.SunSign, evt.MoonSign, evt.Rising, strings.Join(evt.Unavailable, ","), evt.Text,
	)
	return err
}

func (r *SQLiteRecorder) RecordDelivery(evt *DeliveryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp(&evt.CreatedAt)
	_, err := r.db.Exec(`INSERT INTO deliveries
		(timestamp, reading_id, channel, target, ok, error)
		VALUES (?,?,?,?,?,?)`,
		evt.CreatedAt.UnixMilli(), evt.ReadingID, evt.Channel, evt.Target, boolInt(evt.OK), evt.Error,
	)
	return err
}

// Recent returns the newest readings first.
func (r *SQLiteRecorder) Recent(limit int) ([]ReadingEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, timestamp, kind, subject, query, location, lat, lon,
		fallback, sun_sign, moon_sign, rising, unavailable, body
		FROM readings ORDER BY timestamp DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []ReadingEvent
	for rows.Next() {
		var (
			evt         ReadingEvent
			ts          int64
			fallback    int
			unavailable string
		)
		if err := rows.Scan(&evt.ID, &ts, &evt.Kind, &evt.Subject, &evt.Query, &evt.Location,
			&evt.Lat, &evt.Lon, &fallback, &evt.SunSign, &evt.MoonSign, &evt.Rising,
			&unavailable, &evt.Text); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		evt.CreatedAt = time.UnixMilli(ts).UTC()
		evt.Fallback = fallback != 0
		if unavailable != "" {
			evt.Unavailable = strings.Split(unavailable, ",")
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
