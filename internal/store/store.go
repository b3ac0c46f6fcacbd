// Package store persists the backend's developer directory and telemetry log.
// SQLite (modernc.org/sqlite) is the default; a postgres:// DSN selects
// PostgreSQL through pgx.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Sirily23/udicti-cli/internal/model"
)

const schemaVersion = 1

// ErrIncomplete is returned when a developer lacks name, email, or github.
var ErrIncomplete = errors.New("incomplete developer record")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is a SQL-backed developer directory.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// EventRecord is a telemetry event as received by the backend.
type EventRecord struct {
	model.Event
	IP         string
	UserAgent  string
	ReceivedAt time.Time
}

// Open connects to dsn, creating the schema if needed. A DSN starting with
// postgres:// or postgresql:// opens PostgreSQL; anything else is a SQLite
// file path whose parent directory is created.
func Open(dsn string) (*Store, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	if isPostgres(dsn) {
		d = dialectPostgres
		db, err = sql.Open("pgx", dsn)
	} else {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir %s: %w", dir, err)
			}
		}
		db, err = sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, dialect: d, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver names the database in use.
func (s *Store) Driver() string {
	if s.dialect == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if errors.Is(err, sql.ErrNoRows) {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS developers (
			email      TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			github     TEXT NOT NULL,
			skills     TEXT NOT NULL,
			interests  TEXT NOT NULL,
			source     TEXT NOT NULL,
			joined_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			event       TEXT NOT NULL,
			source      TEXT,
			timestamp   TEXT NOT NULL,
			data        TEXT,
			ip          TEXT,
			user_agent  TEXT,
			received_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event ON events(event)`,
		`DELETE FROM schema_version`,
		`INSERT INTO schema_version (version) VALUES (` + strconv.Itoa(schemaVersion) + `)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

// UpsertDeveloper inserts or overwrites the developer with d's email and
// stamps joined_at with the current time.
func (s *Store) UpsertDeveloper(ctx context.Context, d model.Developer, source string) (model.Developer, error) {
	d = d.Normalized()
	if err := d.Validate(); err != nil {
		return model.Developer{}, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	if source == "" {
		source = model.SourceCLI
	}

	skills, err := json.Marshal(d.Skills)
	if err != nil {
		return model.Developer{}, fmt.Errorf("marshal skills: %w", err)
	}
	interests, err := json.Marshal(d.Interests)
	if err != nil {
		return model.Developer{}, fmt.Errorf("marshal interests: %w", err)
	}

	joined := s.now().UTC()
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO developers (email, name, github, skills, interests, source, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			name = excluded.name,
			github = excluded.github,
			skills = excluded.skills,
			interests = excluded.interests,
			source = excluded.source,
			joined_at = excluded.joined_at`),
		d.Email, d.Name, d.GitHub, string(skills), string(interests), source, joined.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Developer{}, fmt.Errorf("upsert developer: %w", err)
	}

	d.JoinedAt = model.NewTimestamp(joined)
	return d, nil
}

// ListDevelopers returns every complete developer record ordered by email.
func (s *Store) ListDevelopers(ctx context.Context) ([]model.Developer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, name, github, skills, interests, joined_at
		FROM developers ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("query developers: %w", err)
	}
	defer rows.Close()

	devs := []model.Developer{}
	for rows.Next() {
		var (
			d                 model.Developer
			skills, interests string
			joined            string
		)
		if err := rows.Scan(&d.Email, &d.Name, &d.GitHub, &skills, &interests, &joined); err != nil {
			return nil, fmt.Errorf("scan developer: %w", err)
		}
		if d.Name == "" || d.Email == "" || d.GitHub == "" {
			continue
		}
		if err := json.Unmarshal([]byte(skills), &d.Skills); err != nil {
			d.Skills = nil
		}
		if err := json.Unmarshal([]byte(interests), &d.Interests); err != nil {
			d.Interests = nil
		}
		if t, err := time.Parse(time.RFC3339Nano, joined); err == nil {
			d.JoinedAt = model.NewTimestamp(t)
		}
		devs = append(devs, d.Normalized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate developers: %w", err)
	}
	return devs, nil
}

// RecordEvent stores a telemetry event and returns its id. Events without an
// id are assigned one; events without a timestamp use the receive time.
// Replaying an id that is already stored is a no-op.
func (s *Store) RecordEvent(ctx context.Context, rec EventRecord) (string, error) {
	if rec.Event.Event == "" {
		return "", errors.New("event name is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = s.now()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = rec.ReceivedAt
	}

	data := []byte("{}")
	if len(rec.Data) > 0 {
		var err error
		if data, err = json.Marshal(rec.Data); err != nil {
			return "", fmt.Errorf("marshal event data: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO events (id, event, source, timestamp, data, ip, user_agent, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		rec.ID, rec.Event.Event, rec.Source,
		rec.Timestamp.UTC().Format(time.RFC3339Nano), string(data),
		rec.IP, rec.UserAgent, rec.ReceivedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return rec.ID, nil
}

// CountEvents returns how many events named name were recorded, or all
// events when name is empty.
func (s *Store) CountEvents(ctx context.Context, name string) (int, error) {
	query := "SELECT COUNT(*) FROM events"
	var args []any
	if name != "" {
		query += " WHERE event = ?"
		args = append(args, name)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
