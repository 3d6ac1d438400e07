package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"GTMEngine/internal/config"
)

// timeLayout is fixed width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store groups the repositories that share one database handle.
type Store struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
	now     func() time.Time
	newID   func() string

	Signals     *SignalRepository
	Leads       *LeadRepository
	Drafts      *DraftRepository
	Touchpoints *TouchpointRepository
	ContextDocs *ContextDocRepository
}

// Open connects to the configured database and verifies the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// NewStore wires every repository against db using the placeholder style of driver.
func NewStore(db *sql.DB, driver string) *Store {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == config.DriverPostgres {
		placeholder = sq.Dollar
	}

	s := &Store{
		db:      db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	s.Signals = &SignalRepository{store: s}
	s.Leads = &LeadRepository{store: s}
	s.Drafts = &DraftRepository{store: s}
	s.Touchpoints = &TouchpointRepository{store: s}
	s.ContextDocs = &ContextDocRepository{store: s}
	return s
}

// SetClock replaces the timestamp source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return errors.New("storage misconfigured")
	}
	return nil
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres:
		return "postgres", nil
	case config.DriverSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullString(raw sql.NullString) *string {
	if !raw.Valid {
		return nil
	}
	v := raw.String
	return &v
}

func rowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
