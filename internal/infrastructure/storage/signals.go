package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

var signalColumns = []string{"id", "source", "excerpt", "status", "angle", "captured_at", "created_at"}

// SignalRepository persists captured signals.
type SignalRepository struct {
	store *Store
}

var _ ports.SignalRepository = (*SignalRepository)(nil)

// Create stores a new signal and assigns its identity.
func (r *SignalRepository) Create(ctx context.Context, signal domain.Signal) (domain.Signal, error) {
	if err := r.store.ready(); err != nil {
		return domain.Signal{}, err
	}

	signal.ID = r.store.newID()
	if signal.Status == "" {
		signal.Status = domain.SignalPending
	}
	created := r.store.timestamp()
	if signal.CapturedAt.IsZero() {
		signal.CapturedAt = r.store.now()
	}

	query, args, err := r.store.builder.Insert("signals").
		Columns(signalColumns...).
		Values(signal.ID, signal.Source, signal.Excerpt, string(signal.Status), nullableAngle(signal.Angle),
			formatTime(signal.CapturedAt), created).
		ToSql()
	if err != nil {
		return domain.Signal{}, fmt.Errorf("build insert signal: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Signal{}, fmt.Errorf("insert signal: %w", err)
	}

	return r.Get(ctx, signal.ID)
}

// Get loads one signal by id.
func (r *SignalRepository) Get(ctx context.Context, id string) (domain.Signal, error) {
	if err := r.store.ready(); err != nil {
		return domain.Signal{}, err
	}

	query, args, err := r.store.builder.Select(signalColumns...).From("signals").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Signal{}, fmt.Errorf("build select signal: %w", err)
	}

	signal, err := scanSignal(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Signal{}, domain.ErrSignalNotFound
	}
	if err != nil {
		return domain.Signal{}, fmt.Errorf("select signal: %w", err)
	}
	return signal, nil
}

// List returns signals newest first.
func (r *SignalRepository) List(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	builder := r.store.builder.Select(signalColumns...).From("signals").OrderBy("created_at DESC", "captured_at DESC")
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list signals: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		signal, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		signals = append(signals, signal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return signals, nil
}

// ExistingSources returns the subset of sources that already have a signal.
func (r *SignalRepository) ExistingSources(ctx context.Context, sources []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(sources) == 0 {
		return result, nil
	}
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	builder := r.store.builder.Select("DISTINCT source").From("signals")
	if r.store.driver == config.DriverPostgres {
		builder = builder.Where("source = ANY(?)", pq.StringArray(sources))
	} else {
		builder = builder.Where(sq.Eq{"source": sources})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing sources: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		result[source] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// UpdateStatus moves a signal through its review lifecycle.
func (r *SignalRepository) UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error {
	return r.update(ctx, id, "status", string(status))
}

// UpdateAngle stores the classified angle; nil clears it.
func (r *SignalRepository) UpdateAngle(ctx context.Context, id string, angle *domain.Angle) error {
	return r.update(ctx, id, "angle", nullableAngle(angle))
}

// CountByStatus reports how many signals sit in each status.
func (r *SignalRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}
	return r.store.countBy(ctx, "signals", "status")
}

func (r *SignalRepository) update(ctx context.Context, id, column string, value any) error {
	if err := r.store.ready(); err != nil {
		return err
	}

	query, args, err := r.store.builder.Update("signals").Set(column, value).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update signal %s: %w", column, err)
	}
	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update signal %s: %w", column, err)
	}
	return rowsAffected(res, domain.ErrSignalNotFound)
}

func scanSignal(row rowScanner) (domain.Signal, error) {
	var (
		signal              domain.Signal
		status              string
		angle               sql.NullString
		capturedAt, created string
	)
	if err := row.Scan(&signal.ID, &signal.Source, &signal.Excerpt, &status, &angle, &capturedAt, &created); err != nil {
		return domain.Signal{}, err
	}

	var err error
	signal.Status = domain.SignalStatus(status)
	signal.Angle = fromNullAngle(angle)
	if signal.CapturedAt, err = parseTime(capturedAt); err != nil {
		return domain.Signal{}, err
	}
	if signal.CreatedAt, err = parseTime(created); err != nil {
		return domain.Signal{}, err
	}
	return signal, nil
}

func (s *Store) countBy(ctx context.Context, table, column string) (map[string]int, error) {
	query, args, err := s.builder.Select(column, "COUNT(*)").From(table).GroupBy(column).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

func nullableAngle(a *domain.Angle) any {
	if a == nil {
		return nil
	}
	return string(*a)
}

func fromNullAngle(raw sql.NullString) *domain.Angle {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return domain.AnglePtr(domain.Angle(raw.String))
}
