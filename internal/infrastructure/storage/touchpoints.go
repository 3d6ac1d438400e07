package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

var touchpointColumns = []string{
	"id", "lead_id", "draft_id", "channel", "status", "subject", "content", "sent_at", "external_id", "created_at",
}

// TouchpointRepository persists outreach history.
type TouchpointRepository struct {
	store *Store
}

var _ ports.TouchpointRepository = (*TouchpointRepository)(nil)

func (r *TouchpointRepository) Create(ctx context.Context, tp domain.Touchpoint) (domain.Touchpoint, error) {
	if err := r.store.ready(); err != nil {
		return domain.Touchpoint{}, err
	}

	tp.ID = r.store.newID()
	if tp.Status == "" {
		tp.Status = domain.TouchpointPlanned
	}

	query, args, err := r.store.builder.Insert("touchpoints").
		Columns(touchpointColumns...).
		Values(tp.ID, tp.LeadID, nullableString(tp.DraftID), string(tp.Channel), string(tp.Status),
			nullableString(tp.Subject), nullableString(tp.Content), nullableTime(tp.SentAt),
			nullableString(tp.ExternalID), r.store.timestamp()).
		ToSql()
	if err != nil {
		return domain.Touchpoint{}, fmt.Errorf("build insert touchpoint: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Touchpoint{}, fmt.Errorf("insert touchpoint: %w", err)
	}

	return r.Get(ctx, tp.ID)
}

func (r *TouchpointRepository) Get(ctx context.Context, id string) (domain.Touchpoint, error) {
	if err := r.store.ready(); err != nil {
		return domain.Touchpoint{}, err
	}

	query, args, err := r.store.builder.Select(touchpointColumns...).From("touchpoints").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Touchpoint{}, fmt.Errorf("build select touchpoint: %w", err)
	}

	tp, err := scanTouchpoint(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Touchpoint{}, domain.ErrTouchpointNotFound
	}
	if err != nil {
		return domain.Touchpoint{}, fmt.Errorf("select touchpoint: %w", err)
	}
	return tp, nil
}

// ListByLead returns the touchpoints of a lead in the order they were recorded.
func (r *TouchpointRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Touchpoint, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.store.builder.Select(touchpointColumns...).From("touchpoints").
		Where(sq.Eq{"lead_id": leadID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list touchpoints: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query touchpoints: %w", err)
	}
	defer rows.Close()

	var touchpoints []domain.Touchpoint
	for rows.Next() {
		tp, err := scanTouchpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan touchpoint: %w", err)
		}
		touchpoints = append(touchpoints, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return touchpoints, nil
}

// MarkSent flips a touchpoint to sent and records the provider message id.
func (r *TouchpointRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, externalID *string) error {
	if err := r.store.ready(); err != nil {
		return err
	}

	query, args, err := r.store.builder.Update("touchpoints").
		Set("status", string(domain.TouchpointSent)).
		Set("sent_at", formatTime(sentAt)).
		Set("external_id", nullableString(externalID)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark touchpoint sent: %w", err)
	}

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark touchpoint sent: %w", err)
	}
	return rowsAffected(res, domain.ErrTouchpointNotFound)
}

func scanTouchpoint(row rowScanner) (domain.Touchpoint, error) {
	var (
		tp                                       domain.Touchpoint
		draftID, subject, content, sentAt, extID sql.NullString
		channel, status, created                 string
	)
	if err := row.Scan(&tp.ID, &tp.LeadID, &draftID, &channel, &status, &subject, &content, &sentAt,
		&extID, &created); err != nil {
		return domain.Touchpoint{}, err
	}

	tp.DraftID = fromNullString(draftID)
	tp.Channel = domain.Channel(channel)
	tp.Status = domain.TouchpointStatus(status)
	tp.Subject = fromNullString(subject)
	tp.Content = fromNullString(content)
	tp.ExternalID = fromNullString(extID)

	var err error
	if tp.SentAt, err = parseNullTime(sentAt); err != nil {
		return domain.Touchpoint{}, err
	}
	if tp.CreatedAt, err = parseTime(created); err != nil {
		return domain.Touchpoint{}, err
	}
	return tp, nil
}
