package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

var draftColumns = []string{
	"id", "lead_id", "channel", "subject", "content", "variant_key", "angle", "hypothesis", "created_at", "updated_at",
}

// DraftRepository persists outreach drafts.
type DraftRepository struct {
	store *Store
}

var _ ports.DraftRepository = (*DraftRepository)(nil)

func (r *DraftRepository) Create(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	if err := r.store.ready(); err != nil {
		return domain.Draft{}, err
	}

	draft.ID = r.store.newID()
	now := r.store.timestamp()

	query, args, err := r.store.builder.Insert("drafts").
		Columns(draftColumns...).
		Values(draft.ID, draft.LeadID, string(draft.Channel), nullableString(draft.Subject), draft.Content,
			draft.VariantKey, nullableAngle(draft.Angle), nullableString(draft.Hypothesis), now, now).
		ToSql()
	if err != nil {
		return domain.Draft{}, fmt.Errorf("build insert draft: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Draft{}, fmt.Errorf("insert draft: %w", err)
	}

	return r.Get(ctx, draft.ID)
}

func (r *DraftRepository) Get(ctx context.Context, id string) (domain.Draft, error) {
	if err := r.store.ready(); err != nil {
		return domain.Draft{}, err
	}

	query, args, err := r.store.builder.Select(draftColumns...).From("drafts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Draft{}, fmt.Errorf("build select draft: %w", err)
	}

	draft, err := scanDraft(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Draft{}, domain.ErrDraftNotFound
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("select draft: %w", err)
	}
	return draft, nil
}

// Update saves edited subject and content.
func (r *DraftRepository) Update(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	if err := r.store.ready(); err != nil {
		return domain.Draft{}, err
	}

	query, args, err := r.store.builder.Update("drafts").
		Set("subject", nullableString(draft.Subject)).
		Set("content", draft.Content).
		Set("updated_at", r.store.timestamp()).
		Where(sq.Eq{"id": draft.ID}).
		ToSql()
	if err != nil {
		return domain.Draft{}, fmt.Errorf("build update draft: %w", err)
	}

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("update draft: %w", err)
	}
	if err := rowsAffected(res, domain.ErrDraftNotFound); err != nil {
		return domain.Draft{}, err
	}
	return r.Get(ctx, draft.ID)
}

// ListByLead returns the drafts of a lead, newest first.
func (r *DraftRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Draft, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.store.builder.Select(draftColumns...).From("drafts").
		Where(sq.Eq{"lead_id": leadID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list drafts: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return drafts, nil
}

func scanDraft(row rowScanner) (domain.Draft, error) {
	var (
		draft                      domain.Draft
		channel                    string
		subject, angle, hypothesis sql.NullString
		created, updated           string
	)
	if err := row.Scan(&draft.ID, &draft.LeadID, &channel, &subject, &draft.Content, &draft.VariantKey,
		&angle, &hypothesis, &created, &updated); err != nil {
		return domain.Draft{}, err
	}

	draft.Channel = domain.Channel(channel)
	draft.Subject = fromNullString(subject)
	draft.Angle = fromNullAngle(angle)
	draft.Hypothesis = fromNullString(hypothesis)

	var err error
	if draft.CreatedAt, err = parseTime(created); err != nil {
		return domain.Draft{}, err
	}
	if draft.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Draft{}, err
	}
	return draft, nil
}
