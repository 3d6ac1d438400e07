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

var leadColumns = []string{
	"id", "signal_id", "name", "role", "company", "email", "linkedin_url", "pipeline_status",
	"enriched_at", "enrichment_source", "attio_synced_at", "created_at", "updated_at",
}

// LeadRepository persists leads.
type LeadRepository struct {
	store *Store
}

var _ ports.LeadRepository = (*LeadRepository)(nil)

// Create stores a new lead; an empty pipeline status becomes new.
func (r *LeadRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := r.store.ready(); err != nil {
		return domain.Lead{}, err
	}

	lead.ID = r.store.newID()
	if lead.PipelineStatus == "" {
		lead.PipelineStatus = domain.PipelineNew
	}
	now := r.store.timestamp()

	query, args, err := r.store.builder.Insert("leads").
		Columns(leadColumns...).
		Values(lead.ID, nullableString(lead.SignalID), lead.Name, nullableString(lead.Role),
			nullableString(lead.Company), nullableString(lead.Email), nullableString(lead.LinkedInURL),
			string(lead.PipelineStatus), nullableTime(lead.EnrichedAt), nullableString(lead.EnrichmentSource),
			nullableTime(lead.AttioSyncedAt), now, now).
		ToSql()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("build insert lead: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return r.Get(ctx, lead.ID)
}

// Get loads one lead by id.
func (r *LeadRepository) Get(ctx context.Context, id string) (domain.Lead, error) {
	if err := r.store.ready(); err != nil {
		return domain.Lead{}, err
	}

	query, args, err := r.store.builder.Select(leadColumns...).From("leads").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("build select lead: %w", err)
	}

	lead, err := scanLead(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("select lead: %w", err)
	}
	return lead, nil
}

// List returns every lead, newest first.
func (r *LeadRepository) List(ctx context.Context) ([]domain.Lead, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.store.builder.Select(leadColumns...).From("leads").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list leads: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return leads, nil
}

// Update overwrites the mutable fields of a lead and bumps updated_at.
func (r *LeadRepository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if err := r.store.ready(); err != nil {
		return domain.Lead{}, err
	}

	query, args, err := r.store.builder.Update("leads").
		SetMap(map[string]any{
			"name":              lead.Name,
			"role":              nullableString(lead.Role),
			"company":           nullableString(lead.Company),
			"email":             nullableString(lead.Email),
			"linkedin_url":      nullableString(lead.LinkedInURL),
			"pipeline_status":   string(lead.PipelineStatus),
			"enriched_at":       nullableTime(lead.EnrichedAt),
			"enrichment_source": nullableString(lead.EnrichmentSource),
			"attio_synced_at":   nullableTime(lead.AttioSyncedAt),
			"updated_at":        r.store.timestamp(),
		}).
		Where(sq.Eq{"id": lead.ID}).
		ToSql()
	if err != nil {
		return domain.Lead{}, fmt.Errorf("build update lead: %w", err)
	}

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead: %w", err)
	}
	if err := rowsAffected(res, domain.ErrLeadNotFound); err != nil {
		return domain.Lead{}, err
	}
	return r.Get(ctx, lead.ID)
}

// CountByStatus reports how many leads sit in each pipeline status.
func (r *LeadRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}
	return r.store.countBy(ctx, "leads", "pipeline_status")
}

func scanLead(row rowScanner) (domain.Lead, error) {
	var (
		lead                                        domain.Lead
		signalID, role, company, email, linkedin    sql.NullString
		status                                      string
		enrichedAt, enrichmentSource, attioSyncedAt sql.NullString
		created, updated                            string
	)
	if err := row.Scan(&lead.ID, &signalID, &lead.Name, &role, &company, &email, &linkedin, &status,
		&enrichedAt, &enrichmentSource, &attioSyncedAt, &created, &updated); err != nil {
		return domain.Lead{}, err
	}

	lead.SignalID = fromNullString(signalID)
	lead.Role = fromNullString(role)
	lead.Company = fromNullString(company)
	lead.Email = fromNullString(email)
	lead.LinkedInURL = fromNullString(linkedin)
	lead.PipelineStatus = domain.PipelineStatus(status)
	lead.EnrichmentSource = fromNullString(enrichmentSource)

	var err error
	if lead.EnrichedAt, err = parseNullTime(enrichedAt); err != nil {
		return domain.Lead{}, err
	}
	if lead.AttioSyncedAt, err = parseNullTime(attioSyncedAt); err != nil {
		return domain.Lead{}, err
	}
	if lead.CreatedAt, err = parseTime(created); err != nil {
		return domain.Lead{}, err
	}
	if lead.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}
