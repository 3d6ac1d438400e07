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

var contextDocColumns = []string{"id", "type", "title", "content", "is_active", "created_at"}

// ContextDocRepository persists versioned guidance documents.
type ContextDocRepository struct {
	store *Store
}

var _ ports.ContextDocRepository = (*ContextDocRepository)(nil)

// Create stores doc and makes it the only active document of its type.
func (r *ContextDocRepository) Create(ctx context.Context, doc domain.ContextDoc) (domain.ContextDoc, error) {
	if err := r.store.ready(); err != nil {
		return domain.ContextDoc{}, err
	}

	doc.ID = r.store.newID()
	doc.IsActive = true

	insert, insertArgs, err := r.store.builder.Insert("context_docs").
		Columns(contextDocColumns...).
		Values(doc.ID, string(doc.Type), nullableString(doc.Title), doc.Content, true, r.store.timestamp()).
		ToSql()
	if err != nil {
		return domain.ContextDoc{}, fmt.Errorf("build insert context doc: %w", err)
	}

	err = r.store.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.deactivateType(ctx, tx, doc.Type); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return fmt.Errorf("insert context doc: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ContextDoc{}, err
	}

	return r.get(ctx, doc.ID)
}

// List returns every version of a document type, newest first.
func (r *ContextDocRepository) List(ctx context.Context, docType domain.ContextDocType) ([]domain.ContextDoc, error) {
	if err := r.store.ready(); err != nil {
		return nil, err
	}

	query, args, err := r.store.builder.Select(contextDocColumns...).From("context_docs").
		Where(sq.Eq{"type": string(docType)}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list context docs: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query context docs: %w", err)
	}
	defer rows.Close()

	var docs []domain.ContextDoc
	for rows.Next() {
		doc, err := scanContextDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan context doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return docs, nil
}

// Active returns the active document of a type or ErrContextDocNotFound.
func (r *ContextDocRepository) Active(ctx context.Context, docType domain.ContextDocType) (domain.ContextDoc, error) {
	if err := r.store.ready(); err != nil {
		return domain.ContextDoc{}, err
	}

	query, args, err := r.store.builder.Select(contextDocColumns...).From("context_docs").
		Where(sq.Eq{"type": string(docType), "is_active": true}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.ContextDoc{}, fmt.Errorf("build active context doc: %w", err)
	}
	return r.one(ctx, query, args)
}

// SetActive activates id and deactivates the other documents of its type.
func (r *ContextDocRepository) SetActive(ctx context.Context, id string) error {
	doc, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	activate, args, err := r.store.builder.Update("context_docs").
		Set("is_active", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build activate context doc: %w", err)
	}

	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.deactivateType(ctx, tx, doc.Type); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, activate, args...); err != nil {
			return fmt.Errorf("activate context doc: %w", err)
		}
		return nil
	})
}

func (r *ContextDocRepository) get(ctx context.Context, id string) (domain.ContextDoc, error) {
	if err := r.store.ready(); err != nil {
		return domain.ContextDoc{}, err
	}

	query, args, err := r.store.builder.Select(contextDocColumns...).From("context_docs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ContextDoc{}, fmt.Errorf("build select context doc: %w", err)
	}
	return r.one(ctx, query, args)
}

func (r *ContextDocRepository) one(ctx context.Context, query string, args []any) (domain.ContextDoc, error) {
	doc, err := scanContextDoc(r.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContextDoc{}, domain.ErrContextDocNotFound
	}
	if err != nil {
		return domain.ContextDoc{}, fmt.Errorf("select context doc: %w", err)
	}
	return doc, nil
}

func (r *ContextDocRepository) deactivateType(ctx context.Context, tx *sql.Tx, docType domain.ContextDocType) error {
	query, args, err := r.store.builder.Update("context_docs").
		Set("is_active", false).
		Where(sq.Eq{"type": string(docType)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate context docs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deactivate context docs: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanContextDoc(row rowScanner) (domain.ContextDoc, error) {
	var (
		doc              domain.ContextDoc
		docType, created string
		title            sql.NullString
	)
	if err := row.Scan(&doc.ID, &docType, &title, &doc.Content, &doc.IsActive, &created); err != nil {
		return domain.ContextDoc{}, err
	}

	doc.Type = domain.ContextDocType(docType)
	doc.Title = fromNullString(title)

	var err error
	if doc.CreatedAt, err = parseTime(created); err != nil {
		return domain.ContextDoc{}, err
	}
	return doc, nil
}
