package usecase

import (
	"context"
	"fmt"
	"strings"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// ContextDocService manages the signals, icp and tone guidance documents.
type ContextDocService struct {
	docs ports.ContextDocRepository
}

func NewContextDocService(docs ports.ContextDocRepository) *ContextDocService {
	return &ContextDocService{docs: docs}
}

// Create stores a new version that becomes the active document of its type.
func (s *ContextDocService) Create(ctx context.Context, docType domain.ContextDocType, title *string, content string) (domain.ContextDoc, error) {
	if _, err := domain.ParseContextDocType(string(docType)); err != nil {
		return domain.ContextDoc{}, err
	}
	if strings.TrimSpace(content) == "" {
		return domain.ContextDoc{}, domain.ErrEmptyContent
	}
	if title != nil {
		title = domain.StringPtr(strings.TrimSpace(*title))
	}

	doc, err := s.docs.Create(ctx, domain.ContextDoc{Type: docType, Title: title, Content: content})
	if err != nil {
		return domain.ContextDoc{}, fmt.Errorf("create context doc: %w", err)
	}
	return doc, nil
}

func (s *ContextDocService) List(ctx context.Context, docType domain.ContextDocType) ([]domain.ContextDoc, error) {
	return s.docs.List(ctx, docType)
}

// Active returns the active document of docType or domain.ErrContextDocNotFound.
func (s *ContextDocService) Active(ctx context.Context, docType domain.ContextDocType) (domain.ContextDoc, error) {
	return s.docs.Active(ctx, docType)
}

func (s *ContextDocService) SetActive(ctx context.Context, id string) error {
	return s.docs.SetActive(ctx, id)
}
