package usecase

import (
	"context"
	"errors"
	"fmt"

	"GTMEngine/internal/domain"
	"GTMEngine/internal/icp"
	"GTMEngine/internal/ports"
)

// sourceSignal loads the signal a lead was converted from. A dangling reference yields nil.
func sourceSignal(ctx context.Context, signals ports.SignalRepository, lead domain.Lead) (*domain.Signal, error) {
	if lead.SignalID == nil || signals == nil {
		return nil, nil
	}
	signal, err := signals.Get(ctx, *lead.SignalID)
	if errors.Is(err, domain.ErrSignalNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load signal for lead %s: %w", lead.ID, err)
	}
	return &signal, nil
}

// activeDoc returns the content of the active document of docType, or nil when none is set.
func activeDoc(ctx context.Context, docs ports.ContextDocRepository, docType domain.ContextDocType) (*string, error) {
	if docs == nil {
		return nil, nil
	}
	doc, err := docs.Active(ctx, docType)
	if errors.Is(err, domain.ErrContextDocNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active %s doc: %w", docType, err)
	}
	return &doc.Content, nil
}

// scoreLead recomputes the ICP score from the current lead, signal and active ICP document.
func scoreLead(ctx context.Context, docs ports.ContextDocRepository, lead domain.Lead, signal *domain.Signal) (domain.IcpScore, error) {
	icpDoc, err := activeDoc(ctx, docs, domain.ContextICP)
	if err != nil {
		return domain.IcpScore{}, err
	}
	return icp.Score(icp.FromLead(lead), icp.FromSignal(signal), icpDoc), nil
}
