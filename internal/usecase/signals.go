package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"GTMEngine/internal/angle"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// SignalService covers review actions on captured signals.
type SignalService struct {
	signals ports.SignalRepository
	logger  *slog.Logger
}

// NewSignalService builds the signal review use case.
func NewSignalService(signals ports.SignalRepository, logger *slog.Logger) *SignalService {
	return &SignalService{signals: signals, logger: logger}
}

func (s *SignalService) List(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error) {
	return s.signals.List(ctx, filter)
}

func (s *SignalService) Get(ctx context.Context, id string) (domain.Signal, error) {
	return s.signals.Get(ctx, id)
}

// UpdateStatus validates and stores a new review status.
func (s *SignalService) UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error {
	if _, err := domain.ParseSignalStatus(string(status)); err != nil {
		return err
	}
	if err := s.signals.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update signal status: %w", err)
	}
	return nil
}

// UpdateAngle sets the angle manually; nil clears it.
func (s *SignalService) UpdateAngle(ctx context.Context, id string, a *domain.Angle) error {
	if a != nil && !a.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAngle, *a)
	}
	if err := s.signals.UpdateAngle(ctx, id, a); err != nil {
		return fmt.Errorf("update signal angle: %w", err)
	}
	return nil
}

// ClassifyAngle runs the keyword classifier on the excerpt and stores a winning angle.
// A signal without any keyword hit keeps its current angle.
func (s *SignalService) ClassifyAngle(ctx context.Context, id string) (angle.Result, error) {
	signal, err := s.signals.Get(ctx, id)
	if err != nil {
		return angle.Result{}, err
	}

	result := angle.Classify(signal.Excerpt)
	if result.Angle == nil {
		return result, nil
	}

	if err := s.signals.UpdateAngle(ctx, id, result.Angle); err != nil {
		return angle.Result{}, fmt.Errorf("store classified angle: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("signal classified", "signal", id, "angle", *result.Angle)
	}
	return result, nil
}
