package ambulance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register enrolls a crew for userID. New crews start Disponible.
func (s *Service) Register(ctx context.Context, a *Ambulance) error {
	if a.UserID == "" {
		return ErrNoUser
	}
	if a.Capacity < 0 {
		return fmt.Errorf("%w: capacite must not be negative", ErrInvalid)
	}
	a.State = StateAvailable
	return s.repo.Create(ctx, a)
}

func (s *Service) GetAmbulance(ctx context.Context, id uuid.UUID) (*Ambulance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*Ambulance, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) SetState(ctx context.Context, userID, state string) (*Ambulance, error) {
	if !validStates[state] {
		return nil, fmt.Errorf("%w: unknown etat %q", ErrInvalid, state)
	}
	a, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, a.ID, state); err != nil {
		return nil, err
	}
	a.State = state
	return a, nil
}
