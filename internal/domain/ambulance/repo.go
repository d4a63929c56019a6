package ambulance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Ambulance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ambulance, error)
	GetByUserID(ctx context.Context, userID string) (*Ambulance, error)
	UpdateState(ctx context.Context, id uuid.UUID, state string) error
}
