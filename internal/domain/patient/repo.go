package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Summary, int, error)
	// SetStatus rewrites dossier_medical.status and returns the owning hospital.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (uuid.UUID, error)
}
