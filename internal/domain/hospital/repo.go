package hospital

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetByUserID(ctx context.Context, userID string) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	// ListLocated returns every hospital in storage order (created_at, id).
	ListLocated(ctx context.Context) ([]*Hospital, error)
	// ListByIDs returns the hospitals among ids that exist, in no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Hospital, error)
}

type ResourceRepository interface {
	ListDoctors(ctx context.Context, hospitalID uuid.UUID) ([]*Doctor, error)
	ListEquipment(ctx context.Context, hospitalID uuid.UUID) ([]*Equipment, error)
	ListMedications(ctx context.Context, hospitalID uuid.UUID) ([]*Medication, error)
	AddDoctor(ctx context.Context, d *Doctor) error
	AddEquipment(ctx context.Context, eq *Equipment) error
	AddMedication(ctx context.Context, m *Medication) error
	// Delete* scope the delete to the owning hospital; a miss returns ErrResourceNotFound.
	DeleteDoctor(ctx context.Context, hospitalID, id uuid.UUID) error
	DeleteEquipment(ctx context.Context, hospitalID, id uuid.UUID) error
	DeleteMedication(ctx context.Context, hospitalID, id uuid.UUID) error
}

// Locator ranks hospitals by distance from origin. k <= 0 returns every hospital.
type Locator interface {
	Nearest(ctx context.Context, origin geo.Point, k int) ([]Nearby, error)
}
