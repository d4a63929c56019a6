package hospital

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

// DefaultNearestLimit is the page size of the nearest-hospitals listing.
const DefaultNearestLimit = 5

// Indexer mirrors hospital writes into a search index.
type Indexer interface {
	Index(ctx context.Context, h *Hospital) error
}

type Service struct {
	hospitals HospitalRepository
	resources ResourceRepository
	locator   Locator
	indexer   Indexer
	logger    zerolog.Logger
}

// NewService wires the repositories. A nil locator ranks hospitals from the
// relational store.
func NewService(hospitals HospitalRepository, resources ResourceRepository, locator Locator) *Service {
	if locator == nil {
		locator = NewStoreLocator(hospitals)
	}
	return &Service{hospitals: hospitals, resources: resources, locator: locator, logger: zerolog.Nop()}
}

// WithIndexer makes registrations and profile updates refresh ix. A failed
// refresh is logged; the relational write still stands.
func (s *Service) WithIndexer(ix Indexer, logger zerolog.Logger) *Service {
	s.indexer = ix
	s.logger = logger
	return s
}

func (s *Service) reindex(ctx context.Context, h *Hospital) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, h); err != nil {
		s.logger.Error().
			Err(err).
			Str("hospital_id", h.ID.String()).
			Msg("failed to refresh hospital in search index, run index sync")
	}
}

func (s *Service) Register(ctx context.Context, h *Hospital) error {
	h.Name = strings.TrimSpace(h.Name)
	if h.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if h.Name == "" {
		return fmt.Errorf("%w: nom is required", ErrInvalid)
	}
	if err := h.Location().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := validateBeds(h.TotalBeds, h.AvailableBeds); err != nil {
		return err
	}
	if err := s.hospitals.Create(ctx, h); err != nil {
		return err
	}
	s.reindex(ctx, h)
	return nil
}

func validateBeds(total, available int) error {
	if total < 0 || available < 0 {
		return fmt.Errorf("%w: bed counts must not be negative", ErrInvalid)
	}
	if available > total {
		return fmt.Errorf("%w: lits_disponibles (%d) exceeds capacite_totale (%d)", ErrInvalid, available, total)
	}
	return nil
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*Hospital, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	return s.hospitals.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) (*Hospital, error) {
	h, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.TotalBeds != nil {
		h.TotalBeds = *u.TotalBeds
	}
	if u.AvailableBeds != nil {
		h.AvailableBeds = *u.AvailableBeds
	}
	if u.HasEmergencyBlock != nil {
		h.HasEmergencyBlock = *u.HasEmergencyBlock
	}
	if u.Pediatric != nil {
		h.Pediatric = *u.Pediatric
	}
	if u.Contact != nil {
		h.Contact = u.Contact
	}
	if err := validateBeds(h.TotalBeds, h.AvailableBeds); err != nil {
		return nil, err
	}
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, err
	}
	s.reindex(ctx, h)
	return h, nil
}

// Nearest returns up to k hospitals ordered by distance from origin.
// k == 0 returns the full ordering.
func (s *Service) Nearest(ctx context.Context, origin geo.Point, k int) ([]Nearby, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalid)
	}
	return s.locator.Nearest(ctx, origin, k)
}

// ListAll returns every hospital in storage order; index sync feeds it to
// the search index.
func (s *Service) ListAll(ctx context.Context) ([]*Hospital, error) {
	return s.hospitals.ListLocated(ctx)
}

// -- Resources --

func (s *Service) Doctors(ctx context.Context, hospitalID uuid.UUID) ([]*Doctor, error) {
	return s.resources.ListDoctors(ctx, hospitalID)
}

func (s *Service) Equipment(ctx context.Context, hospitalID uuid.UUID) ([]*Equipment, error) {
	return s.resources.ListEquipment(ctx, hospitalID)
}

func (s *Service) Medications(ctx context.Context, hospitalID uuid.UUID) ([]*Medication, error) {
	return s.resources.ListMedications(ctx, hospitalID)
}

func (s *Service) Resources(ctx context.Context, hospitalID uuid.UUID) (*Resources, error) {
	doctors, err := s.resources.ListDoctors(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	equipment, err := s.resources.ListEquipment(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	medications, err := s.resources.ListMedications(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return &Resources{Doctors: doctors, Equipment: equipment, Medications: medications}, nil
}

func (s *Service) AddDoctor(ctx context.Context, d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: nom is required", ErrInvalid)
	}
	return s.resources.AddDoctor(ctx, d)
}

func (s *Service) AddEquipment(ctx context.Context, eq *Equipment) error {
	eq.Name = strings.TrimSpace(eq.Name)
	if eq.Name == "" {
		return fmt.Errorf("%w: nom is required", ErrInvalid)
	}
	if eq.TotalQuantity < 0 || eq.AvailableQuantity < 0 {
		return fmt.Errorf("%w: quantities must not be negative", ErrInvalid)
	}
	return s.resources.AddEquipment(ctx, eq)
}

func (s *Service) AddMedication(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("%w: nom is required", ErrInvalid)
	}
	if m.AvailableQuantity < 0 {
		return fmt.Errorf("%w: quantite_disponible must not be negative", ErrInvalid)
	}
	return s.resources.AddMedication(ctx, m)
}

func (s *Service) DeleteDoctor(ctx context.Context, hospitalID, id uuid.UUID) error {
	return s.resources.DeleteDoctor(ctx, hospitalID, id)
}

func (s *Service) DeleteEquipment(ctx context.Context, hospitalID, id uuid.UUID) error {
	return s.resources.DeleteEquipment(ctx, hospitalID, id)
}

func (s *Service) DeleteMedication(ctx context.Context, hospitalID, id uuid.UUID) error {
	return s.resources.DeleteMedication(ctx, hospitalID, id)
}
