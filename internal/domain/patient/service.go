package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo   Repository
	events Events
}

// NewService wires the repository. A nil events sink drops notifications.
func NewService(repo Repository, events Events) *Service {
	return &Service{repo: repo, events: events}
}

// Submit validates a crew submission and records the patient as en route to
// the selected hospital. ambulanceID may be nil.
func (s *Service) Submit(ctx context.Context, sub *Submission, ambulanceID *uuid.UUID) (*Patient, error) {
	sub.FullName = strings.TrimSpace(sub.FullName)
	sub.Gender = strings.TrimSpace(sub.Gender)
	sub.Symptoms = strings.TrimSpace(sub.Symptoms)
	if sub.FullName == "" || sub.Age.Value == nil || sub.Gender == "" || sub.Symptoms == "" || sub.SelectedHospital.ID == "" {
		return nil, fmt.Errorf("%w: missing required patient information", ErrInvalid)
	}
	if *sub.Age.Value < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalid)
	}
	hospitalID, err := uuid.Parse(sub.SelectedHospital.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid selectedHospital.id", ErrInvalid)
	}
	if sub.Location != nil {
		if err := sub.Location.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	serviceType := strings.TrimSpace(sub.ServiceType)
	if serviceType == "" {
		serviceType = DefaultServiceType
	}

	p := &Patient{
		Name:        sub.FullName,
		Age:         *sub.Age.Value,
		CIN:         notCollected,
		BloodGroup:  notCollected,
		Contact:     notCollected,
		Address:     notCollected,
		HospitalID:  hospitalID,
		AmbulanceID: ambulanceID,
		Record: MedicalRecord{
			Symptoms:          sub.Symptoms,
			Gender:            sub.Gender,
			IsEmergency:       sub.IsEmergency,
			RequiresImmediate: sub.RequiresImmediate,
			ServiceType:       serviceType,
			Location:          sub.Location,
			Status:            StatusEnRoute,
		},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.Submitted(ctx, p)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Summary, int, error) {
	return s.repo.ListByHospital(ctx, hospitalID, limit, offset)
}

// UpdateStatus applies requested (a status or Toggle). When hospitalID is
// non-nil the patient must be destined for that hospital.
func (s *Service) UpdateStatus(ctx context.Context, patientID uuid.UUID, requested string, hospitalID *uuid.UUID) (*StatusChange, error) {
	current, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if hospitalID != nil && current.HospitalID != *hospitalID {
		return nil, ErrForbidden
	}
	next, err := nextStatus(current.Record.Status, strings.TrimSpace(requested))
	if err != nil {
		return nil, err
	}
	owner, err := s.repo.SetStatus(ctx, patientID, next)
	if err != nil {
		return nil, err
	}
	change := &StatusChange{
		PatientID:  patientID,
		HospitalID: owner,
		Previous:   current.Record.Status,
		Status:     next,
	}
	if s.events != nil {
		s.events.StatusChanged(ctx, *change)
	}
	return change, nil
}
