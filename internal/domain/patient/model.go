package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

var (
	ErrInvalid         = errors.New("invalid patient data")
	ErrNotFound        = errors.New("patient not found")
	ErrUnknownHospital = errors.New("selected hospital not found")
	ErrForbidden       = errors.New("patient belongs to another hospital")
)

// Patient lifecycle, as shown on the hospital dashboard.
const (
	StatusEnRoute     = "en-route"
	StatusArrived     = "arrived"
	StatusWaiting     = "waiting"
	StatusInTreatment = "in_treatment"
	StatusDischarged  = "discharged"

	// Toggle flips between in_treatment and waiting.
	Toggle = "toggle"

	DefaultServiceType = "General"
	// placeholder stored for identity fields the crew cannot collect en route
	notCollected = "N/A"
)

var validStatuses = map[string]bool{
	StatusEnRoute:     true,
	StatusArrived:     true,
	StatusWaiting:     true,
	StatusInTreatment: true,
	StatusDischarged:  true,
}

// MedicalRecord is persisted as the dossier_medical JSONB document.
type MedicalRecord struct {
	Symptoms          string     `json:"symptoms"`
	Gender            string     `json:"gender"`
	IsEmergency       bool       `json:"isEmergency"`
	RequiresImmediate bool       `json:"requiresImmediate"`
	ServiceType       string     `json:"serviceType"`
	Location          *geo.Point `json:"location"`
	Status            string     `json:"status"`
}

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"nom"`
	Age         int           `json:"age"`
	CIN         string        `json:"cin"`
	BloodGroup  string        `json:"groupe_sanguin"`
	Contact     string        `json:"numero_contact"`
	Address     string        `json:"adresse"`
	HospitalID  uuid.UUID     `json:"hopital_id"`
	AmbulanceID *uuid.UUID    `json:"ambulance_id,omitempty"`
	Record      MedicalRecord `json:"dossier_medical"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Summary is one row of a hospital's incoming-patients list.
type Summary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	Gender            string    `json:"gender"`
	Symptoms          string    `json:"symptoms"`
	ServiceType       string    `json:"serviceType"`
	IsEmergency       bool      `json:"isEmergency"`
	RequiresImmediate bool      `json:"requiresImmediate"`
	Status            string    `json:"status"`
	SubmittedAt       time.Time `json:"submittedAt"`
}

// SelectedHospital is the crew's chosen destination.
type SelectedHospital struct {
	ID   string `json:"id"`
	Name string `json:"nom"`
}

// Submission is what an ambulance crew sends for a patient en route.
type Submission struct {
	FullName          string           `json:"fullName"`
	Age               Age              `json:"age"`
	Gender            string           `json:"gender"`
	Symptoms          string           `json:"symptoms"`
	SelectedHospital  SelectedHospital `json:"selectedHospital"`
	IsEmergency       bool             `json:"isEmergency"`
	RequiresImmediate bool             `json:"requiresImmediate"`
	ServiceType       string           `json:"serviceType"`
	Location          *geo.Point       `json:"location"`
	AmbulanceID       string           `json:"ambulanceId"`
}

// Age accepts a JSON number or a numeric string. Unset is nil.
type Age struct {
	Value *int
}

func (a *Age) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.Value = nil
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		if s == "" {
			a.Value = nil
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("age must be a number, got %s", b)
	}
	n := int(f)
	a.Value = &n
	return nil
}

func (a Age) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*a.Value)
}

// StatusChange reports the outcome of a status update.
type StatusChange struct {
	PatientID  uuid.UUID `json:"patientId"`
	HospitalID uuid.UUID `json:"hospitalId"`
	Previous   string    `json:"previous"`
	Status     string    `json:"status"`
}

// nextStatus resolves a requested status against the current one. An unset
// current status reads as arrived.
func nextStatus(current, requested string) (string, error) {
	if requested == Toggle {
		if current == "" {
			current = StatusArrived
		}
		if current == StatusInTreatment {
			return StatusWaiting, nil
		}
		return StatusInTreatment, nil
	}
	if !validStatuses[requested] {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, requested)
	}
	return requested, nil
}
