package hospital

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

var (
	ErrInvalid           = errors.New("invalid hospital data")
	ErrNotFound          = errors.New("hospital not found")
	ErrAlreadyRegistered = errors.New("a hospital is already registered for this user")
	ErrResourceNotFound  = errors.New("resource not found")
)

// Hospital maps to the hopitaux table.
type Hospital struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"nom"`
	Address           *string   `json:"adresse,omitempty"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	TotalBeds         int       `json:"capacite_totale"`
	AvailableBeds     int       `json:"lits_disponibles"`
	Contact           *string   `json:"numero_contact,omitempty"`
	HasEmergencyBlock bool      `json:"bloc_urgence_disponible"`
	Pediatric         bool      `json:"pediatrique"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (h *Hospital) Location() geo.Point {
	return geo.Point{Latitude: h.Latitude, Longitude: h.Longitude}
}

// Nearby is a hospital annotated with its distance in km from a query point.
type Nearby struct {
	*Hospital
	Distance float64 `json:"distance"`
}

// Doctor maps to the medecins table.
type Doctor struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hopital_id"`
	Name       string    `json:"nom"`
	Specialty  string    `json:"specialite"`
	Contact    string    `json:"numero_contact,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Equipment maps to the equipements_medicaux table.
type Equipment struct {
	ID                uuid.UUID `json:"id"`
	HospitalID        uuid.UUID `json:"hopital_id"`
	Name              string    `json:"nom"`
	Description       *string   `json:"description,omitempty"`
	TotalQuantity     int       `json:"quantite_totale"`
	AvailableQuantity int       `json:"quantite_disponible"`
	CreatedAt         time.Time `json:"created_at"`
}

// Medication maps to the medicaments table.
type Medication struct {
	ID                uuid.UUID  `json:"id"`
	HospitalID        uuid.UUID  `json:"hopital_id"`
	Name              string     `json:"nom"`
	Description       *string    `json:"description,omitempty"`
	AvailableQuantity int        `json:"quantite_disponible"`
	ExpiresOn         *time.Time `json:"date_expiration,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Resources is everything a hospital declares it can offer an incoming patient.
type Resources struct {
	Doctors     []*Doctor     `json:"doctors"`
	Equipment   []*Equipment  `json:"equipment"`
	Medications []*Medication `json:"medications"`
}

// ProfileUpdate carries the mutable operational fields of a hospital.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	AvailableBeds     *int    `json:"lits_disponibles,omitempty"`
	TotalBeds         *int    `json:"capacite_totale,omitempty"`
	HasEmergencyBlock *bool   `json:"bloc_urgence_disponible,omitempty"`
	Pediatric         *bool   `json:"pediatrique,omitempty"`
	Contact           *string `json:"numero_contact,omitempty"`
}
