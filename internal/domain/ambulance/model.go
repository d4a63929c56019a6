package ambulance

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalid           = errors.New("invalid ambulance data")
	ErrNotFound          = errors.New("ambulance not found")
	ErrAlreadyRegistered = errors.New("an ambulance is already registered for this user")
	ErrNoUser            = errors.New("user id is required")
)

// Crew states.
const (
	StateAvailable   = "Disponible"
	StateOnMission   = "En mission"
	StateUnavailable = "Indisponible"
)

var validStates = map[string]bool{
	StateAvailable:   true,
	StateOnMission:   true,
	StateUnavailable: true,
}

// Ambulance maps to the ambulances table.
type Ambulance struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	PlateNumber *string   `json:"numero_plaque,omitempty"`
	DriverName  *string   `json:"nom_conducteur,omitempty"`
	State       string    `json:"etat"`
	Capacity    int       `json:"capacite"`
	CreatedAt   time.Time `json:"created_at"`
}
