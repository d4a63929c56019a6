// Package registration binds a newly signed-up user to an ambulance crew or a
// hospital record.
package registration

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/domain/ambulance"
	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/platform/auth"
)

type HospitalRegistrar interface {
	Register(ctx context.Context, h *hospital.Hospital) error
}

type AmbulanceRegistrar interface {
	Register(ctx context.Context, a *ambulance.Ambulance) error
}

// Request is the sign-up form. Numeric fields arrive as strings from HTML
// forms, so both spellings are accepted.
type Request struct {
	Role string `json:"role"`

	// ambulance
	PlateNumber string     `json:"numero_plaque"`
	DriverName  string     `json:"nom_conducteur"`
	Capacity    flexNumber `json:"capacite"`

	// hopital
	Name              string     `json:"nom"`
	Address           string     `json:"adresse"`
	Latitude          flexNumber `json:"latitude"`
	Longitude         flexNumber `json:"longitude"`
	TotalBeds         flexNumber `json:"capacite_totale"`
	AvailableBeds     flexNumber `json:"lits_disponibles"`
	Contact           string     `json:"numero_contact"`
	HasEmergencyBlock bool       `json:"bloc_urgence_disponible"`
	Pediatric         bool       `json:"pediatrique"`
}

type flexNumber struct {
	set   bool
	value float64
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = flexNumber{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("expected a number, got " + string(b))
	}
	*n = flexNumber{set: true, value: f}
	return nil
}

type Handler struct {
	hospitals  HospitalRegistrar
	ambulances AmbulanceRegistrar
	logger     zerolog.Logger
}

func NewHandler(hospitals HospitalRegistrar, ambulances AmbulanceRegistrar, logger zerolog.Logger) *Handler {
	return &Handler{hospitals: hospitals, ambulances: ambulances, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/register", h.Register)
}

func (h *Handler) Register(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	switch req.Role {
	case auth.RoleAmbulance:
		a := &ambulance.Ambulance{
			UserID:      userID,
			PlateNumber: optional(req.PlateNumber),
			DriverName:  optional(req.DriverName),
			Capacity:    int(req.Capacity.value),
		}
		if err := h.ambulances.Register(ctx, a); err != nil {
			return h.registrationError(userID, req.Role, err, ambulance.ErrAlreadyRegistered)
		}
		return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "role": req.Role, "id": a.ID.String()})

	case auth.RoleHospital:
		if !req.Latitude.set || !req.Longitude.set {
			return echo.NewHTTPError(http.StatusBadRequest, "latitude and longitude are required")
		}
		hosp := &hospital.Hospital{
			UserID:            userID,
			Name:              req.Name,
			Address:           optional(req.Address),
			Latitude:          req.Latitude.value,
			Longitude:         req.Longitude.value,
			TotalBeds:         int(req.TotalBeds.value),
			AvailableBeds:     int(req.AvailableBeds.value),
			Contact:           optional(req.Contact),
			HasEmergencyBlock: req.HasEmergencyBlock,
			Pediatric:         req.Pediatric,
		}
		if err := h.hospitals.Register(ctx, hosp); err != nil {
			return h.registrationError(userID, req.Role, err, hospital.ErrAlreadyRegistered)
		}
		return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "role": req.Role, "id": hosp.ID.String()})

	default:
		return echo.NewHTTPError(http.StatusBadRequest, "role must be \"ambulance\" or \"hopital\"")
	}
}

func (h *Handler) registrationError(userID, role string, err, duplicate error) error {
	if errors.Is(err, duplicate) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if errors.Is(err, hospital.ErrInvalid) || errors.Is(err, ambulance.ErrInvalid) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error().Err(err).Str("user_id", userID).Str("role", role).Msg("registration failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "error saving user data")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
