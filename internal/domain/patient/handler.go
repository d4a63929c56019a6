package patient

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aliiexe/AmbuGo/internal/domain/ambulance"
	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/platform/auth"
	"github.com/aliiexe/AmbuGo/pkg/pagination"
)

type HospitalLookup interface {
	GetByUserID(ctx context.Context, userID string) (*hospital.Hospital, error)
}

type AmbulanceLookup interface {
	GetByUserID(ctx context.Context, userID string) (*ambulance.Ambulance, error)
}

type Handler struct {
	svc        *Service
	hospitals  HospitalLookup
	ambulances AmbulanceLookup
}

func NewHandler(svc *Service, hospitals HospitalLookup, ambulances AmbulanceLookup) *Handler {
	return &Handler{svc: svc, hospitals: hospitals, ambulances: ambulances}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patient-info", h.SubmitPatient, auth.RequireRole(auth.RoleAmbulance))

	hosp := api.Group("/hospital", auth.RequireRole(auth.RoleHospital))
	hosp.GET("/patients", h.ListPatients)
	hosp.POST("/update-patient-status", h.UpdatePatientStatus)
}

func (h *Handler) SubmitPatient(c echo.Context) error {
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	ambulanceID, err := h.crewAmbulance(ctx, sub.AmbulanceID)
	if err != nil {
		return err
	}

	p, err := h.svc.Submit(ctx, &sub, ambulanceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalid):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownHospital):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to save patient information")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Patient information saved successfully",
		"patientId": p.ID.String(),
	})
}

// crewAmbulance prefers the ambulance registered to the caller. A body-supplied
// id is only honored for callers without one (admins).
func (h *Handler) crewAmbulance(ctx context.Context, claimed string) (*uuid.UUID, error) {
	if h.ambulances != nil {
		a, err := h.ambulances.GetByUserID(ctx, auth.UserIDFromContext(ctx))
		if err == nil {
			return &a.ID, nil
		}
		if !errors.Is(err, ambulance.ErrNotFound) && !errors.Is(err, ambulance.ErrNoUser) {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve ambulance")
		}
	}
	if claimed == "" {
		return nil, nil
	}
	if !auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "ambulanceId does not belong to the caller")
	}
	id, err := uuid.Parse(claimed)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid ambulanceId")
	}
	return &id, nil
}

// scope returns the hospital whose patients the caller may see. Admins pass
// hospitalId explicitly and get a nil restriction on updates.
func (h *Handler) scope(c echo.Context) (uuid.UUID, bool, error) {
	ctx := c.Request().Context()
	if auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
		if raw := c.QueryParam("hospitalId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, true, echo.NewHTTPError(http.StatusBadRequest, "invalid hospitalId")
			}
			return id, true, nil
		}
	}
	hosp, err := h.hospitals.GetByUserID(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		if auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
			return uuid.Nil, true, nil
		}
		if errors.Is(err, hospital.ErrNotFound) {
			return uuid.Nil, false, echo.NewHTTPError(http.StatusNotFound, "no hospital found for this user")
		}
		return uuid.Nil, false, echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve hospital")
	}
	return hosp.ID, false, nil
}

func (h *Handler) ListPatients(c echo.Context) error {
	hospitalID, _, err := h.scope(c)
	if err != nil {
		return err
	}
	if hospitalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospitalId is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForHospital(c.Request().Context(), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch patients")
	}
	if items == nil {
		items = []*Summary{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type statusRequest struct {
	PatientID string `json:"patientId"`
	NewStatus string `json:"newStatus"`
}

func (h *Handler) UpdatePatientStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
	}

	hospitalID, admin, err := h.scope(c)
	if err != nil {
		return err
	}
	var restrict *uuid.UUID
	if !admin {
		restrict = &hospitalID
	}

	change, err := h.svc.UpdateStatus(c.Request().Context(), patientID, req.NewStatus, restrict)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrInvalid):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update patient status")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"patientId": change.PatientID.String(),
		"status":    change.Status,
		"user":      map[string]string{"hospitalId": change.HospitalID.String()},
	})
}
