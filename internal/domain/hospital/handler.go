package hospital

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aliiexe/AmbuGo/internal/geo"
	"github.com/aliiexe/AmbuGo/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/nearest-hospitals", h.NearestHospitals, auth.RequireRole(auth.RoleAmbulance, auth.RoleHospital))

	own := api.Group("/hospital", auth.RequireRole(auth.RoleHospital))
	own.GET("/me", h.GetMyHospital)
	own.GET("/profile", h.GetProfile)
	own.PATCH("/profile", h.UpdateProfile)
	own.GET("/resources", h.ListResources)
	own.POST("/doctors", h.AddDoctor)
	own.DELETE("/doctors/:id", h.DeleteDoctor)
	own.POST("/equipment", h.AddEquipment)
	own.DELETE("/equipment/:id", h.DeleteEquipment)
	own.POST("/medications", h.AddMedication)
	own.DELETE("/medications/:id", h.DeleteMedication)
}

func (h *Handler) NearestHospitals(c echo.Context) error {
	lat, errLat := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	lon, errLon := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if errLat != nil || errLon != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "valid latitude and longitude parameters are required")
	}
	limit := DefaultNearestLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	hospitals, err := h.svc.Nearest(c.Request().Context(), geo.Point{Latitude: lat, Longitude: lon}, limit)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidPoint) || errors.Is(err, ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find nearest hospitals")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hospitals": hospitals})
}

// current resolves the hospital owned by the authenticated user.
func (h *Handler) current(c echo.Context) (*Hospital, error) {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	hosp, err := h.svc.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "no hospital found for this user")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve hospital")
	}
	return hosp, nil
}

func (h *Handler) GetMyHospital(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"hospitalId": hosp.ID.String()})
}

func (h *Handler) GetProfile(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var u ProfileUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hosp, err := h.svc.UpdateProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), u)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no hospital found for this user")
		}
		return writeError(err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) ListResources(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Resources(c.Request().Context(), hosp.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) AddDoctor(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.HospitalID = hosp.ID
	if err := h.svc.AddDoctor(c.Request().Context(), &d); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) AddEquipment(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	var eq Equipment
	if err := c.Bind(&eq); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	eq.HospitalID = hosp.ID
	if err := h.svc.AddEquipment(c.Request().Context(), &eq); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusCreated, eq)
}

func (h *Handler) AddMedication(c echo.Context) error {
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.HospitalID = hosp.ID
	if err := h.svc.AddMedication(c.Request().Context(), &m); err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	return h.deleteResource(c, h.svc.DeleteDoctor)
}

func (h *Handler) DeleteEquipment(c echo.Context) error {
	return h.deleteResource(c, h.svc.DeleteEquipment)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	return h.deleteResource(c, h.svc.DeleteMedication)
}

func (h *Handler) deleteResource(c echo.Context, del func(ctx context.Context, hospitalID, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.current(c)
	if err != nil {
		return err
	}
	if err := del(c.Request().Context(), hosp.ID, id); err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "resource not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func writeError(err error) error {
	if errors.Is(err, ErrInvalid) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to save hospital data")
}
