package ambulance

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aliiexe/AmbuGo/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/ambulance", auth.RequireRole(auth.RoleAmbulance))
	g.GET("/me", h.GetMyAmbulance)
	g.PUT("/me/state", h.UpdateState)
}

func (h *Handler) GetMyAmbulance(c echo.Context) error {
	a, err := h.svc.GetByUserID(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return lookupError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ambulanceId": a.ID.String(), "etat": a.State})
}

func (h *Handler) UpdateState(c echo.Context) error {
	var body struct {
		State string `json:"etat"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.SetState(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), body.State)
	if err != nil {
		if errors.Is(err, ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return lookupError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no ambulance found for this user")
	}
	if errors.Is(err, ErrNoUser) {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve ambulance")
}
