package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/platform/auth"
)

type Recommender interface {
	Recommend(ctx context.Context, req *Request) ([]Recommendation, error)
}

type Handler struct {
	svc    Recommender
	logger zerolog.Logger
}

func NewHandler(svc Recommender, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/hospital-recommendations", h.Recommend, auth.RequireRole(auth.RoleAmbulance))
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error           errorDetail      `json:"error"`
	Recommendations []Recommendation `json:"recommendations"`
}

type response struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommend accepts the patient object either bare or wrapped as
// {"patientData": {...}}.
func (h *Handler) Recommend(c echo.Context) error {
	req, err := decodeRequest(c.Request().Body)
	if err != nil {
		return h.fail(c, err)
	}
	recs, err := h.svc.Recommend(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, response{Recommendations: recs})
}

func decodeRequest(body io.Reader) (*Request, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, newError(KindInvalidInput, "failed to read request body", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, newError(KindInvalidInput, "patient data is required", nil)
	}

	var envelope struct {
		PatientData json.RawMessage `json:"patientData"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, newError(KindInvalidInput, "invalid input data format", err)
	}
	if p := bytes.TrimSpace(envelope.PatientData); len(p) > 0 {
		if bytes.Equal(p, []byte("null")) {
			return nil, newError(KindInvalidInput, "patient data is required", nil)
		}
		raw = p
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, newError(KindInvalidInput, "invalid input data format", err)
	}
	return &req, nil
}

func (h *Handler) fail(c echo.Context, err error) error {
	kind, msg := KindExternalDependencyFailure, "failed to process hospital recommendations"
	var e *Error
	if errors.As(err, &e) {
		kind, msg = e.Kind, e.Message
	}

	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("code", kind.Code()).Msg("hospital recommendation failed")
	}
	return c.JSON(status, errorResponse{
		Error:           errorDetail{Code: kind.Code(), Message: msg},
		Recommendations: []Recommendation{},
	})
}
