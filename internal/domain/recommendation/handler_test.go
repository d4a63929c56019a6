package recommendation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
)

type stubRecommender struct {
	got  *Request
	recs []Recommendation
	err  error
}

func (s *stubRecommender) Recommend(_ context.Context, req *Request) ([]Recommendation, error) {
	s.got = req
	return s.recs, s.err
}

func postRecommendation(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospital-recommendations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Recommend(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %s", rec.Body.String())
	}
	return rec, out
}

func errorCode(t *testing.T, out map[string]json.RawMessage) string {
	t.Helper()
	var e errorDetail
	if err := json.Unmarshal(out["error"], &e); err != nil {
		t.Fatalf("missing error object: %v", out)
	}
	if string(out["recommendations"]) != "[]" {
		t.Errorf("expected empty recommendations, got %s", out["recommendations"])
	}
	return e.Code
}

func TestHandler_AcceptsEnvelopeAndBareObject(t *testing.T) {
	for _, body := range []string{
		`{"patientData":{"isUrgent":true,"latitude":33.5,"longitude":-7.6,"requiredEquipment":["Scanner"]}}`,
		`{"isUrgent":true,"latitude":33.5,"longitude":-7.6,"requiredEquipment":["Scanner"]}`,
	} {
		stub := &stubRecommender{recs: []Recommendation{{HospitalID: "h1", HospitalName: "A", Score: 90}}}
		rec, out := postRecommendation(t, NewHandler(stub, zerolog.Nop()), body)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.got == nil || !stub.got.IsUrgent || *stub.got.Latitude != 33.5 || len(stub.got.RequiredEquipment) != 1 {
			t.Errorf("request not decoded: %+v", stub.got)
		}
		var recs []Recommendation
		if err := json.Unmarshal(out["recommendations"], &recs); err != nil || len(recs) != 1 {
			t.Errorf("unexpected recommendations: %s", out["recommendations"])
		}
	}
}

func TestHandler_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed", `{"patientData":`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty", ``, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"null envelope", `{"patientData":null}`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"not found", `{"latitude":1,"longitude":2}`, newError(KindNotFound, "no hospitals found in database", nil), http.StatusNotFound, "NOT_FOUND"},
		{"invalid output", `{"latitude":1,"longitude":2}`, newError(KindInvalidOutput, "bad", nil), http.StatusInternalServerError, "INVALID_OUTPUT"},
		{"untyped", `{"latitude":1,"longitude":2}`, hospital.ErrNotFound, http.StatusInternalServerError, "EXTERNAL_DEPENDENCY_FAILURE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRecommender{err: tt.err}
			rec, out := postRecommendation(t, NewHandler(stub, zerolog.Nop()), tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if code := errorCode(t, out); code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, code)
			}
		})
	}
}

func TestHandler_EndToEndWithRules(t *testing.T) {
	a := nearby("A", 33.58, -7.60, 1.2)
	a.HasEmergencyBlock = true
	svc := newTestService([]hospital.Nearby{a}, nil, nil, nil)

	rec, out := postRecommendation(t, NewHandler(svc, zerolog.Nop()), `{"patientData":{"isUrgent":true,"latitude":33.57,"longitude":-7.59}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var recs []map[string]json.RawMessage
	if err := json.Unmarshal(out["recommendations"], &recs); err != nil || len(recs) != 1 {
		t.Fatalf("unexpected recommendations: %s", out["recommendations"])
	}
	if string(recs[0]["recommendation_score"]) != "90" {
		t.Errorf("expected score 90, got %s", recs[0]["recommendation_score"])
	}
	var details map[string]json.RawMessage
	if err := json.Unmarshal(recs[0]["hospital_details"], &details); err != nil {
		t.Fatalf("missing hospital_details: %v", err)
	}
	if string(details["distance"]) != "1.2" || string(details["trafficCondition"]) != `"moderate"` {
		t.Errorf("unexpected details: %v", details)
	}
}
