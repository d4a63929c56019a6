package recommendation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/traffic"
)

func strPtr(s string) *string { return &s }

func TestAssemble_EmbedsCandidateDetails(t *testing.T) {
	a := candidate("A", 1.234, true)
	a.Hospital.Address = strPtr("Bd Zerktouni, Casablanca")
	a.Hospital.Contact = strPtr("+212522000000")
	a.Hospital.TotalBeds = 250
	a.Hospital.AvailableBeds = 12
	a.Hospital.Latitude, a.Hospital.Longitude = 33.59, -7.62
	a.Equipment = []string{"Scanner"}
	a.Traffic = traffic.Heavy
	b := candidate("B", 4.8, false)

	recs, err := Score(&Request{}, []Candidate{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := Assemble(recs, []Candidate{a, b}, zerolog.Nop())

	for _, r := range out {
		if r.Details == nil || r.Details.Distance == nil {
			t.Fatalf("missing details for %s", r.HospitalName)
		}
		want := a.Distance
		if r.HospitalID == b.ID() {
			want = b.Distance
		}
		if *r.Details.Distance != want {
			t.Errorf("%s: distance %g, want %g", r.HospitalName, *r.Details.Distance, want)
		}
	}
	var da *Details
	for _, r := range out {
		if r.HospitalID == a.ID() {
			da = r.Details
		}
	}
	if da.Address != "Bd Zerktouni, Casablanca" || da.Contact != "+212522000000" || da.TotalBeds != 250 || da.AvailableBeds != 12 {
		t.Errorf("unexpected details: %+v", da)
	}
	if da.TrafficCondition != traffic.Heavy || len(da.Equipment) != 1 {
		t.Errorf("unexpected details: %+v", da)
	}
}

func TestAssemble_UnknownHospitalUsesPlaceholders(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	recs := []Recommendation{{HospitalID: "ghost", HospitalName: "Ghost", Score: 70}}
	out := Assemble(recs, []Candidate{candidate("A", 1, true)}, logger)

	d := out[0].Details
	if d == nil {
		t.Fatal("expected placeholder details")
	}
	if d.Distance != nil {
		t.Errorf("expected null distance, got %v", *d.Distance)
	}
	if d.TotalBeds != 100 || d.AvailableBeds != 30 {
		t.Errorf("expected 100/30 beds, got %d/%d", d.TotalBeds, d.AvailableBeds)
	}
	if d.Address != "Address unavailable" || d.Contact != "Contact unavailable" {
		t.Errorf("unexpected placeholders: %+v", d)
	}
	if d.Latitude != 0 || d.Longitude != 0 || d.TrafficCondition != traffic.Moderate {
		t.Errorf("unexpected placeholders: %+v", d)
	}
	if d.Doctors == nil || d.Equipment == nil || d.Medications == nil {
		t.Error("expected empty, non-nil lists")
	}
	if !strings.Contains(logs.String(), `"level":"error"`) || !strings.Contains(logs.String(), "referential_violation") {
		t.Errorf("expected an error log, got %s", logs.String())
	}
}

func TestAssemble_MissingAddressAndContact(t *testing.T) {
	a := candidate("A", 1, true)
	recs := []Recommendation{{HospitalID: a.ID(), HospitalName: "A", Score: 60}}
	d := Assemble(recs, []Candidate{a}, zerolog.Nop())[0].Details
	if d.Address != fallbackAddress || d.Contact != fallbackContact {
		t.Errorf("expected fallbacks for missing address and contact, got %+v", d)
	}
}
