package recommendation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/traffic"
)

func floatPtr(f float64) *float64 { return &f }

func candidate(name string, distance float64, block bool) Candidate {
	return Candidate{
		Hospital: &hospital.Hospital{
			ID:                uuid.New(),
			Name:              name,
			HasEmergencyBlock: block,
		},
		Distance:    distance,
		Doctors:     []DoctorSummary{},
		Equipment:   []string{},
		Medications: []string{},
		Traffic:     traffic.Moderate,
	}
}

func scoreOf(t *testing.T, recs []Recommendation, id string) float64 {
	t.Helper()
	for _, r := range recs {
		if r.HospitalID == id {
			return r.Score
		}
	}
	t.Fatalf("hospital %s not recommended", id)
	return 0
}

func TestScore_NoCriteriaLeavesBaseScore(t *testing.T) {
	req := &Request{}
	cands := []Candidate{candidate("A", 1, true), candidate("B", 2, false)}

	recs, err := Score(req, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range recs {
		if r.Score != baseScore {
			t.Errorf("%s: expected base score %d, got %g", r.HospitalName, baseScore, r.Score)
		}
	}
	for _, c := range Evaluate(req, &cands[1]) {
		if c.Factor != FactorTraffic {
			t.Errorf("unexpected %s contribution for a request without criteria", c.Factor)
		}
	}
}

func TestScore_EmergencyBlockIsWorthEightyPoints(t *testing.T) {
	req := &Request{IsUrgent: true}
	with := candidate("With block", 2, true)
	without := candidate("Without block", 2, false)

	recs, err := Score(req, []Candidate{without, with})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := scoreOf(t, recs, with.ID()) - scoreOf(t, recs, without.ID())
	if diff != 80 {
		t.Errorf("expected an 80 point gap, got %g", diff)
	}
	if recs[0].HospitalID != with.ID() {
		t.Errorf("expected the emergency-capable hospital first")
	}
}

func TestScore_Equipment(t *testing.T) {
	req := &Request{RequiredEquipment: []string{"Salle d'opération", "Scanner"}}

	both := candidate("Both", 1, false)
	both.Equipment = []string{"salle d'operation", "SCANNER"}
	one := candidate("One", 1, false)
	one.Equipment = []string{"Scanner IRM"}
	none := candidate("None", 1, false)

	recs, err := Score(req, []Candidate{both, one, none})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scoreOf(t, recs, both.ID()); got != 90 {
		t.Errorf("all items carried: expected 90, got %g", got)
	}
	// Missing items cost -40 once.
	if got := scoreOf(t, recs, one.ID()); got != 35 {
		t.Errorf("one of two carried: expected 35, got %g", got)
	}
	if got := scoreOf(t, recs, none.ID()); got != 20 {
		t.Errorf("nothing carried: expected 20, got %g", got)
	}
}

func TestScore_EquipmentWithTypographicApostrophe(t *testing.T) {
	req := &Request{RequiredEquipment: []string{"Salle d\u2019opération"}}
	c := candidate("Bloc", 1, false)
	c.Equipment = []string{"Salle d'opération"}

	recs, err := Score(req, []Candidate{c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].Score != 75 {
		t.Errorf("expected the curly apostrophe to match (75), got %g: %s", recs[0].Score, recs[0].Comment)
	}
}

func TestScore_RepeatedItemsCountOnce(t *testing.T) {
	req := &Request{
		RequiredEquipment:   []string{"Salle d'opération", "salle d'operation", "SALLE D\u2019OPÉRATION"},
		RequiredMedications: []string{"Morphine", "morphine", "Insuline", "insuline"},
	}
	c := candidate("Bloc", 1, false)
	c.Equipment = []string{"Salle d'opération"}
	c.Medications = []string{"Morphine"}

	recs, err := Score(req, []Candidate{c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 60 + 15 for the one operating room, +10 morphine, -20 once for insulin
	if recs[0].Score != 65 {
		t.Errorf("expected 65, got %g: %s", recs[0].Score, recs[0].Comment)
	}
	if !strings.Contains(recs[0].Comment, "équipements disponibles: Salle d'opération (+15)") {
		t.Errorf("comment should list the operating room once, got %q", recs[0].Comment)
	}
}

func TestScore_Medications(t *testing.T) {
	req := &Request{RequiredMedications: []string{"Adrénaline", "Morphine", "Insuline"}}
	c := candidate("Pharma", 1, false)
	c.Medications = []string{"adrenaline", "Morphine"}

	recs, err := Score(req, []Candidate{c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].Score != 60+20-20 {
		t.Errorf("expected 60, got %g", recs[0].Score)
	}
	if !strings.Contains(recs[0].Comment, "médicaments manquants: Insuline (-20)") {
		t.Errorf("comment should name the missing medication, got %q", recs[0].Comment)
	}
}

func TestScore_Specialist(t *testing.T) {
	req := &Request{RequiredSpecialist: "Cardiologue"}
	has := candidate("Cardio", 1, false)
	has.Doctors = []DoctorSummary{{Name: "Dr Alami", Specialty: "cardiologue"}}
	lacks := candidate("Ortho", 1, false)
	lacks.Doctors = []DoctorSummary{{Name: "Dr Bennani", Specialty: "Orthopédiste"}}

	recs, err := Score(req, []Candidate{lacks, has})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scoreOf(t, recs, has.ID()); got != 80 {
		t.Errorf("expected 80, got %g", got)
	}
	if got := scoreOf(t, recs, lacks.ID()); got != 30 {
		t.Errorf("expected 30, got %g", got)
	}
}

func TestScore_Traffic(t *testing.T) {
	tests := []struct {
		cond traffic.Condition
		want float64
	}{
		{traffic.Clear, 70},
		{traffic.Minor, 60},
		{traffic.Moderate, 60},
		{traffic.Heavy, 45},
		{"", 60},
	}
	for _, tt := range tests {
		c := candidate("H", 1, false)
		c.Traffic = tt.cond
		recs, err := Score(&Request{}, []Candidate{c})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if recs[0].Score != tt.want {
			t.Errorf("traffic %q: expected %g, got %g", tt.cond, tt.want, recs[0].Score)
		}
	}
}

func TestScore_PediatricBonus(t *testing.T) {
	flagged := candidate("Flagged", 1, false)
	flagged.Hospital.Pediatric = true
	staffed := candidate("Staffed", 1, false)
	staffed.Doctors = []DoctorSummary{{Name: "Dr Idrissi", Specialty: "Pédiatrie"}}
	general := candidate("General", 1, false)

	child := &Request{Age: floatPtr(8)}
	recs, err := Score(child, []Candidate{flagged, staffed, general})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scoreOf(t, recs, flagged.ID()); got != 75 {
		t.Errorf("pediatric flag: expected 75, got %g", got)
	}
	if got := scoreOf(t, recs, staffed.ID()); got != 75 {
		t.Errorf("pediatric doctor: expected 75, got %g", got)
	}
	if got := scoreOf(t, recs, general.ID()); got != 60 {
		t.Errorf("general hospital: expected 60, got %g", got)
	}

	adult := &Request{Age: floatPtr(15)}
	recs, err = Score(adult, []Candidate{flagged})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].Score != 60 {
		t.Errorf("15 year old is not a child: expected 60, got %g", recs[0].Score)
	}
}

func TestScore_OrderingAndLimit(t *testing.T) {
	far := candidate("Far", 5, false)
	near := candidate("Near", 1, false)
	tieA := candidate("TieA", 3, false)
	tieB := candidate("TieB", 3, false)
	best := candidate("Best", 9, false)
	best.Traffic = traffic.Clear

	recs, err := Score(&Request{}, []Candidate{far, near, tieA, tieB, best})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != maxRecommendations {
		t.Fatalf("expected %d recommendations, got %d", maxRecommendations, len(recs))
	}
	want := []string{"Best", "Near", "TieA"}
	for i, name := range want {
		if recs[i].HospitalName != name {
			t.Errorf("position %d: expected %s, got %s", i, name, recs[i].HospitalName)
		}
	}
}

func TestScore_EqualDistanceKeepsInputOrder(t *testing.T) {
	a := candidate("A", 2, false)
	b := candidate("B", 2, false)
	recs, err := Score(&Request{}, []Candidate{b, a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].HospitalName != "B" || recs[1].HospitalName != "A" {
		t.Errorf("expected input order B, A; got %s, %s", recs[0].HospitalName, recs[1].HospitalName)
	}
}

func TestScore_NoCandidates(t *testing.T) {
	_, err := Score(&Request{}, nil)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// Four hospitals at 1.2, 2.5, 3.1 and 4.8 km; only #2 has the operating room
// and only #1 has an emergency block.
func TestScore_UrgentOperatingRoomScenario(t *testing.T) {
	req := &Request{IsUrgent: true, RequiredEquipment: []string{"Salle d'opération"}}

	h1 := candidate("Hopital 1", 1.2, true)
	h2 := candidate("Hopital 2", 2.5, false)
	h2.Equipment = []string{"Salle d'opération", "Défibrillateur"}
	h3 := candidate("Hopital 3", 3.1, false)
	h4 := candidate("Hopital 4", 4.8, false)

	recs, err := Score(req, []Candidate{h1, h2, h3, h4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("recommendations not sorted by score: %v", recs)
		}
	}

	// 60 + 30 (block) - 40 (missing equipment)
	if got := scoreOf(t, recs, h1.ID()); got != 50 {
		t.Errorf("hospital 1: expected 50, got %g", got)
	}
	// 60 - 50 (no block) + 15 (equipment)
	if got := scoreOf(t, recs, h2.ID()); got != 25 {
		t.Errorf("hospital 2: expected 25, got %g", got)
	}
	if recs[0].HospitalID != h1.ID() || recs[1].HospitalID != h2.ID() || recs[2].HospitalID != h3.ID() {
		t.Errorf("unexpected ranking: %s, %s, %s", recs[0].HospitalName, recs[1].HospitalName, recs[2].HospitalName)
	}
	if !strings.Contains(recs[0].Comment, "bloc d'urgence disponible pour ce cas urgent (+30)") {
		t.Errorf("hospital 1 comment should mention the emergency block, got %q", recs[0].Comment)
	}
	if !strings.Contains(recs[1].Comment, "équipements disponibles: Salle d'opération (+15)") {
		t.Errorf("hospital 2 comment should mention the equipment, got %q", recs[1].Comment)
	}
}

func TestFold(t *testing.T) {
	tests := []struct{ a, b string }{
		{"Salle d'Opération", "salle d'operation"},
		{"  Pédiatrie ", "PEDIATRIE"},
		{"Électrocardiogramme", "electrocardiogramme"},
		{"Salle d\u2019opération", "salle d'operation"},
		{"salle d\u2018op\u00e9ration", "Salle d'Opération"},
	}
	for _, tt := range tests {
		if fold(tt.a) != fold(tt.b) {
			t.Errorf("fold(%q)=%q, fold(%q)=%q", tt.a, fold(tt.a), tt.b, fold(tt.b))
		}
	}
	if offers([]string{"Scanneriste"}, "Scanner") {
		t.Error("partial word must not match")
	}
}
