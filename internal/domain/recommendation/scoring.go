package recommendation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aliiexe/AmbuGo/internal/traffic"
)

const (
	baseScore          = 60
	maxRecommendations = 3

	urgentWithBlock    = 30
	urgentWithoutBlock = -50
	perEquipment       = 15
	missingEquipment   = -40
	specialistPresent  = 20
	specialistAbsent   = -30
	perMedication      = 10
	missingMedication  = -20
	clearTraffic       = 10
	heavyTraffic       = -15
	pediatricMatch     = 15
)

// Authority turns aggregated candidates into at most three ranked
// recommendations.
type Authority interface {
	Rank(ctx context.Context, req *Request, candidates []Candidate) ([]Recommendation, error)
}

// Rules is the deterministic scoring authority.
type Rules struct{}

func (Rules) Rank(_ context.Context, req *Request, candidates []Candidate) ([]Recommendation, error) {
	return Score(req, candidates)
}

// FactorKind tags a scoring rule.
type FactorKind string

const (
	FactorUrgency    FactorKind = "urgency"
	FactorEquipment  FactorKind = "equipment"
	FactorSpecialist FactorKind = "specialist"
	FactorMedication FactorKind = "medication"
	FactorTraffic    FactorKind = "traffic"
	FactorAge        FactorKind = "age"
)

// Contribution is what one factor did to one candidate's score.
type Contribution struct {
	Factor   FactorKind
	Points   int
	Fragment string
}

// factor returns ok=false when the rule does not apply to the request.
type factor struct {
	kind     FactorKind
	evaluate func(req *Request, c *Candidate) (points int, fragment string, ok bool)
}

var factors = []factor{
	{FactorUrgency, scoreUrgency},
	{FactorEquipment, scoreEquipment},
	{FactorSpecialist, scoreSpecialist},
	{FactorMedication, scoreMedication},
	{FactorTraffic, scoreTraffic},
	{FactorAge, scoreAge},
}

// Evaluate runs every factor against c.
func Evaluate(req *Request, c *Candidate) []Contribution {
	var out []Contribution
	for _, f := range factors {
		points, fragment, ok := f.evaluate(req, c)
		if !ok {
			continue
		}
		out = append(out, Contribution{Factor: f.kind, Points: points, Fragment: fragment})
	}
	return out
}

func scoreUrgency(req *Request, c *Candidate) (int, string, bool) {
	if !req.IsUrgent {
		return 0, "", false
	}
	if c.Hospital.HasEmergencyBlock {
		return urgentWithBlock, withPoints("bloc d'urgence disponible pour ce cas urgent", urgentWithBlock), true
	}
	return urgentWithoutBlock, withPoints("aucun bloc d'urgence disponible pour un cas urgent", urgentWithoutBlock), true
}

// Missing items cost a flat penalty once, however many are missing.
func scoreEquipment(req *Request, c *Candidate) (int, string, bool) {
	have, missing := split(c.Equipment, req.RequiredEquipment)
	return scoreItems(have, missing, perEquipment, missingEquipment, "équipements disponibles", "équipements manquants")
}

func scoreMedication(req *Request, c *Candidate) (int, string, bool) {
	have, missing := split(c.Medications, req.RequiredMedications)
	return scoreItems(have, missing, perMedication, missingMedication, "médicaments disponibles", "médicaments manquants")
}

func scoreItems(have, missing []string, each, penalty int, haveLabel, missingLabel string) (int, string, bool) {
	if len(have) == 0 && len(missing) == 0 {
		return 0, "", false
	}
	var (
		points int
		parts  []string
	)
	if len(have) > 0 {
		gain := each * len(have)
		points += gain
		parts = append(parts, withPoints(haveLabel+": "+strings.Join(have, ", "), gain))
	}
	if len(missing) > 0 {
		points += penalty
		parts = append(parts, withPoints(missingLabel+": "+strings.Join(missing, ", "), penalty))
	}
	return points, strings.Join(parts, "; "), true
}

func scoreSpecialist(req *Request, c *Candidate) (int, string, bool) {
	want := strings.TrimSpace(req.RequiredSpecialist)
	if want == "" {
		return 0, "", false
	}
	specialties := make([]string, len(c.Doctors))
	for i, d := range c.Doctors {
		specialties[i] = d.Specialty
	}
	if offers(specialties, want) {
		return specialistPresent, withPoints("spécialiste disponible: "+want, specialistPresent), true
	}
	return specialistAbsent, withPoints("aucun spécialiste disponible: "+want, specialistAbsent), true
}

func scoreTraffic(_ *Request, c *Candidate) (int, string, bool) {
	cond := c.Traffic
	if !cond.Valid() {
		cond = traffic.Moderate
	}
	var points int
	switch cond {
	case traffic.Clear:
		points = clearTraffic
	case traffic.Heavy:
		points = heavyTraffic
	}
	return points, withPoints("trafic "+cond.Label(), points), true
}

func scoreAge(req *Request, c *Candidate) (int, string, bool) {
	if !req.IsChild() || !c.Pediatric() {
		return 0, "", false
	}
	return pediatricMatch, withPoints("prise en charge pédiatrique adaptée à l'âge du patient", pediatricMatch), true
}

func withPoints(fragment string, points int) string {
	switch {
	case points > 0:
		return fragment + " (+" + strconv.Itoa(points) + ")"
	case points < 0:
		return fragment + " (" + strconv.Itoa(points) + ")"
	default:
		return fragment
	}
}

// Score applies the rule table to every candidate and keeps the best three,
// ordered by score, then distance, then input order.
func Score(req *Request, candidates []Candidate) ([]Recommendation, error) {
	if len(candidates) == 0 {
		return nil, newError(KindNotFound, "no hospitals found", nil)
	}

	type scored struct {
		idx   int
		score int
		parts []Contribution
	}
	all := make([]scored, len(candidates))
	for i := range candidates {
		parts := Evaluate(req, &candidates[i])
		total := baseScore
		for _, p := range parts {
			total += p.Points
		}
		all[i] = scored{idx: i, score: total, parts: parts}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return candidates[all[i].idx].Distance < candidates[all[j].idx].Distance
	})

	n := min(len(all), maxRecommendations)
	recs := make([]Recommendation, n)
	for i := 0; i < n; i++ {
		c := &candidates[all[i].idx]
		recs[i] = Recommendation{
			HospitalID:   c.ID(),
			HospitalName: c.Hospital.Name,
			Comment:      justify(c, all[i].score, all[i].parts),
			Score:        float64(all[i].score),
		}
	}
	return recs, nil
}

func justify(c *Candidate, score int, parts []Contribution) string {
	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		fragments = append(fragments, p.Fragment)
	}
	return fmt.Sprintf("%s à %.2f km: %s. Score final %d.", c.Hospital.Name, c.Distance, strings.Join(fragments, "; "), score)
}
