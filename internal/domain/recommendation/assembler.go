package recommendation

import (
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/traffic"
)

// Placeholders for a recommendation whose hospital is not among the
// candidates.
const (
	fallbackTotalBeds     = 100
	fallbackAvailableBeds = 30
	fallbackAddress       = "Address unavailable"
	fallbackContact       = "Contact unavailable"
)

// Assemble attaches the stored profile of each recommended hospital. A
// recommendation naming an unknown hospital gets placeholder details and the
// discrepancy is logged.
func Assemble(recs []Recommendation, candidates []Candidate, logger zerolog.Logger) []Recommendation {
	byID := make(map[string]*Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID()] = &candidates[i]
	}

	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		c, ok := byID[r.HospitalID]
		if !ok {
			logger.Error().
				Str("kind", "referential_violation").
				Str("hospital_id", r.HospitalID).
				Msg("recommended hospital is not among the candidates, using placeholder details")
			r.Details = placeholderDetails()
		} else {
			r.Details = details(c)
		}
		out[i] = r
	}
	return out
}

func details(c *Candidate) *Details {
	h := c.Hospital
	d := &Details{
		Distance:         &c.Distance,
		Address:          fallbackAddress,
		TotalBeds:        h.TotalBeds,
		AvailableBeds:    h.AvailableBeds,
		Contact:          fallbackContact,
		Latitude:         h.Latitude,
		Longitude:        h.Longitude,
		Doctors:          c.Doctors,
		Equipment:        c.Equipment,
		Medications:      c.Medications,
		TrafficCondition: c.Traffic,
	}
	if h.Address != nil && *h.Address != "" {
		d.Address = *h.Address
	}
	if h.Contact != nil && *h.Contact != "" {
		d.Contact = *h.Contact
	}
	if d.Doctors == nil {
		d.Doctors = []DoctorSummary{}
	}
	if d.Equipment == nil {
		d.Equipment = []string{}
	}
	if d.Medications == nil {
		d.Medications = []string{}
	}
	if !d.TrafficCondition.Valid() {
		d.TrafficCondition = traffic.Moderate
	}
	return d
}

func placeholderDetails() *Details {
	return &Details{
		Address:          fallbackAddress,
		TotalBeds:        fallbackTotalBeds,
		AvailableBeds:    fallbackAvailableBeds,
		Contact:          fallbackContact,
		Doctors:          []DoctorSummary{},
		Equipment:        []string{},
		Medications:      []string{},
		TrafficCondition: traffic.Moderate,
	}
}
