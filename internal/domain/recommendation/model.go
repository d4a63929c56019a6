// Package recommendation ranks the hospitals nearest to a patient pickup
// point and explains each pick in French for the ambulance crew.
package recommendation

import (
	"math"

	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/geo"
	"github.com/aliiexe/AmbuGo/internal/traffic"
)

// childAgeLimit is the first age, in years, no longer treated as a child.
const childAgeLimit = 15

// Request describes the patient being transported.
type Request struct {
	IsUrgent            bool     `json:"isUrgent"`
	Condition           string   `json:"condition,omitempty"`
	RequiredEquipment   []string `json:"requiredEquipment,omitempty"`
	Age                 *float64 `json:"age,omitempty"`
	RequiredMedications []string `json:"requiredMedications,omitempty"`
	RequiredSpecialist  string   `json:"requiredSpecialist,omitempty"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
}

// Origin returns the pickup point. It fails with InvalidInput when either
// coordinate is missing, not finite or out of range.
func (r *Request) Origin() (geo.Point, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return geo.Point{}, newError(KindInvalidInput, "valid patient latitude and longitude are required", nil)
	}
	p := geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if err := p.Validate(); err != nil {
		return geo.Point{}, newError(KindInvalidInput, err.Error(), err)
	}
	return p, nil
}

func (r *Request) validate() error {
	if r.Age != nil && (math.IsNaN(*r.Age) || math.IsInf(*r.Age, 0) || *r.Age < 0) {
		return newError(KindInvalidInput, "age must be a non-negative number", nil)
	}
	_, err := r.Origin()
	return err
}

// IsChild reports whether the patient's estimated age is under 15.
func (r *Request) IsChild() bool {
	return r.Age != nil && *r.Age < childAgeLimit
}

type DoctorSummary struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Candidate is a nearby hospital with everything the scorer looks at.
type Candidate struct {
	Hospital    *hospital.Hospital
	Distance    float64
	Doctors     []DoctorSummary
	Equipment   []string
	Medications []string
	Traffic     traffic.Condition
}

func (c *Candidate) ID() string {
	return c.Hospital.ID.String()
}

// Pediatric reports whether the hospital is flagged pediatric or staffs a
// pediatric specialist.
func (c *Candidate) Pediatric() bool {
	if c.Hospital.Pediatric {
		return true
	}
	for _, d := range c.Doctors {
		if isPediatricSpecialty(d.Specialty) {
			return true
		}
	}
	return false
}

// Recommendation is a scored hospital. Details is filled by the assembler.
type Recommendation struct {
	HospitalID   string   `json:"hospital_id"`
	HospitalName string   `json:"hospital_name"`
	Comment      string   `json:"comment"`
	Score        float64  `json:"recommendation_score"`
	Details      *Details `json:"hospital_details,omitempty"`
}

// Details echoes the stored profile of a recommended hospital.
type Details struct {
	Distance         *float64          `json:"distance"`
	Address          string            `json:"adresse"`
	TotalBeds        int               `json:"capacite_totale"`
	AvailableBeds    int               `json:"lits_disponibles"`
	Contact          string            `json:"numero_contact"`
	Latitude         float64           `json:"latitude"`
	Longitude        float64           `json:"longitude"`
	Doctors          []DoctorSummary   `json:"doctors"`
	Equipment        []string          `json:"equipment"`
	Medications      []string          `json:"medications"`
	TrafficCondition traffic.Condition `json:"trafficCondition"`
}
