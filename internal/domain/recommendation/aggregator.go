package recommendation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/geo"
	"github.com/aliiexe/AmbuGo/internal/platform/db"
	"github.com/aliiexe/AmbuGo/internal/traffic"
)

// DefaultCandidates is how many nearby hospitals are profiled per request.
const DefaultCandidates = 4

const (
	unknownHospital  = "Unknown Hospital"
	unknownDoctor    = "Unknown Doctor"
	defaultSpecialty = "General"
)

type Resources interface {
	ListDoctors(ctx context.Context, hospitalID uuid.UUID) ([]*hospital.Doctor, error)
	ListEquipment(ctx context.Context, hospitalID uuid.UUID) ([]*hospital.Equipment, error)
	ListMedications(ctx context.Context, hospitalID uuid.UUID) ([]*hospital.Medication, error)
}

type TrafficEstimator interface {
	Estimate(ctx context.Context, p geo.Point) traffic.Condition
}

// Aggregator builds the candidate profiles for a pickup point.
type Aggregator struct {
	locator   hospital.Locator
	resources Resources
	traffic   TrafficEstimator
	k         int
	logger    zerolog.Logger
}

// NewAggregator profiles the k nearest hospitals; k <= 0 uses
// DefaultCandidates. A nil estimator reports moderate traffic everywhere.
func NewAggregator(locator hospital.Locator, resources Resources, est TrafficEstimator, k int, logger zerolog.Logger) *Aggregator {
	if k <= 0 {
		k = DefaultCandidates
	}
	if est == nil {
		est = traffic.NewEstimator(nil, 0, logger)
	}
	return &Aggregator{locator: locator, resources: resources, traffic: est, k: k, logger: logger}
}

// Candidates returns the profiled nearest hospitals in distance order. A
// failing lookup for one hospital degrades that hospital only.
func (a *Aggregator) Candidates(ctx context.Context, origin geo.Point) ([]Candidate, error) {
	nearest, err := a.locator.Nearest(ctx, origin, a.k)
	if err != nil {
		return nil, newError(KindExternalDependencyFailure, "failed to query nearest hospitals", err)
	}
	if len(nearest) == 0 {
		return nil, newError(KindNotFound, "no hospitals found in database", nil)
	}

	// Each goroutine draws its own pool connection.
	ctx = db.DetachConn(ctx)

	out := make([]Candidate, len(nearest))
	var g errgroup.Group
	for i, n := range nearest {
		i, n := i, n
		g.Go(func() error {
			out[i] = a.profile(ctx, origin, n)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (a *Aggregator) profile(ctx context.Context, origin geo.Point, n hospital.Nearby) Candidate {
	h := n.Hospital
	c := Candidate{Hospital: h, Distance: n.Distance}
	if strings.TrimSpace(h.Name) == "" {
		named := *h
		named.Name = unknownHospital
		c.Hospital = &named
	}

	var g errgroup.Group
	g.Go(func() error {
		docs, err := a.resources.ListDoctors(ctx, h.ID)
		if err != nil {
			a.degraded(h.ID, "doctors", err)
			return nil
		}
		c.Doctors = make([]DoctorSummary, 0, len(docs))
		for _, d := range docs {
			c.Doctors = append(c.Doctors, DoctorSummary{Name: orDefault(d.Name, unknownDoctor), Specialty: orDefault(d.Specialty, defaultSpecialty)})
		}
		return nil
	})
	g.Go(func() error {
		items, err := a.resources.ListEquipment(ctx, h.ID)
		if err != nil {
			a.degraded(h.ID, "equipment", err)
			return nil
		}
		c.Equipment = make([]string, 0, len(items))
		for _, e := range items {
			c.Equipment = append(c.Equipment, e.Name)
		}
		return nil
	})
	g.Go(func() error {
		meds, err := a.resources.ListMedications(ctx, h.ID)
		if err != nil {
			a.degraded(h.ID, "medications", err)
			return nil
		}
		c.Medications = make([]string, 0, len(meds))
		for _, m := range meds {
			c.Medications = append(c.Medications, m.Name)
		}
		return nil
	})
	g.Go(func() error {
		c.Traffic = a.traffic.Estimate(ctx, geo.Midpoint(origin, h.Location()))
		return nil
	})
	_ = g.Wait()

	if c.Doctors == nil {
		c.Doctors = []DoctorSummary{}
	}
	if c.Equipment == nil {
		c.Equipment = []string{}
	}
	if c.Medications == nil {
		c.Medications = []string{}
	}
	if !c.Traffic.Valid() {
		c.Traffic = traffic.Moderate
	}
	return c
}

func (a *Aggregator) degraded(id uuid.UUID, what string, err error) {
	a.logger.Warn().
		Err(err).
		Str("kind", "external_dependency_degraded").
		Str("hospital_id", id.String()).
		Str("lookup", what).
		Msg("hospital profile lookup failed, continuing with an empty list")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
