package traffic

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

// Estimator turns live samples into a Condition. Every failure degrades to
// Moderate so a dead provider never blocks a recommendation.
type Estimator struct {
	source  Source
	timeout time.Duration
	logger  zerolog.Logger
}

// NewEstimator builds an estimator. A nil source behaves like a provider
// without credentials.
func NewEstimator(source Source, timeout time.Duration, logger zerolog.Logger) *Estimator {
	return &Estimator{source: source, timeout: timeout, logger: logger}
}

// Estimate classifies traffic at p within the configured timeout.
func (e *Estimator) Estimate(ctx context.Context, p geo.Point) Condition {
	if e == nil || e.source == nil {
		e.degraded(p, ErrNoCredential)
		return Moderate
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	s, err := e.source.Sample(ctx, p)
	if err != nil {
		e.degraded(p, err)
		return Moderate
	}
	c, err := Classify(s.CurrentSpeed, s.FreeFlowSpeed)
	if err != nil {
		e.degraded(p, err)
		return Moderate
	}
	return c
}

func (e *Estimator) degraded(p geo.Point, err error) {
	if e == nil {
		return
	}
	e.logger.Warn().
		Err(err).
		Str("kind", "external_dependency_degraded").
		Float64("latitude", p.Latitude).
		Float64("longitude", p.Longitude).
		Msg("traffic lookup failed, assuming moderate traffic")
}
