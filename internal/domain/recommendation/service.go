package recommendation

import (
	"context"

	"github.com/rs/zerolog"
)

type Service struct {
	aggregator *Aggregator
	authority  Authority
	narrator   Narrator
	logger     zerolog.Logger
}

// NewService wires the pipeline. A nil authority uses Rules; narrator may be nil.
func NewService(aggregator *Aggregator, authority Authority, narrator Narrator, logger zerolog.Logger) *Service {
	if authority == nil {
		authority = Rules{}
	}
	return &Service{aggregator: aggregator, authority: authority, narrator: narrator, logger: logger}
}

// Recommend returns up to three hospitals for req, best first, with their
// stored details attached. Failures are *Error values.
func (s *Service) Recommend(ctx context.Context, req *Request) ([]Recommendation, error) {
	if req == nil {
		return nil, newError(KindInvalidInput, "patient data is required", nil)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	origin, _ := req.Origin()

	candidates, err := s.aggregator.Candidates(ctx, origin)
	if err != nil {
		return nil, err
	}

	recs, err := s.authority.Rank(ctx, req, candidates)
	if err != nil {
		if KindOf(err) == 0 {
			err = newError(KindExternalDependencyFailure, "scoring failed", err)
		}
		return nil, err
	}

	if s.narrator != nil {
		narrated, nerr := s.narrator.Narrate(ctx, req, candidates, recs)
		if nerr != nil {
			s.logger.Warn().
				Err(nerr).
				Str("kind", "external_dependency_degraded").
				Msg("narration failed, keeping rule-based comments")
		} else {
			recs = narrated
		}
	}

	return Assemble(recs, candidates, s.logger), nil
}
