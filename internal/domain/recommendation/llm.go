package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/platform/ai"
)

const scoringPolicy = `You rank hospitals for an ambulance crew.

The user message is a French text block: a "Données du Patient" section
followed by one "Hopital N" section per candidate hospital.

Score every hospital starting from 60 and apply only the criteria the
patient section mentions:
- urgent case ("Demande une attention immédiate"): +30 with an emergency block, -50 without
- required equipment ("Nécessite:"): +15 per item available, -40 once if any item is missing
- required specialist ("Spécialiste requis:"): +20 if a doctor has that specialty, -30 otherwise
- required medications ("Médicaments nécessaires:"): +10 per item available, -20 once if any is missing
- traffic: léger +10, ralenti 0, modéré 0, dense -15
- child patient (under 15) and a pediatric hospital: +15

Return between 1 and 3 hospitals sorted by score, highest first. Copy
hospital_id and hospital_name exactly as given. Write each comment in French,
justifying the score for the crew.`

var recommendationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "recommendations": {
      "type": "array",
      "minItems": 1,
      "maxItems": 3,
      "items": {
        "type": "object",
        "properties": {
          "hospital_id": {"type": "string"},
          "hospital_name": {"type": "string"},
          "comment": {"type": "string"},
          "recommendation_score": {"type": "number"}
        },
        "required": ["hospital_id", "hospital_name", "comment", "recommendation_score"]
      }
    }
  },
  "required": ["recommendations"]
}`)

// LLMAuthority delegates ranking to a structured-generation model and checks
// its answer against the candidates it was given.
type LLMAuthority struct {
	model   ai.StructuredModel
	timeout time.Duration
	logger  zerolog.Logger
}

func NewLLMAuthority(model ai.StructuredModel, timeout time.Duration, logger zerolog.Logger) *LLMAuthority {
	return &LLMAuthority{model: model, timeout: timeout, logger: logger}
}

func (a *LLMAuthority) Rank(ctx context.Context, req *Request, candidates []Candidate) ([]Recommendation, error) {
	if len(candidates) == 0 {
		return nil, newError(KindNotFound, "no hospitals found", nil)
	}
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.model.GenerateJSON(ctx, scoringPolicy, FormatInput(req, candidates), recommendationSchema)
	if err != nil {
		return nil, newError(KindExternalDependencyFailure, "scoring model call failed", err)
	}
	a.logger.Debug().
		Str("model", resp.Model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("scoring model answered")

	return parseRecommendations(resp.Content, candidates)
}

type recommendationOutput struct {
	Recommendations []struct {
		HospitalID   string   `json:"hospital_id"`
		HospitalName string   `json:"hospital_name"`
		Comment      string   `json:"comment"`
		Score        *float64 `json:"recommendation_score"`
	} `json:"recommendations"`
}

// parseRecommendations accepts model output only if every entry names a
// candidate by its exact id and name, carries a finite score, and there are
// one to three distinct entries.
func parseRecommendations(raw json.RawMessage, candidates []Candidate) ([]Recommendation, error) {
	var out recommendationOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(KindInvalidOutput, "scoring output does not match the schema", err)
	}
	if n := len(out.Recommendations); n < 1 || n > maxRecommendations {
		return nil, newError(KindInvalidOutput, fmt.Sprintf("expected 1 to %d recommendations, got %d", maxRecommendations, n), nil)
	}

	byID := make(map[string]*Candidate, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID()] = &candidates[i]
	}

	seen := make(map[string]bool, len(out.Recommendations))
	recs := make([]Recommendation, 0, len(out.Recommendations))
	for _, r := range out.Recommendations {
		id := strings.TrimSpace(r.HospitalID)
		c, ok := byID[id]
		if !ok {
			return nil, newError(KindReferentialViolation, fmt.Sprintf("unknown hospital_id %q", r.HospitalID), nil)
		}
		if seen[id] {
			return nil, newError(KindInvalidOutput, fmt.Sprintf("hospital_id %q recommended twice", id), nil)
		}
		seen[id] = true
		if strings.TrimSpace(r.HospitalName) != c.Hospital.Name {
			return nil, newError(KindInvalidOutput, fmt.Sprintf("hospital_name %q does not match hospital %s", r.HospitalName, id), nil)
		}
		if r.Score == nil || math.IsNaN(*r.Score) || math.IsInf(*r.Score, 0) {
			return nil, newError(KindInvalidOutput, fmt.Sprintf("hospital %s has no finite recommendation_score", id), nil)
		}
		recs = append(recs, Recommendation{
			HospitalID:   id,
			HospitalName: c.Hospital.Name,
			Comment:      r.Comment,
			Score:        *r.Score,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}

// Narrator rewrites the comments of already-ranked recommendations.
type Narrator interface {
	Narrate(ctx context.Context, req *Request, candidates []Candidate, recs []Recommendation) ([]Recommendation, error)
}

const narrationPolicy = `You write short French justifications for hospital recommendations
given to an ambulance crew. The user message lists the patient and the
candidate hospitals, followed by the final scores, which are fixed. For each
scored hospital, explain in one or two sentences why it received its score.
Do not change scores or add hospitals.`

var narrationSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "comments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "hospital_id": {"type": "string"},
          "comment": {"type": "string"}
        },
        "required": ["hospital_id", "comment"]
      }
    }
  },
  "required": ["comments"]
}`)

// LLMNarrator phrases comments with a model. Scores and order are never
// touched.
type LLMNarrator struct {
	model   ai.StructuredModel
	timeout time.Duration
}

func NewLLMNarrator(model ai.StructuredModel, timeout time.Duration) *LLMNarrator {
	return &LLMNarrator{model: model, timeout: timeout}
}

func (n *LLMNarrator) Narrate(ctx context.Context, req *Request, candidates []Candidate, recs []Recommendation) ([]Recommendation, error) {
	ctx, cancel := withTimeout(ctx, n.timeout)
	defer cancel()

	var b strings.Builder
	b.WriteString(FormatInput(req, candidates))
	b.WriteString("* Scores:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s (%s): %g\n", r.HospitalID, r.HospitalName, r.Score)
	}

	resp, err := n.model.GenerateJSON(ctx, narrationPolicy, b.String(), narrationSchema)
	if err != nil {
		return nil, fmt.Errorf("narration model call failed: %w", err)
	}
	var out struct {
		Comments []struct {
			HospitalID string `json:"hospital_id"`
			Comment    string `json:"comment"`
		} `json:"comments"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("narration output does not match the schema: %w", err)
	}
	comments := make(map[string]string, len(out.Comments))
	for _, c := range out.Comments {
		if text := strings.TrimSpace(c.Comment); text != "" {
			comments[strings.TrimSpace(c.HospitalID)] = text
		}
	}

	narrated := make([]Recommendation, len(recs))
	copy(narrated, recs)
	for i := range narrated {
		if text, ok := comments[narrated[i].HospitalID]; ok {
			narrated[i].Comment = text
		}
	}
	return narrated, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
