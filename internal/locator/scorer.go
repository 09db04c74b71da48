// internal/locator/scorer.go
package locator

import (
	"strings"

	"github.com/xkilldash9x/lodestar/api/schemas"
)

// Weights is the fixed scoring contract for candidate records. The values
// are constants of the design, not learned parameters, so the whole table
// is auditable and testable in one place.
type Weights struct {
	// Substring-match weights per candidate field.
	ID    float64
	Class float64
	Name  float64
	Role  float64
	// TagExact rewards an exact tag-name match against a token.
	TagExact float64
	// TextHint is the bonus when the text hint appears in the record text.
	TextHint float64
	// Visible is the bonus for records marked visible.
	Visible float64
}

// DefaultWeights is the production weight table.
var DefaultWeights = Weights{
	ID:       3.5,
	Class:    2.2,
	Name:     1.5,
	Role:     1.0,
	TagExact: 1.2,
	TextHint: 3.0,
	Visible:  0.8,
}

// Score accumulates a non-negative relevance score for one candidate
// record against a token set and an optional text hint. The total has no
// upper bound.
func (w Weights) Score(rec schemas.CandidateRecord, tokens []string, textHint string) float64 {
	id := strings.ToLower(rec.ID)
	class := strings.ToLower(rec.Class)
	name := strings.ToLower(rec.Name)
	role := strings.ToLower(rec.Role)
	tag := strings.ToLower(rec.Tag)
	text := strings.ToLower(rec.Text)
	hint := strings.TrimSpace(strings.ToLower(textHint))

	var score float64
	for _, token := range tokens {
		if strings.Contains(id, token) {
			score += w.ID
		}
		if strings.Contains(class, token) {
			score += w.Class
		}
		if strings.Contains(name, token) {
			score += w.Name
		}
		if strings.Contains(role, token) {
			score += w.Role
		}
		if token == tag {
			score += w.TagExact
		}
	}

	if hint != "" && strings.Contains(text, hint) {
		score += w.TextHint
	}
	if rec.Visible {
		score += w.Visible
	}

	return score
}

// ScoreCandidate scores a record with the production weight table.
func ScoreCandidate(rec schemas.CandidateRecord, tokens []string, textHint string) float64 {
	return DefaultWeights.Score(rec, tokens, textHint)
}
