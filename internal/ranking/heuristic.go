package ranking

import (
	"context"
	"sort"
	"strings"

	"plaiful/internal/domain"
)

type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Name() string { return StrategyHeuristic }

type scored struct {
	tool  domain.Tool
	score int
}

// Rank drops tools that score zero and orders the rest by descending score,
// keeping input order among equal scores.
func (h *Heuristic) Rank(_ context.Context, query string, tools []domain.Tool) ([]domain.Tool, error) {
	ranked := make([]scored, 0, len(tools))
	for _, t := range tools {
		if s := Score(query, &t); s > 0 {
			ranked = append(ranked, scored{tool: t, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]domain.Tool, len(ranked))
	for i, r := range ranked {
		out[i] = r.tool
	}
	return out, nil
}

// Score is the additive relevance of t for query. Paid and Freemium
// listings carry a pricing bonus whether or not the text matched.
func Score(query string, t *domain.Tool) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	name := strings.ToLower(t.Name)
	tagline := strings.ToLower(t.Tagline)
	combined := name + " " + tagline

	score := 0
	if name == q {
		score += 100
	}
	if strings.Contains(name, q) {
		score += 50
	}
	if strings.Contains(tagline, q) {
		score += 30
	}

	anyTerm := false
	for _, term := range strings.Fields(q) {
		if strings.Contains(name, term) {
			score += 20
		}
		if strings.Contains(tagline, term) {
			score += 10
		}
		if strings.Contains(combined, term) {
			anyTerm = true
		}
	}
	if anyTerm {
		score += 5
	}

	switch t.PricingType {
	case domain.PricingPaid:
		score += 15
	case domain.PricingFreemium:
		score += 10
	}
	return score
}
