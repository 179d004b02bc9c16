// Package ranking orders published tools by relevance to a free-text query.
package ranking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"plaiful/internal/domain"
	"plaiful/internal/llm"
)

const (
	StrategyHeuristic = "heuristic"
	StrategyLLM       = "llm"
)

var (
	ErrUnparseable = errors.New("ranking: unparseable model response")
	ErrNoResults   = errors.New("ranking: no results")
)

// Ranker returns the subset of tools relevant to query, most relevant first.
type Ranker interface {
	Rank(ctx context.Context, query string, tools []domain.Tool) ([]domain.Tool, error)
	Name() string
}

// New picks the backend for strategy. The LLM strategy degrades to the
// heuristic one when no completer is available.
func New(strategy string, c llm.Completer) Ranker {
	if strategy == StrategyLLM {
		if c != nil {
			return NewLLM(c)
		}
		zap.L().Warn("llm ranking requested without a completer, using heuristic")
	}
	return NewHeuristic()
}
