package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"plaiful/internal/domain"
	"plaiful/internal/llm"
	"plaiful/internal/pkg/utils"
)

const contentExcerptLen = 300

const rankPrompt = `You rank AI tools for a directory search box.

User query: "%s"

Tools (JSON):
%s

Return ONLY a JSON array of the ids of the relevant tools, most relevant first.
Weight exact name and tagline matches highest. After relevance, prefer tier
Premium over Featured over Free. Omit tools that are not relevant. No prose.`

var firstArray = regexp.MustCompile(`(?s)\[.*?\]`)

// LLM asks a completion model to order tools by id.
type LLM struct {
	completer llm.Completer
}

func NewLLM(c llm.Completer) *LLM {
	return &LLM{completer: c}
}

func (l *LLM) Name() string { return StrategyLLM }

type toolProjection struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Tier        string   `json:"tier"`
	Categories  []string `json:"categories,omitempty"`
}

func (l *LLM) Rank(ctx context.Context, query string, tools []domain.Tool) ([]domain.Tool, error) {
	prompt, err := BuildPrompt(query, tools)
	if err != nil {
		return nil, err
	}

	text, err := l.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ids, err := ParseIDs(text)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Tool, len(tools))
	for _, t := range tools {
		byID[t.ID] = t
	}

	out := make([]domain.Tool, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

// BuildPrompt embeds the sanitized query and a truncated projection of tools.
func BuildPrompt(query string, tools []domain.Tool) (string, error) {
	projection := make([]toolProjection, 0, len(tools))
	for _, t := range tools {
		projection = append(projection, toolProjection{
			ID:          t.ID,
			Name:        t.Name,
			Tagline:     t.Tagline,
			Description: t.Description,
			Content:     utils.Truncate(t.Content, contentExcerptLen),
			Tier:        string(t.Tier),
			Categories:  t.CategoryNames(),
		})
	}
	b, err := json.Marshal(projection)
	if err != nil {
		return "", fmt.Errorf("marshal tool projection: %w", err)
	}
	return fmt.Sprintf(rankPrompt, Sanitize(query), b), nil
}

// ParseIDs extracts the first JSON array in text and requires every element
// to be a string.
func ParseIDs(text string) ([]string, error) {
	raw := firstArray.FindString(text)
	if raw == "" {
		return nil, ErrUnparseable
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string element %v", ErrUnparseable, item)
		}
		if s = strings.TrimSpace(s); s != "" {
			ids = append(ids, s)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoResults
	}
	return ids, nil
}
