package llm

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/grovetools/grw/pkg/models"
)

type improvementJSON struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Priority     string   `json:"priority"`
	Category     string   `json:"category"`
	CodeExamples []string `json:"code_examples"`
}

// ParseAdvice turns a model reply into improvements. Replies that are not a
// JSON array (optionally fenced) become a single improvement holding the text.
func ParseAdvice(reply string) []models.Improvement {
	var items []improvementJSON
	if err := json.Unmarshal([]byte(extractJSONArray(reply)), &items); err == nil {
		out := make([]models.Improvement, 0, len(items))
		for _, it := range items {
			if strings.TrimSpace(it.Title) == "" && strings.TrimSpace(it.Description) == "" {
				continue
			}
			out = append(out, models.Improvement{
				ID:           uuid.NewString(),
				Title:        strings.TrimSpace(it.Title),
				Description:  strings.TrimSpace(it.Description),
				Priority:     models.ParsePriority(strings.TrimSpace(it.Priority)),
				Category:     strings.TrimSpace(it.Category),
				CodeExamples: it.CodeExamples,
			})
		}
		return out
	}

	text := strings.TrimSpace(reply)
	if text == "" {
		return nil
	}
	return []models.Improvement{{
		ID:          uuid.NewString(),
		Title:       "Review",
		Description: text,
		Priority:    models.PriorityUnknown,
		Category:    "general",
	}}
}

// extractJSONArray strips a markdown fence and any prose around the outermost array.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
