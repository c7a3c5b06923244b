package models

import "time"

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChatMessage is one entry of a chat session.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Priority ranks an improvement suggestion.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
	PriorityUnknown  Priority = "Unknown"
)

// ParsePriority maps free-form model output onto a Priority.
func ParsePriority(s string) Priority {
	switch s {
	case "low", "Low", "LOW":
		return PriorityLow
	case "medium", "Medium", "MEDIUM":
		return PriorityMedium
	case "high", "High", "HIGH":
		return PriorityHigh
	case "critical", "Critical", "CRITICAL":
		return PriorityCritical
	default:
		return PriorityUnknown
	}
}

// Improvement is a single piece of advice about a diff.
type Improvement struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Priority     Priority `json:"priority"`
	Category     string   `json:"category"`
	CodeExamples []string `json:"code_examples,omitempty"`
}

// AdviceData is the advice generated for one diff body, keyed by diff hash.
type AdviceData struct {
	DiffHash     string        `json:"diff_hash"`
	Improvements []Improvement `json:"improvements"`
	Raw          string        `json:"raw"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// Clone returns a deep copy of the advice.
func (a AdviceData) Clone() AdviceData {
	cpy := a
	if a.Improvements != nil {
		cpy.Improvements = make([]Improvement, len(a.Improvements))
		for i, imp := range a.Improvements {
			imp.CodeExamples = append([]string(nil), imp.CodeExamples...)
			cpy.Improvements[i] = imp
		}
	}
	return cpy
}
