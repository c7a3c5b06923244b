package llm

import (
	"fmt"
	"strings"
)

// TruncationMarker is appended to diffs cut to fit the token budget.
const TruncationMarker = "\n\n[... diff truncated for brevity ...]"

// charsPerToken converts a token budget into a character budget.
const charsPerToken = 3

const summarySystemPrompt = "You are an expert at summarizing code changes. " +
	"Generate a concise, clear summary of the following commit changes. " +
	"Focus on the key changes and their impact."

const adviceSystemPrompt = "You are acting in the role of a staff engineer providing a code review. " +
	"The review should focus on maintainability and any obvious safety bugs. " +
	"Give 0-3 actionable suggestions; it is fine to say the code needs none. " +
	"When you give a suggestion, include a brief before and after example taken from the diff."

const adviceFormat = `Respond with a JSON array only. Each element has the fields
"title" (string), "description" (string), "priority" (one of "low", "medium", "high", "critical"),
"category" (string) and "code_examples" (array of strings).`

const chatSystemPrompt = "You are a helpful senior engineer discussing a set of uncommitted code changes. " +
	"Answer concisely and refer to the diff when it helps."

// NoChangesMessage is shown in place of advice when the work tree is clean.
const NoChangesMessage = "No code changes are currently available to analyze. " +
	"Make some code changes to get improvement suggestions. " +
	"You can still ask general questions about the code."

// TruncateDiff cuts diff to maxTokens*3 characters, never splitting a rune.
func TruncateDiff(diff string, maxTokens int) string {
	if maxTokens <= 0 {
		return diff
	}
	limit := maxTokens * charsPerToken
	if len(diff) <= limit {
		return diff
	}
	cut := 0
	for i := range diff {
		if i > limit {
			break
		}
		cut = i
	}
	return diff[:cut] + TruncationMarker
}

// SummaryRequest builds the commit summary request.
func SummaryRequest(model, message, diff string, maxTokens int) Request {
	prompt := fmt.Sprintf("Commit message: %s\n\nCode changes:\n%s", strings.TrimSpace(message), TruncateDiff(diff, maxTokens))
	return Prompt(model, summarySystemPrompt, prompt)
}

// AdviceRequest builds the request for improvement suggestions on a diff.
func AdviceRequest(model, diff string, maxTokens int) Request {
	prompt := fmt.Sprintf("Please provide up to 3 actionable improvements for the following code changes:\n\n```diff\n%s\n```\n\n%s",
		TruncateDiff(diff, maxTokens), adviceFormat)
	return Prompt(model, adviceSystemPrompt, prompt)
}

// ChatSystemPrompt returns the system prompt for a chat about diff.
func ChatSystemPrompt(diff string, maxTokens int) string {
	if strings.TrimSpace(diff) == "" {
		return chatSystemPrompt
	}
	return fmt.Sprintf("%s\n\nThe current changes:\n```diff\n%s\n```", chatSystemPrompt, TruncateDiff(diff, maxTokens))
}
