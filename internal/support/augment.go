package support

import "strings"

const (
	ticketSuggestion   = "\n\nI notice this is a high priority issue. Would you like to create a support ticket so our team can assist you more directly?"
	repeatAcknowledged = "\n\nI notice you've asked similar questions before. Let me try to provide a more detailed answer based on your previous interactions."

	// EmptyResponseFallback replaces blank completion content.
	EmptyResponseFallback = "I'm sorry, there was an issue with processing your request. Please try again."

	summaryQuestionLength = 100
)

// Augment appends the high-priority note to content and reports whether a
// ticket should be suggested.
func Augment(p Priority, count int, content string) (string, bool) {
	suffix, suggest := augmentSuffix(p, count)
	return content + suffix, suggest
}

func augmentSuffix(p Priority, count int) (string, bool) {
	if p != PriorityHigh {
		return "", false
	}
	if count < 2 {
		return ticketSuggestion, true
	}
	return repeatAcknowledged, false
}

// Summarize produces the short label stored for an exchange. Questions longer
// than 100 runes are cut and marked with an ellipsis.
func Summarize(question, _ string) string {
	short := truncateRunes(question, summaryQuestionLength)
	if len(short) < len(question) {
		return short + "..."
	}
	return short
}

func orFallback(content string) string {
	if strings.TrimSpace(content) == "" {
		return EmptyResponseFallback
	}
	return content
}
