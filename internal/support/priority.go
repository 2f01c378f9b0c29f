package support

import "strings"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var highKeywords = []string{
	"urgent", "emergency", "immediately", "broke", "error", "not working",
	"failed", "issue", "problem", "critical", "broken", "crash", "fix", "serious",
}

var lowKeywords = []string{
	"how to", "what is", "where can i find", "information", "learn", "guide",
}

// Classify labels a message by keyword. High keywords win over low ones.
func Classify(message string) Priority {
	lower := strings.ToLower(message)
	if containsAny(lower, highKeywords) {
		return PriorityHigh
	}
	if containsAny(lower, lowKeywords) {
		return PriorityLow
	}
	return PriorityMedium
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
