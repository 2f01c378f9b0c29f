package support

import "strings"

// Matcher decides which stored questions count as repeats of a new one.
type Matcher interface {
	Fingerprint(question string) string
	Similar(fingerprint, storedQuestion string) bool
}

const DefaultFingerprintLength = 20

// PrefixMatcher fingerprints a question by its leading runes and treats any
// stored question containing that prefix (case-insensitively) as similar.
//
// Two different questions that share their first Length runes are counted as
// the same question. Short questions match any stored text that contains them.
type PrefixMatcher struct {
	Length int
}

func (m PrefixMatcher) Fingerprint(question string) string {
	n := m.Length
	if n <= 0 {
		n = DefaultFingerprintLength
	}
	return truncateRunes(question, n)
}

func (m PrefixMatcher) Similar(fingerprint, storedQuestion string) bool {
	if fingerprint == "" {
		return false
	}
	return strings.Contains(strings.ToLower(storedQuestion), strings.ToLower(fingerprint))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
