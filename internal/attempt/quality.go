// Package attempt gates answer submission behind a minimum-effort
// check: a word-count floor plus an injectable nonsense predicate. The
// nonsense heuristic itself lives outside this service; this package
// only defines the contract and applies the configured policy.
package attempt

import "strings"

// DefaultMinWords is the floor applied when no threshold is configured
const DefaultMinWords = 5

// NonsenseDetector is the external collaborator that judges whether an
// attempt is keyboard mashing rather than a real try.
type NonsenseDetector interface {
	IsNonsense(text string) bool
}

// CountWords returns the number of whitespace-separated words in text
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CheckResult reports whether an attempt may be submitted and why not
type CheckResult struct {
	Allowed   bool
	WordCount int
	Reason    string
}

// Gate applies the submission policy for think-first attempts
type Gate struct {
	MinWords int
	Detector NonsenseDetector
}

// NewGate creates a gate with the given word floor; zero or negative
// falls back to DefaultMinWords. The detector may be nil, in which case
// only the word count applies.
func NewGate(minWords int, detector NonsenseDetector) *Gate {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &Gate{MinWords: minWords, Detector: detector}
}

// Check decides whether the attempt text clears the submission bar
func (g *Gate) Check(text string) CheckResult {
	count := CountWords(text)
	if count < g.MinWords {
		return CheckResult{WordCount: count, Reason: "attempt is too short"}
	}
	if g.Detector != nil && g.Detector.IsNonsense(text) {
		return CheckResult{WordCount: count, Reason: "attempt does not look like a real try"}
	}
	return CheckResult{Allowed: true, WordCount: count}
}
