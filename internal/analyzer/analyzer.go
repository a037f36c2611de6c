// Package analyzer holds the shared finding model, the entropy and lexical
// obfuscation analysis, and the rule-table operation classifiers.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Severity represents the severity level of a finding. Higher is worse.
type Severity int

const (
	// SeverityInfo indicates an observation with no inherent risk.
	SeverityInfo Severity = iota
	// SeverityLow indicates an informational finding or minor risk.
	SeverityLow
	// SeverityMedium indicates a moderate risk that should be reviewed.
	SeverityMedium
	// SeverityHigh indicates a serious risk that needs immediate attention.
	SeverityHigh
	// SeverityCritical indicates a verified malicious pattern.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders severities as their string form so reports stay
// readable for external consumers.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseSeverity converts a catalogue severity string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

// Confidence maps a severity to the confidence used when findings are folded
// into the technique map and the risk model. Findings themselves carry no
// confidence; this mapping is the single place that conversion happens.
func (s Severity) Confidence() float64 {
	switch s {
	case SeverityCritical:
		return 0.9
	case SeverityHigh:
		return 0.7
	case SeverityMedium:
		return 0.5
	case SeverityLow:
		return 0.3
	default:
		return 0.1
	}
}

// Finding is a single classified observation in the analyzed text.
type Finding struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Techniques  []string `json:"techniques,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// Classifier scans text and returns zero or more findings. Implementations
// are pure: no state, no I/O, same input same output. Finding nothing is a
// normal outcome, never an error.
type Classifier interface {
	Name() string
	Classify(text string) []Finding
}

// RunAll runs every classifier concurrently and returns their findings
// concatenated in registration order, so output is deterministic regardless
// of scheduling.
func RunAll(classifiers []Classifier, text string) []Finding {
	perClassifier := make([][]Finding, len(classifiers))

	var g errgroup.Group
	for i, c := range classifiers {
		g.Go(func() error {
			perClassifier[i] = c.Classify(text)
			return nil
		})
	}
	_ = g.Wait() // classifiers never return errors

	var findings []Finding
	for _, fs := range perClassifier {
		findings = append(findings, fs...)
	}
	return findings
}

// FilterByMinSeverity filters findings to only those at or above the given
// severity. Used by report renderers; the analysis result itself is never
// filtered.
func FilterByMinSeverity(findings []Finding, minSeverity Severity) []Finding {
	var filtered []Finding
	for _, f := range findings {
		if f.Severity >= minSeverity {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// CountBySeverity returns a severity histogram over findings in the given
// category; an empty category counts everything.
func CountBySeverity(findings []Finding, category string) map[Severity]int {
	hist := make(map[Severity]int)
	for _, f := range findings {
		if category == "" || f.Category == category {
			hist[f.Severity]++
		}
	}
	return hist
}
