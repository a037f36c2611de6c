// Package risk turns the pipeline's detection results into a single verdict:
// a numeric score, an ordinal level, and deterministic recommendations.
package risk

import (
	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/c2"
	"github.com/0xlayer/scriptscope/internal/catalog"
)

// Factor is one weighted contributor to the overall score. Contribution is
// always Weight × Score, so the factor list audits the final number.
type Factor struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Score        float64 `json:"score"`
	Contribution float64 `json:"contribution"`
}

// Assessment is the pipeline's verdict.
type Assessment struct {
	Level           analyzer.Severity `json:"level"`
	Score           float64           `json:"score"`
	Factors         []Factor          `json:"factors"`
	Recommendations []string          `json:"recommendations"`
}

// Fixed factor weights. A factor with no supporting evidence scores 0 and
// still appears in the list, so "not present" is distinguishable from "not
// assessed".
const (
	weightC2        = 0.4
	weightMalicious = 0.3
	weightEvasion   = 0.2
)

// Assess computes the weighted risk model over the C2 detection, the
// malicious-function severity histogram, and the evasion findings.
func Assess(detection *c2.Detection, findings []analyzer.Finding) Assessment {
	c2Score := 0.0
	if detection != nil {
		c2Score = detection.Confidence * 100
	}

	hist := analyzer.CountBySeverity(findings, catalog.CategoryMalicious)
	malScore := float64(10*hist[analyzer.SeverityCritical] + 7*hist[analyzer.SeverityHigh])
	if malScore > 100 {
		malScore = 100
	}

	evasionScore := 0.0
	evasionCount := 0
	for _, f := range findings {
		if f.Category == catalog.CategoryEvasion {
			evasionScore += f.Severity.Confidence()
			evasionCount++
		}
	}
	if evasionCount > 0 {
		evasionScore = evasionScore / float64(evasionCount) * 100
	}

	factors := []Factor{
		{"c2-detection", weightC2, c2Score, weightC2 * c2Score},
		{"malicious-functions", weightMalicious, malScore, weightMalicious * malScore},
		{"defense-evasion", weightEvasion, evasionScore, weightEvasion * evasionScore},
	}

	var score float64
	for _, f := range factors {
		score += f.Contribution
	}

	return Assessment{
		Level:           levelFor(score),
		Score:           score,
		Factors:         factors,
		Recommendations: recommend(levelFor(score), detection != nil, malScore > 0, evasionScore > 0),
	}
}

func levelFor(score float64) analyzer.Severity {
	switch {
	case score >= 80:
		return analyzer.SeverityCritical
	case score >= 60:
		return analyzer.SeverityHigh
	case score >= 40:
		return analyzer.SeverityMedium
	case score >= 20:
		return analyzer.SeverityLow
	default:
		return analyzer.SeverityInfo
	}
}

// recommend generates the advice list from the level and which factors were
// present. Fixed templates only; the same inputs always produce the same
// output.
func recommend(level analyzer.Severity, hasC2, hasMalicious, hasEvasion bool) []string {
	var recs []string

	switch {
	case level >= analyzer.SeverityHigh:
		recs = append(recs,
			"Isolate the affected host from the network before remediation.",
			"Treat every credential used on the host as compromised.")
	case level == analyzer.SeverityMedium:
		recs = append(recs,
			"Quarantine the script and review it in a controlled environment.")
	case level == analyzer.SeverityLow:
		recs = append(recs,
			"Review the flagged content; the observed patterns are suspicious but not conclusive.")
	default:
		recs = append(recs,
			"No significant threat indicators observed; no action required.")
	}

	if hasC2 {
		recs = append(recs, "Block the listed command-and-control endpoints at the network perimeter.")
	}
	if hasMalicious {
		recs = append(recs, "Hunt for execution of the flagged functions in endpoint telemetry.")
	}
	if hasEvasion {
		recs = append(recs, "Verify that endpoint protection and script scanning are still enabled and intact.")
	}
	return recs
}
