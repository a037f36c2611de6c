package risk

import (
	"math"
	"testing"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/c2"
	"github.com/0xlayer/scriptscope/internal/catalog"
)

func malicious(sev analyzer.Severity) analyzer.Finding {
	return analyzer.Finding{
		Category:    catalog.CategoryMalicious,
		Description: "Dynamic script evaluation (Invoke-Expression)",
		Severity:    sev,
	}
}

func evasion(sev analyzer.Severity) analyzer.Finding {
	return analyzer.Finding{
		Category:    catalog.CategoryEvasion,
		Description: "AMSI bypass",
		Severity:    sev,
	}
}

func TestAssessLevels(t *testing.T) {
	tests := []struct {
		name      string
		detection *c2.Detection
		findings  []analyzer.Finding
		wantLevel analyzer.Severity
	}{
		{
			"no evidence",
			nil, nil,
			analyzer.SeverityInfo,
		},
		{
			"full confidence c2 plus saturated factors is critical",
			&c2.Detection{Framework: "Cobalt Strike", Confidence: 1.0},
			append(repeat(malicious(analyzer.SeverityCritical), 10), evasion(analyzer.SeverityCritical)),
			analyzer.SeverityCritical,
		},
		{
			"c2 detection alone lands medium",
			&c2.Detection{Framework: "Generic HTTP Stager", Confidence: 1.0},
			nil,
			analyzer.SeverityMedium,
		},
		{
			"malicious findings alone cap below medium",
			nil,
			repeat(malicious(analyzer.SeverityCritical), 20),
			analyzer.SeverityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.detection, tt.findings)
			if got.Level != tt.wantLevel {
				t.Errorf("level = %v (score %f), want %v", got.Level, got.Score, tt.wantLevel)
			}
		})
	}
}

func TestAssessScoreIsMonotonic(t *testing.T) {
	detection := &c2.Detection{Framework: "Metasploit", Confidence: 0.75}
	findings := []analyzer.Finding{malicious(analyzer.SeverityHigh), evasion(analyzer.SeverityHigh)}

	base := Assess(detection, findings)
	more := Assess(detection, append(findings, malicious(analyzer.SeverityCritical)))

	if more.Score < base.Score {
		t.Errorf("adding a critical finding lowered the score: %f -> %f", base.Score, more.Score)
	}
}

func TestAssessFactorsSumToScore(t *testing.T) {
	detection := &c2.Detection{Framework: "Empire", Confidence: 0.9}
	findings := []analyzer.Finding{
		malicious(analyzer.SeverityCritical),
		malicious(analyzer.SeverityHigh),
		evasion(analyzer.SeverityMedium),
		evasion(analyzer.SeverityLow),
	}

	got := Assess(detection, findings)
	if len(got.Factors) != 3 {
		t.Fatalf("factors = %+v, want all three even when empty", got.Factors)
	}
	var sum float64
	for _, f := range got.Factors {
		if math.Abs(f.Contribution-f.Weight*f.Score) > 1e-9 {
			t.Errorf("factor %s contribution %f != weight*score %f", f.Name, f.Contribution, f.Weight*f.Score)
		}
		sum += f.Contribution
	}
	if math.Abs(sum-got.Score) > 1e-9 {
		t.Errorf("factor contributions sum to %f, score is %f", sum, got.Score)
	}
}

func TestAssessMaliciousHistogram(t *testing.T) {
	// Only the malicious-function category feeds the histogram; severities
	// below high contribute nothing.
	findings := []analyzer.Finding{
		malicious(analyzer.SeverityCritical),
		malicious(analyzer.SeverityHigh),
		malicious(analyzer.SeverityMedium),
		{Category: catalog.CategoryNetwork, Severity: analyzer.SeverityCritical},
	}
	got := Assess(nil, findings)
	for _, f := range got.Factors {
		if f.Name == "malicious-functions" && f.Score != 17 {
			t.Errorf("malicious score = %f, want 10*1 + 7*1 = 17", f.Score)
		}
	}
}

func TestAssessEvasionMeansSeverityConfidence(t *testing.T) {
	findings := []analyzer.Finding{
		evasion(analyzer.SeverityCritical), // 0.9
		evasion(analyzer.SeverityLow),      // 0.3
	}
	got := Assess(nil, findings)
	for _, f := range got.Factors {
		if f.Name == "defense-evasion" && math.Abs(f.Score-60) > 1e-9 {
			t.Errorf("evasion score = %f, want mean(0.9, 0.3)*100 = 60", f.Score)
		}
	}
}

func TestRecommendationsAreDeterministic(t *testing.T) {
	detection := &c2.Detection{Framework: "Sliver", Confidence: 0.8}
	findings := []analyzer.Finding{malicious(analyzer.SeverityCritical)}

	a := Assess(detection, findings)
	b := Assess(detection, findings)
	if len(a.Recommendations) != len(b.Recommendations) {
		t.Fatalf("recommendation count differs between runs")
	}
	for i := range a.Recommendations {
		if a.Recommendations[i] != b.Recommendations[i] {
			t.Errorf("recommendation %d differs: %q vs %q", i, a.Recommendations[i], b.Recommendations[i])
		}
	}
	if len(a.Recommendations) == 0 {
		t.Error("expected at least one recommendation")
	}
}

func repeat(f analyzer.Finding, n int) []analyzer.Finding {
	out := make([]analyzer.Finding, n)
	for i := range out {
		out[i] = f
	}
	return out
}
