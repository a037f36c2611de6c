package analyzer

import (
	"fmt"
	"math"
	"regexp"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

// entropyThreshold is the bits-per-byte level above which a buffer is
// considered obfuscated even when no syntactic technique fired. Normal
// script text sits between 4.0 and 4.5; encoded or packed payloads exceed it.
const entropyThreshold = 4.5

// ObfuscationFinding is one detected obfuscation technique.
type ObfuscationFinding struct {
	Technique  string  `json:"technique"`
	Confidence float64 `json:"confidence"`
}

// EntropyStats carries Shannon entropy over the whole buffer and over three
// extracted substring classes.
type EntropyStats struct {
	Overall       float64 `json:"overall"`
	Strings       float64 `json:"strings"`
	Identifiers   float64 `json:"identifiers"`
	FunctionNames float64 `json:"function_names"`
}

// StringStats summarizes the quoted string literals in the buffer.
type StringStats struct {
	Count         int     `json:"count"`
	AverageLength float64 `json:"average_length"`
	MaxLength     int     `json:"max_length"`
}

// ObfuscationAnalysis is the output of the entropy and lexical stage.
type ObfuscationAnalysis struct {
	Detected        bool                 `json:"detected"`
	Confidence      float64              `json:"confidence"`
	Findings        []ObfuscationFinding `json:"findings,omitempty"`
	ComplexityScore float64              `json:"complexity_score"`
	Entropy         EntropyStats         `json:"entropy"`
	Strings         StringStats          `json:"string_stats"`
}

// ShannonEntropy computes H = -Σ p(b)·log2(p(b)) over byte frequencies.
// Result is in [0, 8] bits per byte; a constant buffer scores exactly 0.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	total := float64(len(data))
	var entropy float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

var (
	quotedStringPattern = regexp.MustCompile(`"([^"\\]*(\\.[^"\\]*)*)"|'([^']*)'`)
	identifierPattern   = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)
	functionNamePattern = regexp.MustCompile(`(?i)\bfunction\s+([A-Za-z_][\w-]*)`)
)

// ObfuscationAnalyzer computes entropy statistics and applies the syntactic
// technique detectors from the catalogue. It is total: any byte input yields
// a well-formed analysis, never an error.
type ObfuscationAnalyzer struct {
	rules []obfuscationDetector
}

type obfuscationDetector struct {
	technique  string
	re         *regexp.Regexp
	confidence float64
	weight     float64
}

// NewObfuscationAnalyzer compiles the catalogue's obfuscation rules.
func NewObfuscationAnalyzer(cat *catalog.Catalog) (*ObfuscationAnalyzer, error) {
	a := &ObfuscationAnalyzer{}
	for _, r := range cat.Obfuscation {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("obfuscation rule %q: %w", r.Technique, err)
		}
		a.rules = append(a.rules, obfuscationDetector{r.Technique, re, r.Confidence, r.Weight})
	}
	return a, nil
}

// Analyze runs the entropy and lexical stage over the decoded text.
func (a *ObfuscationAnalyzer) Analyze(text string) ObfuscationAnalysis {
	analysis := ObfuscationAnalysis{
		Entropy: a.entropyStats(text),
		Strings: stringStats(text),
	}

	var weightSum float64
	for _, d := range a.rules {
		if !d.re.MatchString(text) {
			continue
		}
		analysis.Findings = append(analysis.Findings, ObfuscationFinding{
			Technique:  d.technique,
			Confidence: d.confidence,
		})
		analysis.Confidence += d.confidence
		weightSum += d.weight
	}
	if n := len(analysis.Findings); n > 0 {
		analysis.Confidence /= float64(n)
	}

	analysis.Detected = len(analysis.Findings) > 0 || analysis.Entropy.Overall > entropyThreshold
	analysis.ComplexityScore = complexityScore(len(text), weightSum)
	return analysis
}

func (a *ObfuscationAnalyzer) entropyStats(text string) EntropyStats {
	stats := EntropyStats{Overall: ShannonEntropy([]byte(text))}

	var literals []byte
	for _, m := range quotedStringPattern.FindAllStringSubmatch(text, -1) {
		body := m[1]
		if body == "" {
			body = m[3]
		}
		literals = append(literals, body...)
	}
	stats.Strings = ShannonEntropy(literals)

	var idents []byte
	for _, m := range identifierPattern.FindAllString(text, -1) {
		idents = append(idents, m[1:]...) // drop the $ sigil
	}
	stats.Identifiers = ShannonEntropy(idents)

	var names []byte
	for _, m := range functionNamePattern.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1]...)
	}
	stats.FunctionNames = ShannonEntropy(names)

	return stats
}

func stringStats(text string) StringStats {
	var stats StringStats
	var totalLen int
	for _, m := range quotedStringPattern.FindAllStringSubmatch(text, -1) {
		body := m[1]
		if body == "" {
			body = m[3]
		}
		stats.Count++
		totalLen += len(body)
		if len(body) > stats.MaxLength {
			stats.MaxLength = len(body)
		}
	}
	if stats.Count > 0 {
		stats.AverageLength = float64(totalLen) / float64(stats.Count)
	}
	return stats
}

// complexityScore combines log-scaled buffer length with the per-technique
// weight sum, clamped to [0, 100].
func complexityScore(length int, weightSum float64) float64 {
	score := 5*math.Log10(float64(length)+1) + weightSum
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
