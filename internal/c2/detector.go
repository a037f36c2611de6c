// Package c2 fingerprints command-and-control frameworks and extracts beacon
// configuration from recovered script text.
package c2

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

// acceptThreshold is the minimum accumulated score a framework needs before
// a detection is reported. Below it, no detection is emitted; absence of C2
// evidence is a common, valid outcome.
const acceptThreshold = 0.5

// SignatureMatch records one piece of evidence for a framework.
type SignatureMatch struct {
	Signature  string  `json:"signature"`
	Confidence float64 `json:"confidence"`
	Location   string  `json:"location"`
}

// Detection is the best-supported framework candidate.
type Detection struct {
	Framework  string           `json:"framework"`
	Confidence float64          `json:"confidence"`
	Matches    []SignatureMatch `json:"matches"`
}

type compiledSignature struct {
	name      string
	framework string
	patterns  []*regexp.Regexp
	threshold float64
}

type compiledSoft struct {
	framework string
	re        *regexp.Regexp
	weight    float64
}

// Detector matches text corpora against the catalogue's framework signature
// sets. All patterns compile at construction; detection itself cannot fail.
type Detector struct {
	signatures []compiledSignature
	soft       []compiledSoft
}

// NewDetector compiles the catalogue's framework signatures.
func NewDetector(cat *catalog.Catalog) (*Detector, error) {
	d := &Detector{}
	for _, sig := range cat.Signatures {
		cs := compiledSignature{name: sig.Name, framework: sig.Framework, threshold: sig.Threshold}
		for _, p := range sig.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("signature %q: pattern %q: %w", sig.Name, p, err)
			}
			cs.patterns = append(cs.patterns, re)
		}
		d.signatures = append(d.signatures, cs)
	}
	for _, sp := range cat.SoftPatterns {
		re, err := regexp.Compile(sp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("soft pattern for %q: %w", sp.Framework, err)
		}
		d.soft = append(d.soft, compiledSoft{sp.Framework, re, sp.Weight})
	}
	return d, nil
}

// Detect scores every framework against the original text and all recovered
// fragments. Each signature set contributes matched/total when that ratio
// reaches its threshold; soft heuristic hits add their configured weight.
// Confidence is clamped to [0,1] and only grows as evidence folds in. The
// best framework wins if its score exceeds the acceptance threshold;
// otherwise Detect returns nil.
func (d *Detector) Detect(texts []string) *Detection {
	scores := map[string]float64{}
	evidence := map[string][]SignatureMatch{}

	for _, sig := range d.signatures {
		matched := 0
		for _, re := range sig.patterns {
			if matchesAny(re, texts) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		ratio := float64(matched) / float64(len(sig.patterns))
		if ratio < sig.threshold {
			continue
		}
		scores[sig.framework] += ratio
		evidence[sig.framework] = append(evidence[sig.framework], SignatureMatch{
			Signature:  sig.name,
			Confidence: ratio,
			Location:   locationTag(sig.patterns, texts),
		})
	}

	for _, sp := range d.soft {
		if matchesAny(sp.re, texts) {
			scores[sp.framework] += sp.weight
			evidence[sp.framework] = append(evidence[sp.framework], SignatureMatch{
				Signature:  "heuristic: " + sp.re.String(),
				Confidence: sp.weight,
				Location:   locationTag([]*regexp.Regexp{sp.re}, texts),
			})
		}
	}

	if len(scores) == 0 {
		return nil
	}

	frameworks := make([]string, 0, len(scores))
	for fw := range scores {
		frameworks = append(frameworks, fw)
	}
	sort.Strings(frameworks) // deterministic tie-break

	best := frameworks[0]
	for _, fw := range frameworks[1:] {
		if scores[fw] > scores[best] {
			best = fw
		}
	}
	confidence := scores[best]
	if confidence > 1 {
		confidence = 1
	}
	if confidence <= acceptThreshold {
		return nil
	}
	return &Detection{Framework: best, Confidence: confidence, Matches: evidence[best]}
}

func matchesAny(re *regexp.Regexp, texts []string) bool {
	for _, t := range texts {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// locationTag reports whether the evidence came from the original buffer or
// from a recovered fragment. texts[0] is always the original.
func locationTag(patterns []*regexp.Regexp, texts []string) string {
	for _, re := range patterns {
		if len(texts) > 0 && re.MatchString(texts[0]) {
			return "original"
		}
	}
	return "recovered"
}
