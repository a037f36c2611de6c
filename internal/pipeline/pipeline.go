// Package pipeline sequences the analysis stages and assembles the final
// result. A Pipeline owns no mutable state: after construction it is safe
// for unsynchronized concurrent use, and every Analyze call is a pure
// function of its input buffer (apart from the wall-clock duration field).
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/c2"
	"github.com/0xlayer/scriptscope/internal/catalog"
	"github.com/0xlayer/scriptscope/internal/deobfuscate"
	"github.com/0xlayer/scriptscope/internal/intel"
	"github.com/0xlayer/scriptscope/internal/risk"
)

// Version tags every result with the analyzer revision that produced it.
const Version = "0.4.0"

// Request is one analysis input: an opaque byte buffer and an optional
// caller-supplied correlation identifier. The identifier has no semantic
// meaning inside the pipeline.
type Request struct {
	ID   string
	Data []byte
}

// Metadata describes the analysis run itself.
type Metadata struct {
	Version  string        `json:"version"`
	Duration time.Duration `json:"duration_ns"`
	Engines  []string      `json:"engines"`
	SHA256   string        `json:"sha256"`
}

// Result is the root aggregate. It owns all nested values; nothing in it
// references caller-owned memory, and it is never mutated after Analyze
// returns.
type Result struct {
	RequestID   string                       `json:"request_id,omitempty"`
	Obfuscation analyzer.ObfuscationAnalysis `json:"obfuscation"`
	Attempts    []deobfuscate.Attempt        `json:"deobfuscation_attempts"`
	Framework   *c2.Detection                `json:"framework,omitempty"`
	Beacon      *c2.BeaconConfig             `json:"beacon,omitempty"`
	Findings    []analyzer.Finding           `json:"findings"`
	IOCs        []intel.IOC                  `json:"iocs"`
	Techniques  intel.TechniqueMap           `json:"techniques"`
	Risk        risk.Assessment              `json:"risk"`
	Meta        Metadata                     `json:"meta"`
}

// Pipeline wires the stages around a shared, read-only catalogue.
type Pipeline struct {
	cat         *catalog.Catalog
	obfuscation *analyzer.ObfuscationAnalyzer
	registry    *deobfuscate.Registry
	classifiers []analyzer.Classifier
	detector    *c2.Detector
}

// New compiles every catalogue table into a ready pipeline. Compilation
// failures are configuration errors and surface here, once, at startup;
// Analyze itself cannot fail.
func New(cat *catalog.Catalog) (*Pipeline, error) {
	obf, err := analyzer.NewObfuscationAnalyzer(cat)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	detector, err := c2.NewDetector(cat)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	builders := []func(*catalog.Catalog) (analyzer.Classifier, error){
		analyzer.NewNetworkClassifier,
		analyzer.NewFileOpsClassifier,
		analyzer.NewRegistryOpsClassifier,
		analyzer.NewProcessOpsClassifier,
		analyzer.NewMaliciousFunctionClassifier,
		analyzer.NewEvasionClassifier,
	}
	var classifiers []analyzer.Classifier
	for _, build := range builders {
		c, err := build(cat)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		classifiers = append(classifiers, c)
	}

	return &Pipeline{
		cat:         cat,
		obfuscation: obf,
		registry:    deobfuscate.DefaultRegistry(),
		classifiers: classifiers,
		detector:    detector,
	}, nil
}

// Analyze runs the full pipeline over one request. It is total: any byte
// buffer, including invalid UTF-8 and adversarial content, produces a
// well-formed result. Individual stage soft-misses (nothing recovered,
// nothing detected) leave their fields empty and never abort the run.
func (p *Pipeline) Analyze(req Request) Result {
	start := time.Now()

	// Invalid sequences are replaced, never fatal.
	text := strings.ToValidUTF8(string(req.Data), "�")

	obfuscation := p.obfuscation.Analyze(text)
	attempts := p.registry.RunRecursive(text)

	texts := append([]string{text}, deobfuscate.RecoveredTexts(attempts)...)
	corpus := strings.Join(texts, "\n")

	findings := analyzer.RunAll(p.classifiers, corpus)
	detection := p.detector.Detect(texts)
	beacon := c2.ExtractBeacon(texts)

	sum := sha256.Sum256(req.Data)

	return Result{
		RequestID:   req.ID,
		Obfuscation: obfuscation,
		Attempts:    attempts,
		Framework:   detection,
		Beacon:      beacon,
		Findings:    findings,
		IOCs:        intel.Aggregate(texts, beacon, findings),
		Techniques:  intel.MapTechniques(findings, p.cat.Techniques),
		Risk:        risk.Assess(detection, findings),
		Meta: Metadata{
			Version:  Version,
			Duration: time.Since(start),
			Engines:  p.registry.Names(),
			SHA256:   hex.EncodeToString(sum[:]),
		},
	}
}
