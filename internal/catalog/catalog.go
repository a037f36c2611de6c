// Package catalog holds the signature catalogue: the static rule tables that
// drive obfuscation detection, C2 framework fingerprinting, and the operation
// classifiers. The catalogue is pure data. It is loaded once at startup,
// validated (every pattern must compile), and never mutated afterwards, so a
// single instance can be shared by any number of concurrent analyses.
package catalog

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule is one classifier table entry. Severity is a string so rules can be
// supplied as data; it is parsed when the classifier compiles the table.
type Rule struct {
	Pattern     string   `yaml:"pattern"`
	Description string   `yaml:"description"`
	Severity    string   `yaml:"severity"`
	Techniques  []string `yaml:"techniques,omitempty"`
}

// ObfuscationRule detects one obfuscation technique. Weight feeds the
// complexity score, Confidence the per-technique detection confidence.
type ObfuscationRule struct {
	Technique  string  `yaml:"technique"`
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`
	Weight     float64 `yaml:"weight"`
}

// Signature is one named C2 framework signature set. Its contribution to the
// framework's score is matched/total, accepted only when that ratio reaches
// Threshold.
type Signature struct {
	Name      string   `yaml:"name"`
	Framework string   `yaml:"framework"`
	Patterns  []string `yaml:"patterns"`
	Threshold float64  `yaml:"threshold"`
}

// SoftPattern is a single heuristic hit (function name, API call) that adds
// Weight to a framework's accumulator when it matches anywhere in the text.
type SoftPattern struct {
	Framework string  `yaml:"framework"`
	Pattern   string  `yaml:"pattern"`
	Weight    float64 `yaml:"weight"`
}

// TechniqueInfo names a technique identifier for the technique map.
type TechniqueInfo struct {
	Name   string `yaml:"name"`
	Tactic string `yaml:"tactic"`
}

// Catalog is the full signature catalogue.
type Catalog struct {
	Obfuscation  []ObfuscationRule        `yaml:"obfuscation"`
	Signatures   []Signature              `yaml:"signatures"`
	SoftPatterns []SoftPattern            `yaml:"soft_patterns"`
	Network      []Rule                   `yaml:"network"`
	FileOps      []Rule                   `yaml:"file_ops"`
	RegistryOps  []Rule                   `yaml:"registry_ops"`
	ProcessOps   []Rule                   `yaml:"process_ops"`
	Malicious    []Rule                   `yaml:"malicious"`
	Evasion      []Rule                   `yaml:"evasion"`
	Techniques   map[string]TechniqueInfo `yaml:"techniques"`
}

// Load returns the built-in catalogue, optionally extended by a YAML overlay
// file. Overlay entries are appended to the built-in tables so new signatures
// can be shipped as data without touching pipeline code. A pattern that fails
// to compile is a configuration error and aborts the load; it can never
// surface mid-analysis.
func Load(path string) (*Catalog, error) {
	cat := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog overlay: %w", err)
		}
		var overlay Catalog
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, fmt.Errorf("parse catalog overlay: %w", err)
		}
		cat.merge(&overlay)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) merge(o *Catalog) {
	c.Obfuscation = append(c.Obfuscation, o.Obfuscation...)
	c.Signatures = append(c.Signatures, o.Signatures...)
	c.SoftPatterns = append(c.SoftPatterns, o.SoftPatterns...)
	c.Network = append(c.Network, o.Network...)
	c.FileOps = append(c.FileOps, o.FileOps...)
	c.RegistryOps = append(c.RegistryOps, o.RegistryOps...)
	c.ProcessOps = append(c.ProcessOps, o.ProcessOps...)
	c.Malicious = append(c.Malicious, o.Malicious...)
	c.Evasion = append(c.Evasion, o.Evasion...)
	for id, info := range o.Techniques {
		c.Techniques[id] = info
	}
}

// Validate compiles every pattern in the catalogue and reports the first
// malformed entry.
func (c *Catalog) Validate() error {
	check := func(table string, pattern string) error {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("catalog: bad pattern in %s table %q: %w", table, pattern, err)
		}
		return nil
	}

	for _, r := range c.Obfuscation {
		if err := check("obfuscation", r.Pattern); err != nil {
			return err
		}
	}
	for _, s := range c.Signatures {
		for _, p := range s.Patterns {
			if err := check("signatures", p); err != nil {
				return err
			}
		}
	}
	for _, sp := range c.SoftPatterns {
		if err := check("soft_patterns", sp.Pattern); err != nil {
			return err
		}
	}
	tables := map[string][]Rule{
		"network":      c.Network,
		"file_ops":     c.FileOps,
		"registry_ops": c.RegistryOps,
		"process_ops":  c.ProcessOps,
		"malicious":    c.Malicious,
		"evasion":      c.Evasion,
	}
	for name, rules := range tables {
		for _, r := range rules {
			if err := check(name, r.Pattern); err != nil {
				return err
			}
		}
	}
	return nil
}
