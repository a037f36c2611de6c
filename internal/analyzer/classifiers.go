package analyzer

import (
	"fmt"
	"regexp"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

// ruleClassifier is the shared implementation behind all operation
// classifiers: a compiled rule table scanned against the full text. Every
// match of every rule produces a distinct Finding; de-duplication is the
// technique mapper's job, not ours.
type ruleClassifier struct {
	name     string
	category string
	rules    []compiledRule
}

type compiledRule struct {
	re          *regexp.Regexp
	description string
	severity    Severity
	techniques  []string
}

func newRuleClassifier(name, category string, rules []catalog.Rule) (*ruleClassifier, error) {
	c := &ruleClassifier{name: name, category: category}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s classifier: pattern %q: %w", name, r.Pattern, err)
		}
		sev, err := ParseSeverity(r.Severity)
		if err != nil {
			return nil, fmt.Errorf("%s classifier: pattern %q: %w", name, r.Pattern, err)
		}
		c.rules = append(c.rules, compiledRule{re, r.Description, sev, r.Techniques})
	}
	return c, nil
}

func (c *ruleClassifier) Name() string { return c.name }

func (c *ruleClassifier) Classify(text string) []Finding {
	var findings []Finding
	for _, r := range c.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			line, col := GetLineCol(text, loc[0])
			findings = append(findings, Finding{
				Category:    c.category,
				Description: r.description,
				Severity:    r.severity,
				Techniques:  r.techniques,
				Location:    fmt.Sprintf("%d:%d", line, col),
			})
		}
	}
	return findings
}

// NewNetworkClassifier detects network transport and download primitives.
func NewNetworkClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("network", catalog.CategoryNetwork, cat.Network)
}

// NewFileOpsClassifier detects file staging, write, and deletion idioms.
func NewFileOpsClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("file-ops", catalog.CategoryFileOps, cat.FileOps)
}

// NewRegistryOpsClassifier detects registry persistence and tampering.
func NewRegistryOpsClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("registry-ops", catalog.CategoryRegistry, cat.RegistryOps)
}

// NewProcessOpsClassifier detects process launch and proxy-execution idioms.
func NewProcessOpsClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("process-ops", catalog.CategoryProcess, cat.ProcessOps)
}

// NewMaliciousFunctionClassifier detects APIs with directly malicious intent:
// dynamic evaluation, injection primitives, credential dumping.
func NewMaliciousFunctionClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("malicious-function", catalog.CategoryMalicious, cat.Malicious)
}

// NewEvasionClassifier is the narrow defense-evasion rule set. It is kept
// separate from the malicious-function table so its false-positive rate can
// be tuned independently.
func NewEvasionClassifier(cat *catalog.Catalog) (Classifier, error) {
	return newRuleClassifier("evasion", catalog.CategoryEvasion, cat.Evasion)
}

// GetLineCol returns the 1-based line and column number for a byte offset.
func GetLineCol(content string, offset int) (int, int) {
	if offset < 0 || offset > len(content) {
		return 0, 0
	}
	line := 1
	col := 1
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
