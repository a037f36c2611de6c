// Package intel normalizes analysis artifacts into indicators of compromise
// and folds classified findings into a technique map.
package intel

import (
	"net"
	"regexp"
	"sort"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/c2"
	"github.com/0xlayer/scriptscope/internal/catalog"
)

// IOCType tags the kind of artifact an indicator describes.
type IOCType string

const (
	IOCTypeIP          IOCType = "ip_address"
	IOCTypeDomain      IOCType = "domain"
	IOCTypeURL         IOCType = "url"
	IOCTypeFilePath    IOCType = "file_path"
	IOCTypeRegistryKey IOCType = "registry_key"
	IOCTypeUserAgent   IOCType = "user_agent"
)

// IOC is one normalized indicator of compromise. Sources records which
// pipeline stages surfaced the value; the same value may legitimately appear
// once per stage, tagged with its provenance.
type IOC struct {
	Type       IOCType  `json:"type"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"`
	Context    string   `json:"context,omitempty"`
	Sources    []string `json:"sources"`
}

var (
	iocURLPattern      = regexp.MustCompile(`(?i)\bhttps?://[^\s'")\]]+`)
	iocFilePathPattern = regexp.MustCompile(`(?i)(?:\b[A-Za-z]:\\|\\\\|%\w+%\\)[\w\\.\- %$]+`)
	iocRegistryPattern = regexp.MustCompile(`(?i)\bHK(?:LM|CU|EY_[A-Z_]+)[:\\][\w\\ .-]+`)
)

// Aggregate converts every typed artifact from the detection stages into IOC
// records. The original text is texts[0]; recovered fragments follow.
// Values are not de-duplicated across stages: the same endpoint may appear
// from the beacon extractor and the lexical scan, each under its own
// provenance tag. Output order is deterministic for a given input.
func Aggregate(texts []string, beacon *c2.BeaconConfig, findings []analyzer.Finding) []IOC {
	var iocs []IOC
	add := func(t IOCType, value, context string, confidence float64, sources ...string) {
		iocs = append(iocs, IOC{
			Type:       t,
			Value:      value,
			Confidence: confidence,
			Context:    context,
			Sources:    sources,
		})
	}

	if beacon != nil {
		for _, server := range beacon.Servers {
			typ := IOCTypeDomain
			if net.ParseIP(server) != nil {
				typ = IOCTypeIP
			}
			add(typ, server, "beacon candidate server", 0.8, "beacon-extractor")
		}
		if beacon.UserAgent != "" {
			add(IOCTypeUserAgent, beacon.UserAgent, "beacon user agent", 0.6, "beacon-extractor")
		}
	}

	// Classifier findings raise the provenance (and confidence) of matching
	// artifact classes mined from the text.
	hasFileFindings := hasCategory(findings, catalog.CategoryFileOps)
	hasRegFindings := hasCategory(findings, catalog.CategoryRegistry)

	seen := map[string]bool{}
	for _, text := range texts {
		for _, url := range iocURLPattern.FindAllString(text, -1) {
			if seen["url:"+url] {
				continue
			}
			seen["url:"+url] = true
			add(IOCTypeURL, url, "embedded URL", 0.7, "lexical-scan")
		}
		for _, path := range iocFilePathPattern.FindAllString(text, -1) {
			if seen["path:"+path] {
				continue
			}
			seen["path:"+path] = true
			if hasFileFindings {
				add(IOCTypeFilePath, path, "referenced file path", 0.6, "lexical-scan", "file-ops-classifier")
			} else {
				add(IOCTypeFilePath, path, "referenced file path", 0.4, "lexical-scan")
			}
		}
		for _, key := range iocRegistryPattern.FindAllString(text, -1) {
			if seen["reg:"+key] {
				continue
			}
			seen["reg:"+key] = true
			if hasRegFindings {
				add(IOCTypeRegistryKey, key, "referenced registry key", 0.6, "lexical-scan", "registry-classifier")
			} else {
				add(IOCTypeRegistryKey, key, "referenced registry key", 0.4, "lexical-scan")
			}
		}
	}

	// Stable ordering: by type, then value, preserving per-stage provenance.
	sort.SliceStable(iocs, func(i, j int) bool {
		if iocs[i].Type != iocs[j].Type {
			return iocs[i].Type < iocs[j].Type
		}
		return iocs[i].Value < iocs[j].Value
	})
	return iocs
}

func hasCategory(findings []analyzer.Finding, category string) bool {
	for _, f := range findings {
		if f.Category == category {
			return true
		}
	}
	return false
}
