package intel

import (
	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/catalog"
)

// TechniqueMapping groups all evidence gathered for one technique identifier.
type TechniqueMapping struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Tactic     string   `json:"tactic"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// TechniqueMap is keyed by technique identifier.
type TechniqueMap map[string]*TechniqueMapping

// Merge folds one piece of evidence into the map. Confidence combines as
// min(1, existing+new): an additive bound chosen as a conservative ceiling,
// not a probabilistic combination. Evidence lists concatenate without
// de-duplication, so repeated identical evidence is visible as repetition.
func (m TechniqueMap) Merge(id string, info catalog.TechniqueInfo, confidence float64, evidence string) {
	entry, ok := m[id]
	if !ok {
		entry = &TechniqueMapping{ID: id, Name: info.Name, Tactic: info.Tactic}
		m[id] = entry
	}
	entry.Confidence += confidence
	if entry.Confidence > 1 {
		entry.Confidence = 1
	}
	entry.Evidence = append(entry.Evidence, evidence)
}

// MapTechniques folds every finding's technique identifiers into a map,
// using the severity-derived confidence and the finding description as
// evidence. Identifiers missing from the catalogue index keep an empty name
// (the catalogue is data; an unknown id is not an error).
func MapTechniques(findings []analyzer.Finding, index map[string]catalog.TechniqueInfo) TechniqueMap {
	m := TechniqueMap{}
	for _, f := range findings {
		for _, id := range f.Techniques {
			m.Merge(id, index[id], f.Severity.Confidence(), f.Description)
		}
	}
	return m
}
