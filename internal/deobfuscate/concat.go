package deobfuscate

import (
	"fmt"
	"regexp"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

// The pair patterns match two same-quoted literals joined by +, one pattern
// per quote type since the two bodies must not be conflated. Folding is
// re-applied to its own output so chains like 'a'+'b'+'c' collapse fully,
// bounded by maxConcatPasses. Mixed-quote concatenation is left alone.
var (
	singleQuotePairPattern = regexp.MustCompile(`'([^']*)'\s*\+\s*'([^']*)'`)
	doubleQuotePairPattern = regexp.MustCompile(`"([^"]*)"\s*\+\s*"([^"]*)"`)
)

const maxConcatPasses = 10

// ConcatEngine folds adjacent string-literal concatenations into single
// literals, defeating the split-keyword trick ('Inv'+'oke').
type ConcatEngine struct{}

func NewConcatEngine() *ConcatEngine { return &ConcatEngine{} }

func (e *ConcatEngine) Name() string { return "string-concat" }

func (e *ConcatEngine) Attempt(text string) Attempt {
	attempt := Attempt{Engine: e.Name(), Technique: catalog.TechniqueStringConcat}

	folded := text
	passes := 0
	for ; passes < maxConcatPasses; passes++ {
		next := singleQuotePairPattern.ReplaceAllString(folded, `'$1$2'`)
		next = doubleQuotePairPattern.ReplaceAllString(next, `"$1$2"`)
		if next == folded {
			break
		}
		folded = next
	}

	if passes == 0 {
		return attempt
	}
	attempt.Success = true
	attempt.Recovered = folded
	attempt.Confidence = 0.7
	attempt.LayersRemoved = passes
	attempt.Artifacts = append(attempt.Artifacts,
		fmt.Sprintf("folded string concatenations in %d passes", passes))
	return attempt
}
