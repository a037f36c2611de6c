package deobfuscate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

var (
	// [char]73+[char]69+[char]88 style character building.
	charCastChainPattern = regexp.MustCompile(`(?i)\[char\]\s*(\d{1,3})(?:\s*[+,]\s*\[char\]\s*(\d{1,3}))+`)
	charCastPattern      = regexp.MustCompile(`(?i)\[char\]\s*(\d{1,3})`)

	// Runs of \xNN escapes.
	hexEscapeRunPattern = regexp.MustCompile(`(?:\\x[0-9a-fA-F]{2}){4,}`)
	hexEscapePattern    = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
)

// CharCodeEngine rebuilds strings assembled from character codes: PowerShell
// [char]N chains and \xNN escape runs.
type CharCodeEngine struct{}

func NewCharCodeEngine() *CharCodeEngine { return &CharCodeEngine{} }

func (e *CharCodeEngine) Name() string { return "char-code" }

func (e *CharCodeEngine) Attempt(text string) Attempt {
	attempt := Attempt{Engine: e.Name(), Technique: catalog.TechniqueCharCode}

	var recovered []string
	for _, chain := range charCastChainPattern.FindAllString(text, -1) {
		var sb strings.Builder
		for _, m := range charCastPattern.FindAllStringSubmatch(chain, -1) {
			code, err := strconv.Atoi(m[1])
			if err != nil || code > 255 {
				continue
			}
			sb.WriteByte(byte(code))
		}
		if s := sb.String(); isPrintable([]byte(s)) {
			recovered = append(recovered, s)
			attempt.Artifacts = append(attempt.Artifacts,
				fmt.Sprintf("rebuilt %d-char string from [char] chain", len(s)))
		}
	}

	for _, run := range hexEscapeRunPattern.FindAllString(text, -1) {
		var sb strings.Builder
		for _, m := range hexEscapePattern.FindAllStringSubmatch(run, -1) {
			v, err := strconv.ParseUint(m[1], 16, 8)
			if err != nil {
				continue
			}
			sb.WriteByte(byte(v))
		}
		if s := sb.String(); isPrintable([]byte(s)) {
			recovered = append(recovered, s)
			attempt.Artifacts = append(attempt.Artifacts,
				fmt.Sprintf("decoded %d-char string from hex escapes", len(s)))
		}
	}

	if len(recovered) == 0 {
		return attempt
	}
	attempt.Success = true
	attempt.Recovered = strings.Join(recovered, "\n")
	attempt.Confidence = 0.65
	attempt.LayersRemoved = 1
	return attempt
}
