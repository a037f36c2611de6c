package deobfuscate

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

// base64RunPattern matches runs of base64 alphabet characters long enough to
// be worth decoding. Short runs are overwhelmingly identifiers.
var base64RunPattern = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

// scriptMarkers is the allow-list a decoding must hit (case-insensitive) to
// be retained. Random binary that happens to decode as UTF-8 won't contain
// any of these.
var scriptMarkers = []string{
	"powershell", "http", "invoke", "cmd", "script",
	"function", "exec", "$", "set-", "new-object",
}

// Base64Engine scans for base64 runs, decodes each candidate, and keeps only
// decodings that are valid UTF-8 and look like scripting content.
type Base64Engine struct{}

func NewBase64Engine() *Base64Engine { return &Base64Engine{} }

func (e *Base64Engine) Name() string { return "base64" }

func (e *Base64Engine) Attempt(text string) Attempt {
	attempt := Attempt{Engine: e.Name(), Technique: catalog.TechniqueBase64}

	var recovered []string
	for _, candidate := range base64RunPattern.FindAllString(text, -1) {
		decoded, ok := decodeBase64(candidate)
		if !ok {
			continue
		}
		if !hasScriptMarker(decoded) {
			continue
		}
		recovered = append(recovered, decoded)
		attempt.Artifacts = append(attempt.Artifacts,
			fmt.Sprintf("decoded %d-char base64 run to %d bytes", len(candidate), len(decoded)))
	}

	if len(recovered) == 0 {
		return attempt
	}
	attempt.Success = true
	attempt.Recovered = strings.Join(recovered, "\n")
	attempt.Confidence = 0.9
	attempt.LayersRemoved = 1
	return attempt
}

// decodeBase64 decodes a candidate run, tolerating truncated padding. A run
// that cannot decode, or decodes to invalid UTF-8, is rejected; this is a
// soft miss, never an error.
func decodeBase64(s string) (string, bool) {
	s = strings.TrimRight(s, "=")
	if len(s)%4 == 1 {
		// A base64 stream can never leave a single trailing character;
		// drop it rather than reject the whole run.
		s = s[:len(s)-1]
	}
	raw, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	if looksUTF16LE(raw) {
		raw = stripUTF16LE(raw)
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

func hasScriptMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range scriptMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// PowerShell's -EncodedCommand is UTF-16LE: ASCII text with a zero high byte
// on every other position.
func looksUTF16LE(b []byte) bool {
	if len(b) < 4 || len(b)%2 != 0 {
		return false
	}
	zeros := 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	pairs := len(b) / 2
	return zeros*4 >= pairs*3 // at least 75% of high bytes are zero
}

func stripUTF16LE(b []byte) []byte {
	out := make([]byte, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		out = append(out, b[i])
	}
	return out
}
