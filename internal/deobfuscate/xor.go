package deobfuscate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

var (
	// Explicit XOR operator usage with a literal key operand.
	xorKeyPattern = regexp.MustCompile(`(?i)-bxor\s+(0x[0-9a-fA-F]+|\d+)`)

	// Inline byte arrays (0x41,0x42,...) that XOR loops typically decode.
	byteArrayPattern = regexp.MustCompile(`(?i)0x[0-9a-fA-F]{1,2}(?:\s*,\s*0x[0-9a-fA-F]{1,2}){7,}`)
)

// XOREngine detects XOR-operator usage, extracts the literal key operands as
// artifacts, and attempts real single-byte decryption: every inline byte
// array near the expression is XORed with each extracted key, and printable
// results are kept.
type XOREngine struct{}

func NewXOREngine() *XOREngine { return &XOREngine{} }

func (e *XOREngine) Name() string { return "xor" }

func (e *XOREngine) Attempt(text string) Attempt {
	attempt := Attempt{Engine: e.Name(), Technique: catalog.TechniqueXOR}

	keys := extractXORKeys(text)
	if len(keys) == 0 {
		return attempt
	}
	attempt.Success = true
	attempt.Confidence = 0.5
	for _, k := range keys {
		attempt.Artifacts = append(attempt.Artifacts, fmt.Sprintf("xor key literal: %d", k))
	}

	var recovered []string
	for _, arr := range byteArrayPattern.FindAllString(text, -1) {
		data := parseByteArray(arr)
		for _, key := range keys {
			plain := xorBytes(data, key)
			if isPrintable(plain) {
				recovered = append(recovered, string(plain))
				attempt.Artifacts = append(attempt.Artifacts,
					fmt.Sprintf("decrypted %d-byte array with key %d", len(data), key))
			}
		}
	}

	if len(recovered) > 0 {
		attempt.Recovered = strings.Join(recovered, "\n")
		attempt.Confidence = 0.85
		attempt.LayersRemoved = 1
	}
	return attempt
}

func extractXORKeys(text string) []byte {
	var keys []byte
	seen := map[byte]bool{}
	for _, m := range xorKeyPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(m[1]), "0x"), parseBase(m[1]), 16)
		if err != nil || v > 0xff {
			continue
		}
		k := byte(v)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func parseBase(lit string) int {
	if strings.HasPrefix(strings.ToLower(lit), "0x") {
		return 16
	}
	return 10
}

func parseByteArray(arr string) []byte {
	var data []byte
	for _, part := range strings.Split(arr, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.ToLower(part)), "0x"))
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			continue
		}
		data = append(data, byte(v))
	}
	return data
}

func xorBytes(data []byte, key byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key
	}
	return out
}

// isPrintable accepts buffers that are overwhelmingly printable ASCII, the
// usual shape of a decrypted command line.
func isPrintable(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	printable := 0
	for _, c := range b {
		if c == '\t' || c == '\n' || c == '\r' || (c >= 0x20 && c < 0x7f) {
			printable++
		}
	}
	return printable*10 >= len(b)*9
}
