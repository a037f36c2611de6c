package deobfuscate

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
)

func TestXOREngine(t *testing.T) {
	t.Run("key extraction and decryption", func(t *testing.T) {
		// "powershell" XORed with 0x42.
		enc := make([]string, 0, 10)
		for _, c := range []byte("powershell") {
			enc = append(enc, fmt.Sprintf("0x%02x", c^0x42))
		}
		text := fmt.Sprintf(`$b = %s; $p = $b -bxor 0x42`, strings.Join(enc, ","))

		attempt := NewXOREngine().Attempt(text)
		if !attempt.Success {
			t.Fatalf("attempt failed: %+v", attempt)
		}
		if !strings.Contains(attempt.Recovered, "powershell") {
			t.Errorf("recovered = %q, want decrypted payload", attempt.Recovered)
		}
		if len(attempt.Artifacts) == 0 || !strings.Contains(attempt.Artifacts[0], "66") {
			t.Errorf("artifacts should record the key literal 66: %v", attempt.Artifacts)
		}
	})

	t.Run("key only, nothing to decrypt", func(t *testing.T) {
		attempt := NewXOREngine().Attempt(`$x = $data -bxor 7`)
		if !attempt.Success {
			t.Fatal("key extraction alone still counts as success")
		}
		if attempt.Recovered != "" {
			t.Errorf("nothing should be recovered, got %q", attempt.Recovered)
		}
		if attempt.Confidence != 0.5 {
			t.Errorf("confidence = %f, want 0.5 for key-only", attempt.Confidence)
		}
	})

	t.Run("no xor syntax", func(t *testing.T) {
		if attempt := NewXOREngine().Attempt(`Write-Host 1`); attempt.Success {
			t.Errorf("expected soft miss, got %+v", attempt)
		}
	})
}

func TestConcatEngine(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSuccess bool
		wantFolded  string
	}{
		{
			"two literals",
			`$c = 'Inv' + 'oke-Expression'`,
			true,
			`'Invoke-Expression'`,
		},
		{
			"chained literals",
			`$c = 'pow' + 'ers' + 'hell'`,
			true,
			`'powershell'`,
		},
		{
			"double-quoted literals",
			`$c = "Down" + "loadString"`,
			true,
			`"DownloadString"`,
		},
		{
			"mixed quotes left alone",
			`$c = 'Inv' + "oke"`,
			false,
			"",
		},
		{
			"no concatenation",
			`$c = 'whole string'`,
			false,
			"",
		},
	}

	e := NewConcatEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := e.Attempt(tt.text)
			if attempt.Success != tt.wantSuccess {
				t.Fatalf("success = %v, want %v (%+v)", attempt.Success, tt.wantSuccess, attempt)
			}
			if tt.wantSuccess && !strings.Contains(attempt.Recovered, tt.wantFolded) {
				t.Errorf("recovered = %q, want to contain %q", attempt.Recovered, tt.wantFolded)
			}
		})
	}
}

func TestCharCodeEngine(t *testing.T) {
	attempt := NewCharCodeEngine().Attempt(`$s = [char]73+[char]69+[char]88+[char]32`)
	if !attempt.Success {
		t.Fatalf("attempt failed: %+v", attempt)
	}
	if !strings.Contains(attempt.Recovered, "IEX") {
		t.Errorf("recovered = %q, want IEX", attempt.Recovered)
	}

	attempt = NewCharCodeEngine().Attempt(`const a = "\x65\x76\x61\x6c"`)
	if !attempt.Success || !strings.Contains(attempt.Recovered, "eval") {
		t.Errorf("hex escapes: got %+v, want eval", attempt)
	}
}

func TestRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	want := []string{"base64", "xor", "string-concat", "char-code"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRunRecursiveUnwrapsLayers(t *testing.T) {
	// Layer 1: the base64 run is split by string concatenation, so the
	// base64 engine misses on the raw text. Folding reassembles the run;
	// the recursive pass then decodes it.
	encoded := base64.StdEncoding.EncodeToString([]byte("powershell -nop -w hidden"))
	text := fmt.Sprintf(`$s = '%s' + '%s'; IEX $s`, encoded[:11], encoded[11:])

	attempts := DefaultRegistry().RunRecursive(text)
	texts := RecoveredTexts(attempts)

	var decoded bool
	for _, rt := range texts {
		if strings.Contains(rt, "powershell -nop -w hidden") {
			decoded = true
		}
	}
	if !decoded {
		t.Errorf("recursive pass did not surface the inner payload; recovered: %q", texts)
	}
}

func TestRunRecursiveTerminatesOnSelfReference(t *testing.T) {
	// A fragment that keeps "recovering" itself must not loop: the fold
	// result is hashed and skipped once seen.
	text := `$a = 'x' + 'y'; $b = 'x' + 'y'`
	attempts := DefaultRegistry().RunRecursive(text)
	if len(attempts) > 3*len(DefaultRegistry().Names())*maxRecursionDepth {
		t.Errorf("suspiciously many attempts (%d); recursion may not be bounded", len(attempts))
	}
}

func TestRecoveredTextsDeduplicates(t *testing.T) {
	attempts := []Attempt{
		{Engine: "a", Success: true, Recovered: "same"},
		{Engine: "b", Success: true, Recovered: "same"},
		{Engine: "c", Success: false, Recovered: ""},
		{Engine: "d", Success: true, Recovered: "other"},
	}
	texts := RecoveredTexts(attempts)
	if len(texts) != 2 || texts[0] != "same" || texts[1] != "other" {
		t.Errorf("texts = %v, want [same other]", texts)
	}
}
