package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("built-in catalogue must compile: %v", err)
	}
}

func TestLoadWithoutOverlay(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(cat.Signatures) == 0 || len(cat.Malicious) == 0 {
		t.Error("expected built-in tables to be populated")
	}
}

func TestLoadOverlayAppends(t *testing.T) {
	overlay := `
signatures:
  - name: custom-rat
    framework: CustomRAT
    patterns: ['(?i)customrat']
    threshold: 0.5
malicious:
  - pattern: '(?i)do-evil'
    description: Custom evil cmdlet
    severity: high
    techniques: [T1059.001]
techniques:
  T9999: {name: Made Up, tactic: Testing}
`
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	base := len(Default().Signatures)
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load overlay failed: %v", err)
	}
	if len(cat.Signatures) != base+1 {
		t.Errorf("expected %d signatures, got %d", base+1, len(cat.Signatures))
	}
	if _, ok := cat.Techniques["T9999"]; !ok {
		t.Error("overlay technique index entry not merged")
	}
}

func TestLoadRejectsBadPattern(t *testing.T) {
	overlay := `
network:
  - pattern: '(unclosed'
    description: broken
    severity: low
`
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected configuration error for malformed pattern")
	}
	if !strings.Contains(err.Error(), "unclosed") {
		t.Errorf("error should name the bad pattern: %v", err)
	}
}
