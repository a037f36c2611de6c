package c2

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// BeaconConfig is a best-effort beacon configuration mined from the text.
// Every field is independently optional; the extractor emits a record as
// soon as any one field is populated.
type BeaconConfig struct {
	Servers       []string `json:"servers,omitempty"`
	SleepSeconds  int      `json:"sleep_seconds,omitempty"`
	JitterPercent int      `json:"jitter_percent,omitempty"`
	UserAgent     string   `json:"user_agent,omitempty"`
	Protocol      string   `json:"protocol,omitempty"`
}

var (
	ipv4Pattern      = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	urlPattern       = regexp.MustCompile(`(?i)\b(https?|dns|smb)://([A-Za-z0-9][A-Za-z0-9.-]*)`)
	sleepPattern     = regexp.MustCompile(`(?i)\bsleep\s+(\d+)`)
	jitterPattern    = regexp.MustCompile(`(?i)\bjitter[\s:=]+(\d{1,3})`)
	userAgentPattern = regexp.MustCompile(`(?i)user-agent[:\s]+([^\r\n'")]+)`)
)

// ExtractBeacon mines the original text and all recovered fragments for
// beacon configuration. Returns nil when nothing was found; partial results
// are valid.
func ExtractBeacon(texts []string) *BeaconConfig {
	cfg := &BeaconConfig{}
	seen := map[string]bool{}

	for _, text := range texts {
		for _, ip := range ipv4Pattern.FindAllString(text, -1) {
			if net.ParseIP(ip) == nil || seen[ip] {
				continue
			}
			seen[ip] = true
			cfg.Servers = append(cfg.Servers, ip)
		}
		for _, m := range urlPattern.FindAllStringSubmatch(text, -1) {
			if cfg.Protocol == "" {
				cfg.Protocol = strings.ToLower(m[1])
			}
			host := m[2]
			if seen[host] {
				continue
			}
			seen[host] = true
			cfg.Servers = append(cfg.Servers, host)
		}
		if cfg.SleepSeconds == 0 {
			if m := sleepPattern.FindStringSubmatch(text); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					cfg.SleepSeconds = v
				}
			}
		}
		if cfg.JitterPercent == 0 {
			if m := jitterPattern.FindStringSubmatch(text); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil && v <= 100 {
					cfg.JitterPercent = v
				}
			}
		}
		if cfg.UserAgent == "" {
			if m := userAgentPattern.FindStringSubmatch(text); m != nil {
				cfg.UserAgent = strings.TrimSpace(m[1])
			}
		}
	}

	if len(cfg.Servers) == 0 && cfg.SleepSeconds == 0 && cfg.JitterPercent == 0 &&
		cfg.UserAgent == "" && cfg.Protocol == "" {
		return nil
	}
	return cfg
}
