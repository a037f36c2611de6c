// Package reporter renders an AnalysisResult for human or machine
// consumption. The pipeline itself never touches a writer; everything here
// is presentation.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/pipeline"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

const reportWidth = 74

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Reporter writes one result in one format.
type Reporter struct {
	writer      io.Writer
	format      Format
	minSeverity analyzer.Severity
}

// New creates a Reporter. minSeverity filters the findings section of the
// text and PDF renderings; JSON output always carries the full result.
func New(w io.Writer, format Format, minSeverity analyzer.Severity) *Reporter {
	return &Reporter{writer: w, format: format, minSeverity: minSeverity}
}

// Render writes the result.
func (r *Reporter) Render(res pipeline.Result) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(res)
	case FormatPDF:
		return r.renderPDF(res)
	default:
		return r.renderText(res)
	}
}

func (r *Reporter) renderJSON(res pipeline.Result) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func severityStyle(s analyzer.Severity) lipgloss.Style {
	switch s {
	case analyzer.SeverityCritical:
		return criticalStyle
	case analyzer.SeverityHigh:
		return highStyle
	case analyzer.SeverityMedium:
		return mediumStyle
	case analyzer.SeverityLow:
		return lowStyle
	default:
		return dimStyle
	}
}

func (r *Reporter) renderText(res pipeline.Result) error {
	var b strings.Builder
	rule := strings.Repeat("─", reportWidth)

	b.WriteString(titleStyle.Render("scriptscope analysis") + "\n")
	if res.RequestID != "" {
		b.WriteString(dimStyle.Render("request: "+res.RequestID) + "\n")
	}
	b.WriteString(dimStyle.Render("sha256:  "+res.Meta.SHA256) + "\n")
	b.WriteString(rule + "\n")

	// Verdict first.
	level := severityStyle(res.Risk.Level).Render(res.Risk.Level.String())
	b.WriteString(fmt.Sprintf("%s %s (score %.1f/100)\n",
		sectionStyle.Render("Risk:"), level, res.Risk.Score))
	for _, f := range res.Risk.Factors {
		b.WriteString(fmt.Sprintf("  %-22s weight %.1f  score %6.1f  -> %5.1f\n",
			f.Name, f.Weight, f.Score, f.Contribution))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Obfuscation") + "\n")
	b.WriteString(fmt.Sprintf("  detected: %v  confidence %.2f  complexity %.1f\n",
		res.Obfuscation.Detected, res.Obfuscation.Confidence, res.Obfuscation.ComplexityScore))
	b.WriteString(fmt.Sprintf("  entropy: overall %.2f  strings %.2f  identifiers %.2f  functions %.2f\n",
		res.Obfuscation.Entropy.Overall, res.Obfuscation.Entropy.Strings,
		res.Obfuscation.Entropy.Identifiers, res.Obfuscation.Entropy.FunctionNames))
	for _, f := range res.Obfuscation.Findings {
		b.WriteString(fmt.Sprintf("  - %s (%.2f)\n", f.Technique, f.Confidence))
	}
	b.WriteString("\n")

	if len(res.Attempts) > 0 {
		b.WriteString(sectionStyle.Render("Deobfuscation") + "\n")
		for _, a := range res.Attempts {
			status := dimStyle.Render("miss")
			if a.Success {
				status = lowStyle.Render(fmt.Sprintf("ok (%.2f, %d layer(s))", a.Confidence, a.LayersRemoved))
			}
			b.WriteString(fmt.Sprintf("  %-14s %s\n", a.Engine, status))
			for _, art := range a.Artifacts {
				b.WriteString(dimStyle.Render("      "+art) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if res.Framework != nil {
		b.WriteString(sectionStyle.Render("C2 framework") + "\n")
		b.WriteString(fmt.Sprintf("  %s (confidence %.2f)\n", res.Framework.Framework, res.Framework.Confidence))
		for _, m := range res.Framework.Matches {
			b.WriteString(fmt.Sprintf("    %s  %.2f  [%s]\n", m.Signature, m.Confidence, m.Location))
		}
		b.WriteString("\n")
	}

	if res.Beacon != nil {
		b.WriteString(sectionStyle.Render("Beacon configuration") + "\n")
		if len(res.Beacon.Servers) > 0 {
			b.WriteString("  servers: " + strings.Join(res.Beacon.Servers, ", ") + "\n")
		}
		if res.Beacon.SleepSeconds > 0 {
			b.WriteString(fmt.Sprintf("  sleep: %ds", res.Beacon.SleepSeconds))
			if res.Beacon.JitterPercent > 0 {
				b.WriteString(fmt.Sprintf("  jitter: %d%%", res.Beacon.JitterPercent))
			}
			b.WriteString("\n")
		}
		if res.Beacon.UserAgent != "" {
			b.WriteString("  user-agent: " + res.Beacon.UserAgent + "\n")
		}
		if res.Beacon.Protocol != "" {
			b.WriteString("  protocol: " + res.Beacon.Protocol + "\n")
		}
		b.WriteString("\n")
	}

	findings := analyzer.FilterByMinSeverity(res.Findings, r.minSeverity)
	if len(findings) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Findings (%d)", len(findings))) + "\n")
		for _, f := range findings {
			sev := severityStyle(f.Severity).Render(fmt.Sprintf("%-8s", f.Severity))
			b.WriteString(fmt.Sprintf("  %s %-20s %s", sev, f.Category, f.Description))
			if len(f.Techniques) > 0 {
				b.WriteString(dimStyle.Render("  [" + strings.Join(f.Techniques, ", ") + "]"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(res.IOCs) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Indicators (%d)", len(res.IOCs))) + "\n")
		for _, ioc := range res.IOCs {
			b.WriteString(fmt.Sprintf("  %-13s %-40s %.2f  %s\n",
				ioc.Type, ioc.Value, ioc.Confidence, dimStyle.Render(strings.Join(ioc.Sources, ","))))
		}
		b.WriteString("\n")
	}

	if len(res.Techniques) > 0 {
		ids := make([]string, 0, len(res.Techniques))
		for id := range res.Techniques {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString(sectionStyle.Render("Techniques") + "\n")
		for _, id := range ids {
			t := res.Techniques[id]
			b.WriteString(fmt.Sprintf("  %-10s %-55s %.2f\n", t.ID, t.Name, t.Confidence))
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Recommendations") + "\n")
	for _, rec := range res.Risk.Recommendations {
		b.WriteString("  * " + rec + "\n")
	}
	b.WriteString(rule + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("analyzer %s  engines: %s  took %s",
		res.Meta.Version, strings.Join(res.Meta.Engines, ","), res.Meta.Duration)) + "\n")

	_, err := io.WriteString(r.writer, b.String())
	return err
}
