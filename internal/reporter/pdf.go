package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/0xlayer/scriptscope/internal/analyzer"
	"github.com/0xlayer/scriptscope/internal/pipeline"
)

func (r *Reporter) renderPDF(res pipeline.Result) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	red := []int{215, 58, 73}
	gray := []int{106, 115, 125}
	dark := []int{36, 41, 46}
	green := []int{40, 167, 69}

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(dark[0], dark[1], dark[2])
	pdf.Cell(0, 12, "Script Threat Analysis")
	pdf.Ln(12)

	// Summary card
	pdf.SetFillColor(246, 248, 250)
	pdf.Rect(10, pdf.GetY(), 190, 22, "F")
	pdf.SetY(pdf.GetY() + 3)
	pdf.SetFont("Arial", "B", 11)
	if res.RequestID != "" {
		pdf.Cell(0, 6, "  Request: "+res.RequestID)
		pdf.Ln(6)
	}
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "  SHA-256: "+res.Meta.SHA256)
	pdf.Ln(10)

	// Verdict
	pdf.SetFont("Arial", "B", 13)
	if res.Risk.Level >= analyzer.SeverityHigh {
		pdf.SetTextColor(red[0], red[1], red[2])
	} else if res.Risk.Level <= analyzer.SeverityLow {
		pdf.SetTextColor(green[0], green[1], green[2])
	}
	pdf.Cell(0, 8, fmt.Sprintf("Risk: %s (%.1f/100)", res.Risk.Level, res.Risk.Score))
	pdf.Ln(10)
	pdf.SetTextColor(dark[0], dark[1], dark[2])

	pdf.SetFont("Arial", "", 10)
	for _, f := range res.Risk.Factors {
		pdf.Cell(0, 5, fmt.Sprintf("%s: score %.1f x weight %.1f = %.1f",
			f.Name, f.Score, f.Weight, f.Contribution))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(dark[0], dark[1], dark[2])
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
	}

	section("Obfuscation")
	pdf.Cell(0, 5, fmt.Sprintf("detected: %v   confidence: %.2f   entropy: %.2f   complexity: %.1f",
		res.Obfuscation.Detected, res.Obfuscation.Confidence,
		res.Obfuscation.Entropy.Overall, res.Obfuscation.ComplexityScore))
	pdf.Ln(5)
	for _, f := range res.Obfuscation.Findings {
		pdf.Cell(0, 5, fmt.Sprintf("- %s (%.2f)", f.Technique, f.Confidence))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	if res.Framework != nil {
		section("C2 Framework")
		pdf.SetTextColor(red[0], red[1], red[2])
		pdf.Cell(0, 5, fmt.Sprintf("%s (confidence %.2f)", res.Framework.Framework, res.Framework.Confidence))
		pdf.Ln(5)
		pdf.SetTextColor(dark[0], dark[1], dark[2])
	}

	if res.Beacon != nil {
		section("Beacon Configuration")
		if len(res.Beacon.Servers) > 0 {
			pdf.Cell(0, 5, "servers: "+strings.Join(res.Beacon.Servers, ", "))
			pdf.Ln(5)
		}
		if res.Beacon.SleepSeconds > 0 {
			pdf.Cell(0, 5, fmt.Sprintf("sleep: %ds  jitter: %d%%", res.Beacon.SleepSeconds, res.Beacon.JitterPercent))
			pdf.Ln(5)
		}
		if res.Beacon.UserAgent != "" {
			pdf.Cell(0, 5, "user-agent: "+res.Beacon.UserAgent)
			pdf.Ln(5)
		}
	}

	findings := analyzer.FilterByMinSeverity(res.Findings, r.minSeverity)
	if len(findings) > 0 {
		section(fmt.Sprintf("Findings (%d)", len(findings)))
		for _, f := range findings {
			if f.Severity >= analyzer.SeverityHigh {
				pdf.SetTextColor(red[0], red[1], red[2])
			} else {
				pdf.SetTextColor(gray[0], gray[1], gray[2])
			}
			pdf.Cell(0, 5, fmt.Sprintf("[%s] %s: %s", f.Severity, f.Category, f.Description))
			pdf.Ln(5)
		}
		pdf.SetTextColor(dark[0], dark[1], dark[2])
	}

	if len(res.IOCs) > 0 {
		section(fmt.Sprintf("Indicators of Compromise (%d)", len(res.IOCs)))
		for _, ioc := range res.IOCs {
			pdf.Cell(0, 5, fmt.Sprintf("%s  %s  (%.2f, %s)",
				ioc.Type, ioc.Value, ioc.Confidence, strings.Join(ioc.Sources, ",")))
			pdf.Ln(5)
		}
	}

	section("Recommendations")
	for _, rec := range res.Risk.Recommendations {
		pdf.MultiCell(0, 5, "- "+rec, "", "L", false)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(gray[0], gray[1], gray[2])
	pdf.CellFormat(0, 10, fmt.Sprintf("scriptscope %s - generated %s",
		res.Meta.Version, time.Now().UTC().Format(time.RFC3339)), "", 0, "C", false, 0, "")

	return pdf.Output(r.writer)
}
