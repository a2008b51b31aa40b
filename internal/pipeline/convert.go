package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/calibrae/mercator/internal/models"
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Market Intelligence Report - %s</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 2em auto; padding: 0 1em; color: #24292e; line-height: 1.6; }
h1, h2, h3 { border-bottom: 1px solid #eaecef; padding-bottom: 0.3em; }
img { max-width: 100%%; }
hr { border: 0; border-top: 1px solid #eaecef; }
</style>
</head>
<body>
%s
</body>
</html>
`

// ReportConverter produces the HTML rendering and the PDF summary of the
// assembled report. Conversion failures are logged; the markdown report is
// the authoritative artifact either way.
type ReportConverter struct {
	md     goldmark.Markdown
	logger arbor.ILogger
}

func NewReportConverter(logger arbor.ILogger) *ReportConverter {
	return &ReportConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		logger: logger,
	}
}

// Convert writes the HTML report and PDF summary next to the markdown report
// and registers both for download.
func (c *ReportConverter) Convert(state *models.AnalysisState, markdown string) {
	if path, err := c.writeHTML(state, markdown); err != nil {
		c.logger.Error().Err(err).Msg("Failed to convert report to HTML")
	} else {
		state.RegisterDownload("report_html", path)
	}

	if path, err := c.writePDF(state); err != nil {
		c.logger.Error().Err(err).Msg("Failed to generate PDF summary")
	} else {
		state.RegisterDownload("report_pdf", path)
	}
}

func (c *ReportConverter) writeHTML(state *models.AnalysisState, markdown string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}

	path := filepath.Join(state.ReportDir, "market_intelligence_report.html")
	page := fmt.Sprintf(htmlPage, state.MarketDomain, buf.String())
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (c *ReportConverter) writePDF(state *models.AnalysisState) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, fmt.Sprintf("Market Intelligence Report - %s", state.MarketDomain), "", "L", false)
	pdf.Ln(2)

	query := state.Query
	if query == "" {
		query = "General Analysis"
	}
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Generated on %s", time.Now().Format("January 2, 2006")), "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Query: %s", query), "", "L", false)
	pdf.Ln(4)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, title, "", "L", false)
		pdf.SetFont("Arial", "", 9)
	}
	item := func(name, detail string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.MultiCell(0, 5, name, "", "L", false)
		pdf.SetFont("Arial", "", 9)
		if detail != "" {
			pdf.MultiCell(0, 5, detail, "", "L", false)
		}
		pdf.Ln(1)
	}

	if len(state.Trends) > 0 {
		section("Key Market Trends")
		for _, trend := range capFive(state.Trends) {
			item(trend.Name, trend.Description)
		}
		pdf.Ln(2)
	}
	if len(state.Opportunities) > 0 {
		section("Market Opportunities")
		for _, opp := range capFive(state.Opportunities) {
			item(opp.Name, opp.Description)
		}
		pdf.Ln(2)
	}
	if len(state.Strategies) > 0 {
		section("Strategic Recommendations")
		for _, strategy := range capFive(state.Strategies) {
			item(strategy.Title, strategy.Description)
		}
		pdf.Ln(2)
	}
	if len(state.Segments) > 0 {
		section("Customer Segments")
		for _, segment := range capFive(state.Segments) {
			item(segment.Name, segment.Description)
		}
	}

	path := filepath.Join(state.ReportDir, "market_intelligence_report.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
