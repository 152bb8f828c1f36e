package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/Fmazzesi/zefixtools/internal/firms"
	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Title         string      // custom report title (optional)
	Author        string      // author line (default: "zefixtools")
	ShowHistogram bool        // include the firms-per-hop chart
	ChartCfg      ChartConfig // acquisition chart rendering config
	Now           time.Time   // report timestamp (default: time.Now())
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Title:         "Takeover Report",
		Author:        "zefixtools",
		ShowHistogram: true,
		ChartCfg:      DefaultChartConfig(),
	}
}

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title        string
	Author       string
	GeneratedAt  string
	RootID       string
	RootName     string
	TotalFirms   int
	MaxHops      int
	FailureCount int
	Truncated    int

	Chart     template.HTML
	Histogram template.HTML

	Rows     []FirmRow
	Failures []FailureRow
}

// FirmRow is one chain node flattened for rendering.
type FirmRow struct {
	Hops       int
	Indent     int // px, grows with hops
	Name       string
	EHRAID     string
	LegalSeat  string
	LegalForm  string
	Status     string
	DeleteDate string
	Excerpt    string
	Error      string
}

// FailureRow is one failed fetch flattened for rendering.
type FailureRow struct {
	EHRAID  string
	Name    string
	Hops    string
	Outcome string
	Error   string
}

// GenerateHTML renders a takeover chain as a standalone HTML page.
func GenerateHTML(chain *firms.Chain, cfg ReportConfig) (string, error) {
	if chain == nil || len(chain.Nodes) == 0 {
		return "", fmt.Errorf("report: empty takeover chain")
	}

	data := buildReportData(chain, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// GenerateText renders a takeover chain as an indented tree (terminal friendly).
func GenerateText(chain *firms.Chain, cfg ReportConfig) (string, error) {
	if chain == nil || len(chain.Nodes) == 0 {
		return "", fmt.Errorf("report: empty takeover chain")
	}

	data := buildReportData(chain, cfg)
	return renderTextReport(data), nil
}

// ════════════════════════════════════════════════════════════════════
// Internal: build template data
// ════════════════════════════════════════════════════════════════════

func buildReportData(chain *firms.Chain, cfg ReportConfig) ReportData {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	if cfg.Author == "" {
		cfg.Author = "zefixtools"
	}
	root := chain.Nodes[0]

	data := ReportData{
		Title:        cfg.Title,
		Author:       cfg.Author,
		GeneratedAt:  now.Format("02 Jan 2006, 15:04 MST"),
		RootID:       chain.Root.String(),
		RootName:     root.Name,
		TotalFirms:   len(chain.Nodes),
		MaxHops:      chain.MaxHops(),
		FailureCount: len(chain.Failures),
		Truncated:    chain.Truncated,
	}
	if data.Title == "" {
		data.Title = "Takeover Report"
	}

	// the SVG is generated from escaped strings only
	data.Chart = template.HTML(AcquisitionChart(chain.Nodes, cfg.ChartCfg))
	if cfg.ShowHistogram && data.MaxHops > 0 {
		data.Histogram = template.HTML(HopHistogram(chain.Nodes, ChartConfig{}))
	}

	for _, n := range chain.Nodes {
		hops := n.HopCount()
		if hops < 0 {
			hops = 0
		}
		data.Rows = append(data.Rows, FirmRow{
			Hops:       hops,
			Indent:     8 + 16*hops,
			Name:       nodeLabel(n),
			EHRAID:     n.EHRAID.String(),
			LegalSeat:  n.LegalSeat,
			LegalForm:  n.LegalForm,
			Status:     n.Status,
			DeleteDate: n.DeleteDate,
			Excerpt:    n.CantonalExcerptWeb,
			Error:      n.FetchError,
		})
	}
	for _, f := range chain.Failures {
		data.Failures = append(data.Failures, flattenFailure(f))
	}
	return data
}

func flattenFailure(f models.FetchFailure) FailureRow {
	row := FailureRow{
		EHRAID:  f.EHRAID.String(),
		Name:    f.Name,
		Outcome: f.Outcome,
		Error:   f.Error,
	}
	if f.Hops != nil {
		row.Hops = strconv.Itoa(*f.Hops)
	}
	return row
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  %s: %s (%s)\n", d.Title, d.RootName, d.RootID))
	sb.WriteString(fmt.Sprintf("  Firms: %d | Max hops: %d | Failed: %d", d.TotalFirms, d.MaxHops, d.FailureCount))
	if d.Truncated > 0 {
		sb.WriteString(fmt.Sprintf(" | Not expanded: %d", d.Truncated))
	}
	sb.WriteString("\n" + thinLine + "\n")

	for i, r := range d.Rows {
		prefix := ""
		if i > 0 && r.Hops > 0 {
			prefix = strings.Repeat("  ", r.Hops-1) + "└─ "
		}
		sb.WriteString(fmt.Sprintf("  %s%s (%s)", prefix, r.Name, r.EHRAID))
		var tags []string
		for _, t := range []string{r.LegalForm, r.Status} {
			if t != "" {
				tags = append(tags, t)
			}
		}
		if r.DeleteDate != "" {
			tags = append(tags, "deleted "+r.DeleteDate)
		}
		if len(tags) > 0 {
			sb.WriteString(" [" + strings.Join(tags, ", ") + "]")
		}
		if r.Error != "" {
			sb.WriteString(" !! " + r.Error)
		}
		sb.WriteString("\n")
	}

	if len(d.Failures) > 0 {
		sb.WriteString(thinLine + "\n")
		sb.WriteString("  Failed fetches:\n")
		for _, f := range d.Failures {
			sb.WriteString(fmt.Sprintf("    %s %s: %s\n", f.EHRAID, f.Name, f.Error))
		}
	}
	sb.WriteString(line + "\n")
	return sb.String()
}
