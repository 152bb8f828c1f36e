// Package report renders takeover chains as SVG charts, a standalone HTML
// report, and a plain-text tree for the terminal.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Fmazzesi/zefixtools/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 900)
	Height       int    // SVG height in pixels (default: 500, grows with the chain)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 30)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 30)
	RowHeight    int    // vertical space per firm label (default: 22)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // label color (default: "#333333")
	ErrorColor   string // label color of failed nodes (default: "#dc2626")
	FontSize     int    // label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        900,
		Height:       500,
		MarginTop:    40,
		MarginRight:  30,
		MarginBottom: 50,
		MarginLeft:   30,
		RowHeight:    22,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		ErrorColor:   "#dc2626",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Acquisition Chart
// ════════════════════════════════════════════════════════════════════

// AcquisitionChart draws a takeover chain with one column per hop count
// and the firms of each column stacked from the bottom in chain order.
// A faint connector links every firm to the firm that took it over.
// Nodes without a hop count are ignored.
func AcquisitionChart(nodes []models.Firm, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Acquisitions"
	}

	pos := layout(nodes)
	if len(pos) == 0 {
		return emptySVG(cfg, "No acquisitions")
	}

	maxHops, maxRow := 0, 0
	for _, p := range pos {
		if p.hops > maxHops {
			maxHops = p.hops
		}
		if p.row > maxRow {
			maxRow = p.row
		}
	}

	// grow the canvas so every label gets a row
	if need := cfg.MarginTop + cfg.MarginBottom + (maxRow+2)*cfg.RowHeight; need > cfg.Height {
		cfg.Height = need
	}
	px, py, pw, ph := cfg.plotArea()

	colW := float64(pw) / float64(maxHops+1)
	rowH := float64(ph) / float64(maxRow+2)
	xOf := func(hops int) float64 { return float64(px) + colW*(float64(hops)+0.5) }
	yOf := func(row int) float64 { return float64(py+ph) - rowH*(float64(row)+1) }
	maxChars := int(colW / (float64(cfg.FontSize) * 0.6))

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="24" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// X-axis: one integer tick per hop count
	for h := 0; h <= maxHops; h++ {
		x := xOf(h)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			x, py, x, py+ph, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%d</text>`,
			x, py+ph+16, cfg.FontSize, cfg.TextColor, h))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">Number of Hops</text>`,
		px+pw/2, py+ph+36, cfg.FontSize+1, cfg.TextColor))

	// Connectors
	for _, p := range pos {
		if p.parent < 0 {
			continue
		}
		q := pos[p.parent]
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			xOf(q.hops), yOf(q.row)+4, xOf(p.hops), yOf(p.row)+4, cfg.GridColor))
	}

	// Labels
	for _, p := range pos {
		color := cfg.TextColor
		if p.firm.Failed() {
			color = cfg.ErrorColor
		}
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="middle"><title>%s</title>%s</text>`,
			xOf(p.hops), yOf(p.row), cfg.FontSize, color,
			escapeXML(tooltip(p.firm)), escapeXML(fitLabel(nodeLabel(p.firm), maxChars))))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// placed is a chain node with its chart coordinates.
type placed struct {
	firm   models.Firm
	hops   int
	row    int // position within the hop column, 0 at the bottom
	parent int // index into the layout, -1 for the root
}

// layout assigns every hop-annotated node a row within its hop column and
// resolves its parent: in pre-order the parent is the closest earlier node
// one hop shallower.
func layout(nodes []models.Firm) []placed {
	var out []placed
	rows := map[int]int{}
	last := map[int]int{} // hops -> latest layout index at that depth
	for _, n := range nodes {
		h := n.HopCount()
		if h < 0 {
			continue
		}
		parent := -1
		if idx, ok := last[h-1]; ok && h > 0 {
			parent = idx
		}
		out = append(out, placed{firm: n, hops: h, row: rows[h], parent: parent})
		rows[h]++
		last[h] = len(out) - 1
	}
	return out
}

func nodeLabel(f models.Firm) string {
	if f.Name != "" {
		return f.Name
	}
	return f.EHRAID.String()
}

func tooltip(f models.Firm) string {
	parts := []string{nodeLabel(f), "ehraid " + f.EHRAID.String()}
	if f.LegalSeat != "" {
		parts = append(parts, f.LegalSeat)
	}
	if f.Status != "" {
		parts = append(parts, f.Status)
	}
	if f.FetchError != "" {
		parts = append(parts, "error: "+f.FetchError)
	}
	return strings.Join(parts, " | ")
}

// fitLabel shortens s to at most limit runes, marking the cut with "…".
func fitLabel(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}

// ════════════════════════════════════════════════════════════════════
// Bar Chart (Horizontal)
// ════════════════════════════════════════════════════════════════════

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional
}

// HopHistogram charts how many firms sit at each hop count.
func HopHistogram(nodes []models.Firm, cfg ChartConfig) string {
	counts := map[int]int{}
	maxHops := -1
	for _, n := range nodes {
		h := n.HopCount()
		if h < 0 {
			continue
		}
		counts[h]++
		if h > maxHops {
			maxHops = h
		}
	}
	items := make([]BarItem, 0, maxHops+1)
	for h := 0; h <= maxHops; h++ {
		items = append(items, BarItem{Label: fmt.Sprintf("hop %d", h), Value: float64(counts[h]), Color: "#2563eb"})
	}
	if cfg.Title == "" {
		cfg.Title = "Firms per Hop"
	}
	return HorizontalBarChart(items, cfg)
}

// HorizontalBarChart generates an SVG horizontal bar chart of
// non-negative values.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}

	title := cfg.Title
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
		cfg.Height = 60 + 34*len(items) + 40
		cfg.Title = title
	}
	cfg.MarginLeft = 120 // wider for labels
	if cfg.Title == "" {
		cfg.Title = "Comparison"
	}

	px, py, pw, ph := cfg.plotArea()

	maxVal := 0.0
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barH := float64(ph) / float64(len(items)) * 0.7
	if barH > 30 {
		barH = 30
	}
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="24" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = "#4caf50"
		}
		value := item.Value
		if value < 0 {
			value = 0
		}
		bw := (value / maxVal) * float64(pw-40)

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			px, by, bw, barH, color))

		// Label
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))

		// Value
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%g</text>`,
			float64(px)+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
