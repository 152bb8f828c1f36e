package report

// ReportTemplate is the HTML template for the takeover report.
// It is embedded as a Go constant; the charts are inlined SVG.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 1000px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .id-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }

  /* Summary bar */
  .summary-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .summary-item { text-align: center; }
  .summary-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .summary-item .value { font-size: 1rem; font-weight: 600; }

  /* Tables */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  tr.failed td { color: var(--red); }
  .hop-badge {
    display: inline-block;
    min-width: 22px;
    text-align: center;
    padding: 1px 6px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
    background: #dbeafe;
    color: var(--accent);
  }

  /* Chart container */
  .chart-container {
    margin: 12px 0;
    overflow-x: auto;
  }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1><span class="id-badge">{{.RootID}}</span> {{.RootName}}</h1>
    <p class="muted">{{.Title}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<!-- ═══════ SUMMARY ═══════ -->
<div class="summary-bar">
  <div class="summary-item"><div class="label">Firms</div><div class="value">{{.TotalFirms}}</div></div>
  <div class="summary-item"><div class="label">Max Hops</div><div class="value">{{.MaxHops}}</div></div>
  <div class="summary-item"><div class="label">Failed Fetches</div><div class="value">{{.FailureCount}}</div></div>
  {{if .Truncated}}<div class="summary-item"><div class="label">Not Expanded</div><div class="value">{{.Truncated}}</div></div>{{end}}
</div>

<!-- ═══════ CHARTS ═══════ -->
<div class="section">
  <h2>Acquisitions</h2>
  <div class="chart-container">{{.Chart}}</div>
  {{if .Histogram}}<div class="chart-container">{{.Histogram}}</div>{{end}}
</div>

<!-- ═══════ CHAIN ═══════ -->
<div class="section">
  <h2>Takeover Chain</h2>
  <table>
    <thead>
    <tr><th>Hops</th><th>Name</th><th>EHRAID</th><th>Seat</th><th>Legal Form</th><th>Status</th><th>Deleted</th></tr>
    </thead>
    <tbody>
    {{range .Rows}}
    <tr{{if .Error}} class="failed"{{end}}>
      <td><span class="hop-badge">{{.Hops}}</span></td>
      <td style="padding-left: {{.Indent}}px">{{if .Excerpt}}<a href="{{.Excerpt}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}{{if .Error}}<br><span class="muted">{{.Error}}</span>{{end}}</td>
      <td>{{.EHRAID}}</td>
      <td>{{.LegalSeat}}</td>
      <td>{{.LegalForm}}</td>
      <td>{{.Status}}</td>
      <td>{{.DeleteDate}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>

{{if .Failures}}
<!-- ═══════ FAILURES ═══════ -->
<div class="section">
  <h2>Failed Fetches</h2>
  <table>
    <thead><tr><th>EHRAID</th><th>Name</th><th>Hops</th><th>Outcome</th><th>Error</th></tr></thead>
    <tbody>
    {{range .Failures}}
    <tr><td>{{.EHRAID}}</td><td>{{.Name}}</td><td>{{.Hops}}</td><td>{{.Outcome}}</td><td>{{.Error}}</td></tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p>Source: Zefix, the Swiss central business name index. Generated on {{.GeneratedAt}}.</p>
</div>

</body>
</html>`
