package service

import (
	"html/template"
	"io"

	"github.com/vitals-dev/vitals/domain"
)

// htmlScanData represents the data for the HTML report template
type htmlScanData struct {
	GeneratedAt string
	Version     string
	Archetype   string
	Fingerprint string
	Density     float64
	Summary     domain.ScanSummary
	Profile     []htmlCategoryShare
	Modules     []domain.ModuleRecord
	Issues      []domain.Issue
}

// htmlCategoryShare is a category profile entry with a precomputed
// percentage, in display order
type htmlCategoryShare struct {
	Category domain.Category
	Percent  float64
}

// htmlModuleCap bounds the module table so reports from large scans
// stay readable
const htmlModuleCap = 50

// writeScanHTML writes the scan response as a standalone HTML report
func (f *OutputFormatterImpl) writeScanHTML(response *domain.ScanResponse, writer io.Writer) error {
	result := response.Result

	profile := make([]htmlCategoryShare, 0, len(result.CategoryProfile))
	for _, category := range domain.AllCategories() {
		share := result.CategoryProfile[category]
		if share == 0 {
			continue
		}
		profile = append(profile, htmlCategoryShare{Category: category, Percent: share * 100})
	}

	data := htmlScanData{
		GeneratedAt: response.GeneratedAt,
		Version:     response.Version,
		Archetype:   result.Archetype,
		Fingerprint: result.Fingerprint,
		Density:     result.AggregatePatternDensity,
		Summary:     response.Summary,
		Profile:     profile,
		Modules:     result.Modules,
		Issues:      result.Issues,
	}

	funcMap := template.FuncMap{
		"densityQuality": func(density float64) string {
			switch {
			case density >= 0.60:
				return "excellent"
			case density >= 0.30:
				return "good"
			case density >= 0.15:
				return "fair"
			default:
				return "poor"
			}
		},
		"moduleCap": func() int { return htmlModuleCap },
	}

	tmpl := template.Must(template.New("scan").Funcs(funcMap).Parse(scanHTMLTemplate))
	if err := tmpl.Execute(writer, data); err != nil {
		return domain.NewOutputError("failed to render HTML report", err)
	}
	return nil
}

const scanHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>vitals Scan Report</title>
<style>
  :root {
    --ink: #1c2733;
    --muted: #5f6c7b;
    --rule: #dde4eb;
    --accent: #0b7285;
    --wash: #f4f6f8;
  }
  * { box-sizing: border-box; }
  body {
    margin: 0;
    font: 15px/1.55 -apple-system, "Segoe UI", Helvetica, Arial, sans-serif;
    color: var(--ink);
    background: var(--wash);
  }
  main { max-width: 1080px; margin: 0 auto; padding: 24px 20px 48px; }
  header.band {
    background: var(--ink);
    color: #fff;
    padding: 28px 20px;
  }
  header.band .inner { max-width: 1080px; margin: 0 auto; }
  header.band h1 { margin: 0 0 4px; font-size: 22px; font-weight: 600; }
  header.band .meta { color: #aeb9c4; font-size: 13px; }
  section {
    background: #fff;
    border: 1px solid var(--rule);
    border-radius: 6px;
    padding: 20px 24px;
    margin-top: 20px;
  }
  section h2 {
    margin: 0 0 14px;
    font-size: 15px;
    text-transform: uppercase;
    letter-spacing: 0.06em;
    color: var(--muted);
  }
  .signature { display: flex; align-items: baseline; gap: 16px; flex-wrap: wrap; }
  .archetype {
    display: inline-block;
    padding: 6px 14px;
    border-radius: 4px;
    color: #fff;
    font-size: 17px;
    font-weight: 600;
  }
  .fingerprint { font-family: "SF Mono", Menlo, monospace; font-size: 12px; color: var(--muted); }
  .density-excellent { background: #2b8a3e; }
  .density-good { background: #5c940d; }
  .density-fair { background: #e8590c; }
  .density-poor { background: #c92a2a; }

  .stats { display: flex; gap: 32px; flex-wrap: wrap; }
  .stat .num { font-size: 28px; font-weight: 700; color: var(--accent); }
  .stat .cap { font-size: 12px; color: var(--muted); text-transform: uppercase; letter-spacing: 0.05em; }

  .bar-row { display: flex; align-items: center; gap: 12px; margin-bottom: 10px; font-size: 13px; }
  .bar-row .name { width: 90px; color: var(--muted); }
  .bar-row .pct { width: 52px; text-align: right; font-variant-numeric: tabular-nums; }
  .bar-row .track { flex: 1; height: 10px; background: var(--wash); border-radius: 5px; }
  .bar-row .fill { height: 10px; border-radius: 5px; background: var(--accent); }

  table { width: 100%; border-collapse: collapse; font-size: 14px; }
  th, td { padding: 9px 10px; text-align: left; border-bottom: 1px solid var(--rule); }
  th { color: var(--muted); font-weight: 600; font-size: 12px; text-transform: uppercase; }
  td.num { font-variant-numeric: tabular-nums; }

  .severity-critical { color: #c92a2a; font-weight: 700; }
  .severity-high { color: #e03131; }
  .severity-medium { color: #e8590c; }
  .severity-low { color: #1971c2; }
  .complexity-critical { color: #c92a2a; font-weight: 700; }
  .complexity-high { color: #e8590c; }
  .complexity-medium { color: var(--muted); }
  .complexity-low { color: #2b8a3e; }

  .all-clear { color: #2b8a3e; font-weight: 600; }
  .truncated { color: var(--muted); font-size: 13px; margin: 10px 0 0; }
</style>
</head>
<body>
<header class="band">
  <div class="inner">
    <h1>vitals Scan Report</h1>
    <div class="meta">Generated: {{.GeneratedAt}} &middot; Version: {{.Version}}</div>
  </div>
</header>
<main>
  <section>
    <h2>Signature</h2>
    <div class="signature">
      <span class="archetype density-{{densityQuality .Density}}">{{.Archetype}}</span>
      <span>aggregate density {{printf "%.2f" .Density}}</span>
      <span class="fingerprint">Fingerprint: {{.Fingerprint}}</span>
    </div>
  </section>

  <section>
    <h2>Summary</h2>
    <div class="stats">
      <div class="stat"><div class="num">{{.Summary.TotalModules}}</div><div class="cap">Modules</div></div>
      <div class="stat"><div class="num">{{.Summary.TotalLines}}</div><div class="cap">Lines</div></div>
      <div class="stat"><div class="num">{{printf "%.2f" .Summary.AverageDensity}}</div><div class="cap">Avg density</div></div>
      <div class="stat"><div class="num">{{.Summary.IssuesFound}}</div><div class="cap">Issues</div></div>
      {{if .Summary.ModulesSkipped}}<div class="stat"><div class="num">{{.Summary.ModulesSkipped}}</div><div class="cap">Skipped</div></div>{{end}}
    </div>
  </section>

  <section>
    <h2>Category Profile</h2>
    {{range .Profile}}
    <div class="bar-row">
      <span class="name">{{.Category}}</span>
      <span class="track"><span class="fill" style="width: {{printf "%.1f" .Percent}}%; display: block;"></span></span>
      <span class="pct">{{printf "%.1f" .Percent}}%</span>
    </div>
    {{end}}
  </section>

  <section>
    <h2>Issues</h2>
    {{if .Issues}}
    <table>
      <thead>
        <tr><th>Severity</th><th>Issue</th><th>Subject</th><th>Suggested Fix</th></tr>
      </thead>
      <tbody>
        {{range .Issues}}
        <tr>
          <td class="severity-{{.Severity}}">{{.Severity}}</td>
          <td>{{.Title}}</td>
          <td>{{.SubjectPath}}</td>
          <td>{{.Remediation}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{else}}
    <p class="all-clear">&#10003; No issues detected</p>
    {{end}}
  </section>

  <section>
    <h2>Modules</h2>
    <table>
      <thead>
        <tr><th>Path</th><th>Category</th><th>Lines</th><th>Density</th><th>Complexity</th></tr>
      </thead>
      <tbody>
        {{range $i, $m := .Modules}}
        {{if lt $i moduleCap}}
        <tr>
          <td>{{$m.Path}}</td>
          <td>{{$m.Category}}</td>
          <td class="num">{{$m.LinesOfCode}}</td>
          <td class="num">{{printf "%.2f" $m.PatternDensity}}</td>
          <td class="complexity-{{$m.Complexity}}">{{$m.Complexity}}</td>
        </tr>
        {{end}}
        {{end}}
      </tbody>
    </table>
    {{if gt (len .Modules) moduleCap}}
    <p class="truncated">Showing the first {{moduleCap}} of {{len .Modules}} modules.</p>
    {{end}}
  </section>
</main>
</body>
</html>`
