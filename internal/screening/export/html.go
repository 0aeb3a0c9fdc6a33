package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"exclusioncheck/internal/screening/models"
)

// Theme selects the screen palette of the printable report. Printing always
// uses the light palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light", "dark" or "" (light).
func ParseTheme(raw string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(raw))); t {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

type palette struct {
	Scheme      template.CSS
	Text        template.CSS
	Background  template.CSS
	Title       template.CSS
	Heading     template.CSS
	Subheading  template.CSS
	Rule        template.CSS
	Accent      template.CSS
	Muted       template.CSS
	Label       template.CSS
	CellRule    template.CSS
	Panel       template.CSS
	Summary     template.CSS
	Clear       template.CSS
	Excluded    template.CSS
	Warning     template.CSS
	HTMLClasses string
}

func paletteFor(t Theme) palette {
	switch t {
	case ThemeDark:
		return palette{
			Scheme: "dark", Text: "#e5e7eb", Background: "#111827",
			Title: "#a5b4fc", Heading: "#818cf8", Subheading: "#a5b4fc",
			Rule: "#374151", Accent: "#6366f1", Muted: "#9ca3af", Label: "#9ca3af",
			CellRule: "#1f2937", Panel: "#1f2937", Summary: "#1f2937",
			Clear: "#34d399", Excluded: "#f87171", Warning: "#fbbf24",
			HTMLClasses: "dark",
		}
	default:
		return palette{
			Scheme: "light", Text: "#333", Background: "#fff",
			Title: "#4338ca", Heading: "#4f46e5", Subheading: "#6366f1",
			Rule: "#e5e7eb", Accent: "#4338ca", Muted: "#6b7280", Label: "#4b5563",
			CellRule: "#f3f4f6", Panel: "#f9fafb", Summary: "#f3f4f6",
			Clear: "#059669", Excluded: "#dc2626", Warning: "#d97706",
		}
	}
}

// statusClass is the CSS class for a status.
func statusClass(s models.Status) string {
	switch s {
	case models.StatusClear:
		return "status-clear"
	case models.StatusWarning:
		return "status-warning"
	case models.StatusExcluded:
		return "status-excluded"
	default:
		panic(fmt.Sprintf("export: unknown status %q", string(s)))
	}
}

var funcs = template.FuncMap{
	"statusClass": statusClass,
	"upper":       func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"date":        formatDate,
	"dob":         formatDOB,
	"clock":       func(t time.Time) string { return t.Format(timeLayout) },
	"ident":       identification,
}

var detailTmpl = template.Must(template.New("detail").Funcs(funcs).Parse(`
<div class="report-section">
  <h2>Subject Information</h2>
  <table class="info-table">
    <tr><td class="label">Name:</td><td>{{.FirstName}} {{.LastName}}</td></tr>
    <tr><td class="label">Date of Birth:</td><td>{{dob .DateOfBirth}}</td></tr>
    <tr><td class="label">ID Type/Number:</td><td>{{ident .}}</td></tr>
    <tr><td class="label">Verification Date:</td><td>{{date .CheckDate}} at {{clock .CheckDate}}</td></tr>
    <tr><td class="label">Status:</td><td class="{{statusClass .Status}}">{{upper .Status}}</td></tr>
  </table>
</div>

<div class="report-section">
  <h2>Verification Summary</h2>
  <p class="summary-message">{{.Message}}</p>
</div>

<div class="report-section">
  <h2>Database Search Results</h2>
  {{- range .DatabaseResults}}
  <div class="database-result">
    <h3>{{.DatabaseName}}</h3>
    <table class="info-table">
      <tr><td class="label">Status:</td><td class="{{statusClass .Status}}">{{upper .Status}}</td></tr>
      <tr><td class="label">Search Date:</td><td>{{date .SearchDate}}</td></tr>
      <tr><td class="label">Source:</td><td><a href="{{.SearchURL}}" target="_blank">{{.SearchURL}}</a></td></tr>
      <tr><td class="label">Details:</td><td>{{.Details}}</td></tr>
      {{- if .ReferenceID}}
      <tr><td class="label">Reference ID:</td><td>{{.ReferenceID}}</td></tr>
      {{- end}}
    </table>
  </div>
  {{- end}}
</div>

<div class="report-footer">
  <p>This verification was conducted for screening purposes only on {{date .CheckDate}}.</p>
  <p>Results should be confirmed with official sources if required by applicable regulations.</p>
</div>
`))

var shellTmpl = template.Must(template.New("shell").Funcs(funcs).Parse(`<!DOCTYPE html>
<html class="{{.Palette.HTMLClasses}}">
<head>
<meta charset="utf-8">
<title>Detailed Verification Report</title>
<style>
:root { color-scheme: {{.Palette.Scheme}}; }
body { font-family: Arial, sans-serif; line-height: 1.5; margin: 2rem; color: {{.Palette.Text}}; background-color: {{.Palette.Background}}; }
h1 { color: {{.Palette.Title}}; margin-bottom: 0.5rem; text-align: center; font-size: 24px; }
h2 { color: {{.Palette.Heading}}; margin-top: 1.5rem; margin-bottom: 0.8rem; border-bottom: 1px solid {{.Palette.Rule}}; padding-bottom: 0.5rem; font-size: 18px; }
h3 { color: {{.Palette.Subheading}}; margin-top: 1rem; margin-bottom: 0.5rem; font-size: 16px; }
hr { margin: 2rem 0; border: 0; border-top: 1px solid {{.Palette.Rule}}; }
.header { text-align: center; margin-bottom: 2rem; padding-bottom: 1rem; border-bottom: 2px solid {{.Palette.Accent}}; }
.date { color: {{.Palette.Muted}}; font-size: 14px; }
.info-table { width: 100%; border-collapse: collapse; margin-bottom: 1.5rem; }
.info-table td { padding: 8px; border-bottom: 1px solid {{.Palette.CellRule}}; }
.label { font-weight: bold; width: 35%; color: {{.Palette.Label}}; }
.database-result { margin-bottom: 1.5rem; padding: 1rem; background-color: {{.Palette.Panel}}; border-radius: 0.5rem; }
.report-section { margin-bottom: 2rem; }
.summary-message { padding: 1rem; background-color: {{.Palette.Summary}}; border-radius: 0.5rem; border-left: 4px solid {{.Palette.Accent}}; }
.report-footer { margin-top: 3rem; padding-top: 1rem; border-top: 1px solid {{.Palette.Rule}}; font-size: 12px; color: {{.Palette.Muted}}; }
.status-clear { color: {{.Palette.Clear}}; font-weight: bold; }
.status-excluded { color: {{.Palette.Excluded}}; font-weight: bold; }
.status-warning { color: {{.Palette.Warning}}; font-weight: bold; }
.page-break { page-break-after: always; }
@media print {
  body { margin: 1cm; color: #333 !important; background-color: white !important; }
  h1 { color: #4338ca !important; }
  h2 { color: #4f46e5 !important; border-bottom-color: #e5e7eb !important; }
  h3 { color: #6366f1 !important; }
  hr { border-top-color: #e5e7eb !important; }
  .header { border-bottom-color: #4338ca !important; }
  .date { color: #6b7280 !important; }
  .info-table td { border-bottom-color: #f3f4f6 !important; }
  .label { color: #4b5563 !important; }
  .database-result { background-color: #f9fafb !important; }
  .summary-message { background-color: #f3f4f6 !important; border-left-color: #4338ca !important; }
  .report-footer { border-top-color: #e5e7eb !important; color: #6b7280 !important; }
  .status-clear { color: #059669 !important; }
  .status-excluded { color: #dc2626 !important; }
  .status-warning { color: #d97706 !important; }
}
</style>
</head>
<body>
<div class="header">
  <h1>Background Verification Report</h1>
  <p class="date">Generated on {{date .GeneratedAt}} at {{clock .GeneratedAt}}</p>
</div>
{{.Body}}
</body>
</html>
`))

// DetailedReport renders the HTML fragment for one result. All text is escaped.
func DetailedReport(r models.OverallResult) (string, error) {
	var buf bytes.Buffer
	if err := detailTmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report for %s: %w", r.ResultID, err)
	}
	return buf.String(), nil
}

// PrintableReport renders a complete HTML document with one report per
// result, separated by page breaks.
func PrintableReport(results []models.OverallResult, theme Theme, generatedAt time.Time) (string, error) {
	if len(results) == 0 {
		return "", ErrNoResults
	}

	fragments := make([]string, 0, len(results))
	for _, r := range results {
		frag, err := DetailedReport(r)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, frag)
	}

	var buf bytes.Buffer
	err := shellTmpl.Execute(&buf, struct {
		Palette     palette
		GeneratedAt time.Time
		Body        template.HTML
	}{
		Palette:     paletteFor(theme),
		GeneratedAt: generatedAt,
		// fragments were escaped when they were rendered
		Body: template.HTML(strings.Join(fragments, `<hr class="page-break" />`)),
	})
	if err != nil {
		return "", fmt.Errorf("render printable report: %w", err)
	}
	return buf.String(), nil
}
