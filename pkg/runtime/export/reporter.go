package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// maxLoginRows bounds the login roster in the rendered document; the
// remainder collapses into a "+N more" note.
const maxLoginRows = 30

// Reporter renders a Summary into a single self-contained HTML document:
// no external resources, tab switching done client-side.
type Reporter struct {
	tmpl *template.Template
}

func NewReporter() (*Reporter, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Reporter{tmpl: tmpl}, nil
}

type countTile struct {
	Label string
	Class string
	Count int
}

type issueView struct {
	Title          string
	Description    string
	Severity       string
	Category       string
	Details        []string
	Recommendation string
}

type contextField struct {
	Label string
	Value string
}

type loginView struct {
	Name            string
	Type            string
	Status          string
	DefaultDatabase string
	CreateDate      string
}

type reportData struct {
	GeneratedAt string
	Partial     bool
	Tiles       []countTile
	Issues      []issueView
	Context     []contextField
	Logins      []loginView
	MoreLogins  int
	TotalLogins int
}

// Handle writes the rendered document for the given summary and server
// snapshot. Rendering is deterministic and never fails on missing context
// fields; blanks render as placeholders.
func (r *Reporter) Handle(w io.Writer, summary domain.Summary, server domain.ServerInfo) error {
	data := buildReportData(summary, server)
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func buildReportData(summary domain.Summary, server domain.ServerInfo) reportData {
	counts := summary.Counts()
	data := reportData{
		GeneratedAt: summary.CollectedAt.Format("2006-01-02 15:04:05 MST"),
		Partial:     !summary.Complete,
		TotalLogins: len(summary.Logins),
	}

	for _, sev := range domain.Severities() {
		data.Tiles = append(data.Tiles, countTile{
			Label: sev.String(),
			Class: sev.String(),
			Count: counts[sev],
		})
	}

	for _, issue := range summary.Issues {
		data.Issues = append(data.Issues, issueView{
			Title:          issue.Title,
			Description:    issue.Description,
			Severity:       issue.Severity.String(),
			Category:       issue.Category,
			Details:        issue.Details,
			Recommendation: issue.Recommendation,
		})
	}

	data.Context = []contextField{
		{Label: "Server", Value: orPlaceholder(server.ServerName)},
		{Label: "Machine", Value: orPlaceholder(server.MachineName)},
		{Label: "Instance", Value: orPlaceholder(server.InstanceName)},
		{Label: "Version", Value: orPlaceholder(server.ProductVersion)},
		{Label: "Patch level", Value: orPlaceholder(server.ProductLevel)},
		{Label: "Edition", Value: orPlaceholder(server.Edition)},
		{Label: "Authentication", Value: orPlaceholder(server.AuthenticationMode)},
		{Label: "Clustered", Value: yesNo(server.IsClustered)},
	}

	logins := summary.Logins
	if len(logins) > maxLoginRows {
		data.MoreLogins = len(logins) - maxLoginRows
		logins = logins[:maxLoginRows]
	}
	for _, l := range logins {
		status := "enabled"
		if l.Disabled {
			status = "disabled"
		}
		created := ""
		if !l.CreateDate.IsZero() {
			created = l.CreateDate.Format("2006-01-02")
		}
		data.Logins = append(data.Logins, loginView{
			Name:            l.Name,
			Type:            l.Type,
			Status:          status,
			DefaultDatabase: orPlaceholder(l.DefaultDatabase),
			CreateDate:      orPlaceholder(created),
		})
	}

	return data
}

func orPlaceholder(v string) string {
	if v == "" {
		return "n/a"
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
