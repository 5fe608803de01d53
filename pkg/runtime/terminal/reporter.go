package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// Reporter prints an audit summary to the console in a formatted text form.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

type consoleData struct {
	Server      string
	CollectedAt string
	Partial     bool
	Counts      []struct {
		Label string
		Count int
	}
	Issues    []domain.Issue
	Sysadmins []string
}

func (c *Reporter) Handle(summary domain.Summary, server domain.ServerInfo) error {
	tmpl := `
Security audit of {{.Server}} ({{.CollectedAt}})
{{if .Partial}}!! PARTIAL RESULTS: the run was interrupted before every check completed.
{{end}}
{{range .Counts}}{{printf "%-10s %d" .Label .Count}}
{{end}}
{{if .Issues}}{{range .Issues}}[{{.Severity}}] {{.Title}} ({{.Category}})
  {{.Description}}
{{range .Details}}  - {{.}}
{{end}}{{if .Recommendation}}  => {{.Recommendation}}
{{end}}
{{end}}{{else}}No issues found.
{{end}}{{if .Sysadmins}}sysadmin members: {{range $i, $m := .Sysadmins}}{{if $i}}, {{end}}{{$m}}{{end}}
{{end}}`

	t, err := template.New("summary").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	data := consoleData{
		Server:      server.ServerName,
		CollectedAt: summary.CollectedAt.Format("2006-01-02 15:04:05"),
		Partial:     !summary.Complete,
		Issues:      summary.Issues,
		Sysadmins:   summary.Sysadmins,
	}
	if data.Server == "" {
		data.Server = "unknown server"
	}
	counts := summary.Counts()
	for _, sev := range domain.Severities() {
		data.Counts = append(data.Counts, struct {
			Label string
			Count int
		}{Label: sev.String(), Count: counts[sev]})
	}

	return t.Execute(c.writer, data)
}
