package export

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SQL Server Security Audit</title>
<style>
body { font-family: "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; background: #f4f5f7; color: #24292e; }
header { background: #1b2a41; color: #fff; padding: 20px 32px; }
header h1 { margin: 0 0 4px; font-size: 22px; }
header .meta { font-size: 13px; color: #aebacd; }
.partial { background: #b35900; color: #fff; padding: 6px 32px; font-size: 13px; }
nav { display: flex; gap: 4px; background: #fff; padding: 0 32px; border-bottom: 1px solid #d6d9dd; }
nav button { border: none; background: none; padding: 12px 18px; font-size: 14px; cursor: pointer; border-bottom: 3px solid transparent; }
nav button.active { border-bottom-color: #1b2a41; font-weight: 600; }
main { padding: 24px 32px; }
.panel { display: none; }
.panel.active { display: block; }
.tiles { display: flex; gap: 12px; margin-bottom: 24px; }
.tile { flex: 1; background: #fff; border-radius: 6px; padding: 16px; text-align: center; border-top: 4px solid #999; }
.tile .n { font-size: 28px; font-weight: 700; }
.tile .label { font-size: 12px; text-transform: uppercase; letter-spacing: 0.06em; color: #6a737d; }
.tile.critical { border-top-color: #b00020; }
.tile.high { border-top-color: #d9480f; }
.tile.medium { border-top-color: #e8a100; }
.tile.low { border-top-color: #2f80ed; }
.tile.info { border-top-color: #6a737d; }
.context { background: #fff; border-radius: 6px; padding: 16px 20px; }
.context td { padding: 4px 16px 4px 0; font-size: 14px; }
.context td.label { color: #6a737d; }
.card { background: #fff; border-radius: 6px; padding: 16px 20px; margin-bottom: 14px; border-left: 5px solid #999; }
.card.critical { border-left-color: #b00020; }
.card.high { border-left-color: #d9480f; }
.card.medium { border-left-color: #e8a100; }
.card.low { border-left-color: #2f80ed; }
.card.info { border-left-color: #6a737d; }
.card h3 { margin: 0 0 6px; font-size: 16px; }
.card .badge { display: inline-block; font-size: 11px; text-transform: uppercase; padding: 2px 8px; border-radius: 10px; background: #eceff3; margin-right: 8px; }
.card p { margin: 6px 0; font-size: 14px; }
.card ul { margin: 6px 0; padding-left: 20px; font-size: 13px; color: #444; }
.card .rec { font-size: 13px; color: #1b5e20; }
.empty { background: #fff; border-radius: 6px; padding: 40px; text-align: center; color: #6a737d; }
table.logins { width: 100%; border-collapse: collapse; background: #fff; border-radius: 6px; }
table.logins th, table.logins td { text-align: left; padding: 8px 12px; font-size: 13px; border-bottom: 1px solid #eceff3; }
table.logins th { background: #f0f2f5; text-transform: uppercase; font-size: 11px; letter-spacing: 0.05em; }
.more { padding: 10px 12px; font-size: 13px; color: #6a737d; }
</style>
</head>
<body>
<header>
<h1>SQL Server Security Audit</h1>
<div class="meta">collected at {{.GeneratedAt}}</div>
</header>
{{if .Partial}}<div class="partial">Partial results: the run was interrupted before every check completed.</div>{{end}}
<nav>
<button class="active" data-panel="summary">Summary</button>
<button data-panel="issues">Issues</button>
<button data-panel="logins">Logins</button>
</nav>
<main>
<section id="summary" class="panel active">
<div class="tiles">
{{range .Tiles}}<div class="tile {{.Class}}"><div class="n">{{.Count}}</div><div class="label">{{.Label}}</div></div>
{{end}}</div>
<div class="context">
<table>
{{range .Context}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
</div>
</section>
<section id="issues" class="panel">
{{if .Issues}}{{range .Issues}}<div class="card {{.Severity}}">
<h3>{{.Title}}</h3>
<div><span class="badge">{{.Severity}}</span><span class="badge">{{.Category}}</span></div>
<p>{{.Description}}</p>
{{if .Details}}<ul>
{{range .Details}}<li>{{.}}</li>
{{end}}</ul>{{end}}
{{if .Recommendation}}<p class="rec">Recommendation: {{.Recommendation}}</p>{{end}}
</div>
{{end}}{{else}}<div class="empty">No issues found.</div>{{end}}
</section>
<section id="logins" class="panel">
{{if .Logins}}<table class="logins">
<tr><th>Login</th><th>Type</th><th>Status</th><th>Default database</th><th>Created</th></tr>
{{range .Logins}}<tr><td>{{.Name}}</td><td>{{.Type}}</td><td>{{.Status}}</td><td>{{.DefaultDatabase}}</td><td>{{.CreateDate}}</td></tr>
{{end}}</table>
{{if .MoreLogins}}<div class="more">+{{.MoreLogins}} more</div>{{end}}
{{else}}<div class="empty">No logins collected.</div>{{end}}
</section>
</main>
<script>
document.querySelectorAll("nav button").forEach(function (btn) {
  btn.addEventListener("click", function () {
    document.querySelectorAll("nav button").forEach(function (b) { b.classList.remove("active"); });
    document.querySelectorAll(".panel").forEach(function (p) { p.classList.remove("active"); });
    btn.classList.add("active");
    document.getElementById(btn.dataset.panel).classList.add("active");
  });
});
</script>
</body>
</html>
`
