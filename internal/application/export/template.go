package export

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #0f172a; color: #e2e8f0; }
  main { max-width: 960px; margin: 0 auto; padding: 2rem 1.5rem; }
  h1 { font-size: 1.75rem; margin-bottom: .25rem; }
  h2 { font-size: 1.25rem; border-bottom: 1px solid #334155; padding-bottom: .35rem; margin-top: 2.25rem; color: #7dd3fc; }
  h3 { font-size: 1rem; margin-bottom: .25rem; }
  .meta { color: #94a3b8; font-size: .85rem; }
  pre { background: #020617; border: 1px solid #1e293b; border-radius: 6px; padding: 1rem; overflow-x: auto; font-size: .85rem; }
  code { font-family: "JetBrains Mono", Menlo, Consolas, monospace; }
  table { border-collapse: collapse; width: 100%; }
  th, td { text-align: left; vertical-align: top; padding: .5rem; border-bottom: 1px solid #1e293b; }
  .score { font-size: 2rem; font-weight: 700; color: #facc15; }
  .chat-user { color: #a5b4fc; }
  .chat-assistant { color: #e2e8f0; }
  a { color: #38bdf8; }
</style>
</head>
<body>
<main>
<h1>{{ .ScriptName }}</h1>
<p class="meta">Generated {{ .Date }}</p>
<pre><code>{{ .Script }}</code></pre>
{{- $r := .Result }}
{{- range .Sections }}
<section id="{{ .Key }}">
<h2>{{ .Label }}</h2>
{{- if eq .Key "summary" }}
{{ markdown $r.Summary }}
{{- else if eq .Key "interactiveQa" }}
{{- range $.Chat }}
<div class="chat-{{ .Role }}"><strong>{{ .Role }}</strong>{{ markdown .Content }}</div>
{{- end }}
{{- else if eq .Key "strengths" }}
<ul>{{ range $r.Strengths }}<li>{{ . }}</li>{{ end }}</ul>
{{- else if eq .Key "weaknesses" }}
<ul>{{ range $r.Weaknesses }}<li>{{ . }}</li>{{ end }}</ul>
{{- else if eq .Key "suggestions" }}
<ul>{{ range $r.Suggestions }}<li>{{ . }}</li>{{ end }}</ul>
{{- else if eq .Key "security" }}
<table><tr><th>Vulnerability</th><th>Recommendation</th></tr>
{{- range $r.SecurityAudit }}<tr><td>{{ .Vulnerability }}</td><td>{{ .Recommendation }}</td></tr>{{ end }}
</table>
{{- else if eq .Key "performance" }}
<table><tr><th>Issue</th><th>Suggestion</th></tr>
{{- range $r.PerformanceProfile }}<tr><td>{{ .Issue }}</td><td>{{ .Suggestion }}</td></tr>{{ end }}
</table>
{{- else if eq .Key "portability" }}
<p class="score">{{ $r.PortabilityAnalysis.Score }}/10</p>
<p>{{ $r.PortabilityAnalysis.Summary }}</p>
<ul>{{ range $r.PortabilityAnalysis.Issues }}<li>{{ . }}</li>{{ end }}</ul>
{{- else if eq .Key "commandBreakdown" }}
<table><tr><th>Part</th><th>Explanation</th></tr>
{{- range $r.CommandBreakdown }}<tr><td><code>{{ .Part }}</code></td><td>{{ .Explanation }}</td></tr>{{ end }}
</table>
{{- else if eq .Key "logicVisualization" }}
<pre class="mermaid">{{ $r.MermaidFlowchart }}</pre>
{{- else if eq .Key "testSuite" }}
<h3>{{ $r.TestSuite.Framework }}</h3>
<pre><code>{{ $r.TestSuite.Content }}</code></pre>
{{- else if eq .Key "translations" }}
<h3>Python</h3>
<pre><code>{{ $r.Translations.Python }}</code></pre>
<h3>PowerShell</h3>
<pre><code>{{ $r.Translations.PowerShell }}</code></pre>
{{- else if eq .Key "github" }}
<h3>README.md</h3>
{{ markdown $r.GithubRepo.ReadmeContent }}
<h3>File structure</h3>
<pre><code>{{ $r.GithubRepo.FileStructure }}</code></pre>
<h3>.gitignore</h3>
<pre><code>{{ $r.GithubRepo.GitignoreContent }}</code></pre>
<h3>Dockerfile</h3>
<pre><code>{{ $r.GithubRepo.DockerfileContent }}</code></pre>
<h3>Man page</h3>
<pre><code>{{ $r.GithubRepo.ManPageContent }}</code></pre>
<h3>Pull request: {{ $r.GithubRepo.PullRequestTitle }}</h3>
{{ markdown $r.GithubRepo.PullRequestBody }}
{{- end }}
</section>
{{- end }}
</main>
</body>
</html>
`
