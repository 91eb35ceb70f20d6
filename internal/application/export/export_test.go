package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Summary:     "Backs up **home** <script>alert(1)</script>",
		Strengths:   []string{"short"},
		Weaknesses:  []string{"no <quoting>"},
		Suggestions: []string{"quote vars"},
		SecurityAudit: []analysis.SecurityFinding{
			{Vulnerability: "unquoted rm", Recommendation: "quote it"},
		},
		PortabilityAnalysis: analysis.Portability{Score: 7, Summary: "mostly posix"},
		TestSuite:           analysis.TestSuite{Framework: "bats", Content: "@test \"x\" { true; }"},
		MermaidFlowchart:    `graph TD\n A["say &quot;hi&quot;"]`,
		GithubRepo:          analysis.GithubRepo{ReadmeContent: "# Backup", PullRequestTitle: "Add backup"},
	}
}

func TestRenderSelectedSectionsOnly(t *testing.T) {
	sections, err := analysis.ParseSections("summary,security")
	require.NoError(t, err)

	out, err := NewRenderer().RenderBytes(Document{
		ScriptName:  "backup.sh",
		Script:      "rm -rf $DIR",
		Result:      sampleResult(),
		Sections:    sections,
		GeneratedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	html := string(out)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<h2>Summary</h2>")
	assert.Contains(t, html, "<h2>Security Audit</h2>")
	assert.Contains(t, html, "unquoted rm")
	assert.NotContains(t, html, "<h2>Strengths</h2>")
	assert.NotContains(t, html, "Generated Test Suite")
	assert.Contains(t, html, "<strong>home</strong>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "2025-05-01 10:00 UTC")
}

func TestRenderEscapesPlainFields(t *testing.T) {
	out, err := NewRenderer().RenderBytes(Document{
		ScriptName: "a.sh",
		Script:     "echo <b>",
		Result:     sampleResult(),
		Sections:   analysis.SectionSet{analysis.SectionWeaknesses: true, analysis.SectionLogicVisualization: true},
	})
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "no &lt;quoting&gt;")
	assert.Contains(t, html, "echo &lt;b&gt;")
	assert.Contains(t, html, `class="mermaid"`)
}

func TestRenderDefaultsAndChat(t *testing.T) {
	chat := []workspace.ChatMessage{
		{Role: workspace.RoleUser, Content: "why?"},
		{Role: workspace.RoleAssistant, Content: "because `set -e`"},
	}
	out, err := NewRenderer().RenderBytes(Document{ScriptName: "a.sh", Result: sampleResult(), Chat: chat})
	require.NoError(t, err)
	html := string(out)
	for _, s := range analysis.AllSections {
		assert.Contains(t, html, `id="`+string(s)+`"`)
	}
	assert.Contains(t, html, "<code>set -e</code>")

	out, err = NewRenderer().RenderBytes(Document{ScriptName: "a.sh", Result: sampleResult()})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `id="interactiveQa"`)
}

func TestRenderWithoutResult(t *testing.T) {
	_, err := NewRenderer().RenderBytes(Document{ScriptName: "a.sh"})
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "backup-analysis.html", Filename("backup.sh"))
	assert.Equal(t, "my-script-analysis.html", Filename(" my script.sh "))
	assert.Equal(t, "script-analysis.html", Filename(""))
	assert.Equal(t, "b-analysis.html", Filename("../a/b.sh"))
}
