package analysis

import "strings"

// UnescapeNewlines replaces literal backslash-n sequences with real newlines.
// Models sometimes double-escape multi-line strings in JSON mode. A script
// that legitimately contains a literal \n in generated content will be
// altered too; this is a known limitation of the workaround.
func UnescapeNewlines(s string) string {
	if !strings.Contains(s, `\n`) {
		return s
	}
	return strings.ReplaceAll(s, `\n`, "\n")
}

// cleanCode un-escapes and trims a code field.
func cleanCode(s string) string {
	return strings.TrimSpace(UnescapeNewlines(s))
}

// Normalize applies newline un-escaping to multi-line fields and trims code fields.
func (r *Result) Normalize() {
	r.Summary = UnescapeNewlines(r.Summary)
	for i := range r.CommandBreakdown {
		r.CommandBreakdown[i].Explanation = UnescapeNewlines(r.CommandBreakdown[i].Explanation)
	}
	for i := range r.SecurityAudit {
		r.SecurityAudit[i].Recommendation = UnescapeNewlines(r.SecurityAudit[i].Recommendation)
	}
	for i := range r.PerformanceProfile {
		r.PerformanceProfile[i].Suggestion = UnescapeNewlines(r.PerformanceProfile[i].Suggestion)
	}
	r.PortabilityAnalysis.Summary = UnescapeNewlines(r.PortabilityAnalysis.Summary)
	r.PortabilityAnalysis.Score = clampScore(float64(r.PortabilityAnalysis.Score))

	r.TestSuite.Content = cleanCode(r.TestSuite.Content)
	r.Translations.Python = cleanCode(r.Translations.Python)
	r.Translations.PowerShell = cleanCode(r.Translations.PowerShell)
	r.MermaidFlowchart = cleanCode(r.MermaidFlowchart)

	g := &r.GithubRepo
	g.ReadmeContent = UnescapeNewlines(g.ReadmeContent)
	g.GitignoreContent = cleanCode(g.GitignoreContent)
	g.FileStructure = cleanCode(g.FileStructure)
	g.DockerfileContent = cleanCode(g.DockerfileContent)
	g.ManPageContent = cleanCode(g.ManPageContent)
	g.PullRequestTitle = strings.TrimSpace(g.PullRequestTitle)
	g.PullRequestBody = UnescapeNewlines(g.PullRequestBody)
}

// Normalize cleans the code fields of a refactor proposal.
func (r *RefactorResult) Normalize() {
	r.OriginalCode = cleanCode(r.OriginalCode)
	r.RefactoredCode = cleanCode(r.RefactoredCode)
	r.Explanation = UnescapeNewlines(r.Explanation)
	r.Suggestion = strings.TrimSpace(r.Suggestion)
}
