package heuristic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
)

// Generator answers every task locally with rule based checks. It needs no
// API key and is used for offline runs and development.
type Generator struct{}

func New() *Generator { return &Generator{} }

func (*Generator) Name() string { return "heuristic" }

// Generate returns JSON in the same contract the hosted models follow.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch req.Task {
	case ai.TaskAnalyze:
		return marshal(Analyze(req.Script))
	case ai.TaskRefactor:
		var suggestion string
		if len(req.Suggestions) > 0 {
			suggestion = req.Suggestions[0]
		}
		p := refactor(req.Script, suggestion)
		p.Suggestion = ""
		return marshal(p)
	case ai.TaskRefactorAll:
		out := make([]analysis.RefactorResult, 0, len(req.Suggestions))
		for _, s := range req.Suggestions {
			out = append(out, refactor(req.Script, s))
		}
		return marshal(out)
	default:
		return answer(req.Script, req.Question), nil
	}
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("heuristic: encode response: %w", err)
	}
	return string(b), nil
}

// Analyze inspects script and builds a complete analysis.
func Analyze(script string) analysis.Result {
	lines := strings.Split(script, "\n")
	shebang := ""
	if strings.HasPrefix(script, "#!") {
		shebang = strings.TrimSpace(lines[0])
	}

	r := analysis.Result{
		Strengths:          []string{},
		Weaknesses:         []string{},
		Suggestions:        []string{},
		CommandBreakdown:   breakdown(lines),
		SecurityAudit:      []analysis.SecurityFinding{},
		PerformanceProfile: []analysis.PerformanceIssue{},
	}

	seen := map[string]bool{}
	for _, d := range detectors {
		if d.re.MatchString(script) && !seen[d.title] {
			seen[d.title] = true
			r.SecurityAudit = append(r.SecurityAudit, analysis.SecurityFinding{Vulnerability: d.title, Recommendation: d.recommendation})
		}
	}
	for _, rk := range securityRisks {
		if rk.re.MatchString(script) {
			r.SecurityAudit = append(r.SecurityAudit, analysis.SecurityFinding{Vulnerability: rk.title, Recommendation: rk.advice})
			r.Weaknesses = append(r.Weaknesses, rk.title)
		}
	}
	for _, rk := range performanceRisks {
		if rk.re.MatchString(script) {
			r.PerformanceProfile = append(r.PerformanceProfile, analysis.PerformanceIssue{Issue: rk.title, Suggestion: rk.advice})
		}
	}

	issues := []string{}
	for _, rk := range bashisms {
		if rk.re.MatchString(script) {
			issues = append(issues, rk.title+". "+rk.advice)
		}
	}
	score := 10 - 2*len(issues)
	if score < 1 {
		score = 1
	}
	r.PortabilityAnalysis = analysis.Portability{
		Score:   score,
		Summary: fmt.Sprintf("Found %d construct(s) that limit portability beyond bash on Linux.", len(issues)),
		Issues:  issues,
	}

	if shebang != "" {
		r.Strengths = append(r.Strengths, "Declares its interpreter with "+shebang+".")
	} else {
		r.Weaknesses = append(r.Weaknesses, "No shebang line, so the interpreter depends on the caller.")
	}
	if reStrictSet.MatchString(script) {
		r.Strengths = append(r.Strengths, "Stops on errors via set -e.")
	}
	if strings.Contains(script, "\n#") || strings.HasPrefix(script, "# ") {
		r.Strengths = append(r.Strengths, "Contains explanatory comments.")
	}
	if len(r.SecurityAudit) == 0 {
		r.Strengths = append(r.Strengths, "No obvious secrets or dangerous constructs detected.")
	}
	for _, f := range fixers {
		if f.applies(script) {
			r.Suggestions = append(r.Suggestions, f.suggestion)
		}
	}

	r.Summary = fmt.Sprintf("A %d line shell script with %d security finding(s), %d performance note(s) and a portability score of %d/10.",
		len(lines), len(r.SecurityAudit), len(r.PerformanceProfile), score)
	r.TestSuite = analysis.TestSuite{Framework: "bats", Content: batsSuite()}
	r.Translations = analysis.Translations{Python: pythonWrapper(script), PowerShell: powershellWrapper(script)}
	r.MermaidFlowchart = flowchart(lines)
	r.GithubRepo = scaffold(r)
	return r
}

func refactor(script, suggestion string) analysis.RefactorResult {
	out := analysis.RefactorResult{Suggestion: suggestion, Explanation: "No automatic rewrite is known for this suggestion."}
	for _, f := range fixers {
		if f.suggestion == suggestion && f.applies(script) {
			out.OriginalCode, out.RefactoredCode = f.rewrite(script)
			out.Explanation = f.explanation
			return out
		}
	}
	return out
}

func answer(script, question string) string {
	r := Analyze(script)
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Offline review** (no model available) for: _%s_\n\n", strings.TrimSpace(question))
	sb.WriteString(r.Summary)
	if len(r.SecurityAudit) > 0 {
		sb.WriteString("\n\nSecurity notes:\n")
		for _, f := range r.SecurityAudit {
			fmt.Fprintf(&sb, "- %s\n", f.Vulnerability)
		}
	}
	return sb.String()
}
