package analysis

import (
	"encoding/json"
	"math"
)

// CommandPart explains one flag or argument of a command the script builds.
type CommandPart struct {
	Part        string `json:"part"`
	Explanation string `json:"explanation"`
}

// SecurityFinding value object
type SecurityFinding struct {
	Vulnerability  string `json:"vulnerability"`
	Recommendation string `json:"recommendation"`
}

// PerformanceIssue value object
type PerformanceIssue struct {
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Portability scores how well the script runs across shells and platforms.
type Portability struct {
	Score   int      `json:"score"`
	Summary string   `json:"summary"`
	Issues  []string `json:"issues"`
}

// UnmarshalJSON accepts fractional scores ("8.0", "7.5") and rounds them
// into the 1 to 10 range.
func (p *Portability) UnmarshalJSON(b []byte) error {
	var raw struct {
		Score   float64  `json:"score"`
		Summary string   `json:"summary"`
		Issues  []string `json:"issues"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Score = clampScore(raw.Score)
	p.Summary = raw.Summary
	p.Issues = raw.Issues
	return nil
}

func clampScore(f float64) int {
	switch f = math.Round(f); {
	case f < 1:
		return 1
	case f > 10:
		return 10
	}
	return int(f)
}

// TestSuite holds a generated test file and the framework it targets (bats, shunit2, ...).
type TestSuite struct {
	Framework string `json:"framework"`
	Content   string `json:"content"`
}

// Translations of the script into other languages.
type Translations struct {
	Python     string `json:"python"`
	PowerShell string `json:"powershell"`
}

// GithubRepo is the scaffolded repository suggested for the script.
type GithubRepo struct {
	ReadmeContent     string `json:"readmeContent"`
	GitignoreContent  string `json:"gitignoreContent"`
	FileStructure     string `json:"fileStructure"`
	DockerfileContent string `json:"dockerfileContent"`
	ManPageContent    string `json:"manPageContent"`
	PullRequestTitle  string `json:"pullRequestTitle"`
	PullRequestBody   string `json:"pullRequestBody"`
}

// Result is the full analysis of one script. It is produced once per
// successful call and replaced wholesale on re-analysis.
type Result struct {
	Summary             string             `json:"summary"`
	Strengths           []string           `json:"strengths"`
	Weaknesses          []string           `json:"weaknesses"`
	Suggestions         []string           `json:"suggestions"`
	CommandBreakdown    []CommandPart      `json:"commandBreakdown"`
	SecurityAudit       []SecurityFinding  `json:"securityAudit"`
	PerformanceProfile  []PerformanceIssue `json:"performanceProfile"`
	PortabilityAnalysis Portability        `json:"portabilityAnalysis"`
	TestSuite           TestSuite          `json:"testSuite"`
	Translations        Translations       `json:"translations"`
	MermaidFlowchart    string             `json:"mermaidFlowchart"`
	GithubRepo          GithubRepo         `json:"githubRepo"`
}

// RefactorResult is one proposed code replacement. Suggestion is set when the
// result answers a specific improvement suggestion.
type RefactorResult struct {
	Suggestion     string `json:"suggestion,omitempty"`
	OriginalCode   string `json:"originalCode"`
	RefactoredCode string `json:"refactoredCode"`
	Explanation    string `json:"explanation"`
}

// Fix is a literal snippet replacement applied to a script's content.
type Fix struct {
	OriginalCode   string `json:"originalCode" validate:"required"`
	RefactoredCode string `json:"refactoredCode"`
}

// Fix converts a refactor proposal into an applicable fix.
func (r RefactorResult) Fix() Fix {
	return Fix{OriginalCode: r.OriginalCode, RefactoredCode: r.RefactoredCode}
}
