package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
)

const persona = `You are a senior shell scripting engineer and security reviewer.`

const jsonRules = `
Requirements:
- Output must be a single valid JSON value only (no markdown, no commentary, no code fences).
- Use real newlines inside multi-line string values; do not double-escape them.
- Every field in the schema is required.`

const flowchartRule = `
Flowchart rule: mermaidFlowchart is Mermaid "graph TD" source. Every node label MUST be wrapped
in double quotes, e.g. A["Read config"] or B{"Is input empty?"}. Any double quote inside a label
MUST be written as the entity &quot; and never as a raw or backslash-escaped quote.`

const analysisSchema = `
Schema (example with empty values):
{
  "summary": "<one paragraph on the script's purpose and main functionality>",
  "strengths": ["<string>"],
  "weaknesses": ["<string>"],
  "suggestions": ["<specific, actionable improvement>"],
  "commandBreakdown": [{"part": "<flag or argument>", "explanation": "<string>"}],
  "securityAudit": [{"vulnerability": "<string>", "recommendation": "<string>"}],
  "performanceProfile": [{"issue": "<string>", "suggestion": "<string>"}],
  "portabilityAnalysis": {"score": <integer 1-10>, "summary": "<string>", "issues": ["<string>"]},
  "testSuite": {"framework": "<bats|shunit2|...>", "content": "<full test file>"},
  "translations": {"python": "<full python program>", "powershell": "<full powershell script>"},
  "mermaidFlowchart": "<mermaid source>",
  "githubRepo": {
    "readmeContent": "<README.md in markdown>",
    "gitignoreContent": "<.gitignore>",
    "fileStructure": "<text tree of the repository>",
    "dockerfileContent": "<Dockerfile>",
    "manPageContent": "<man page in roff>",
    "pullRequestTitle": "<string>",
    "pullRequestBody": "<markdown>"
  }
}`

const refactorSchema = `
Schema:
{"originalCode": "<exact snippet copied verbatim from the script>", "refactoredCode": "<replacement>", "explanation": "<string>"}`

const refactorAllSchema = `
Schema: a JSON array with exactly one element per suggestion, in the same order:
[{"suggestion": "<the suggestion text>", "originalCode": "<exact snippet copied verbatim from the script>", "refactoredCode": "<replacement>", "explanation": "<string>"}]`

// GetSystemPrompt provides strict directions and, for JSON tasks, the output schema.
func GetSystemPrompt(task ai.Task) string {
	switch task {
	case ai.TaskAnalyze:
		return persona + jsonRules + flowchartRule + analysisSchema
	case ai.TaskRefactor:
		return persona + jsonRules + `
- originalCode must be copied character for character from the script so it can be replaced literally.` + refactorSchema
	case ai.TaskRefactorAll:
		return persona + jsonRules + `
- The top-level value must be a JSON array, not an object.
- originalCode must be copied character for character from the script so it can be replaced literally.` + refactorAllSchema
	default:
		return persona + ` Answer questions about the user's script concisely in Markdown.`
	}
}

// AnalyzePrompt builds the user message for a full analysis.
func AnalyzePrompt(script string) string {
	return "Analyze the following shell script. Describe its functionality, strengths, weaknesses and " +
		"improvements, break down the main command it constructs, audit it for security, performance and " +
		"portability, generate a test suite, translate it to Python and PowerShell, draw its logic as a " +
		"flowchart and scaffold a GitHub repository for it. Respond with the JSON per schema.\n\n" +
		fence(script)
}

// RefactorPrompt builds the user message for one suggestion.
func RefactorPrompt(script, suggestion string) string {
	return fmt.Sprintf("Locate the part of the script relevant to this suggestion and refactor it.\n\n"+
		"SUGGESTION: %s\n\n%s", suggestion, fence(script))
}

// RefactorAllPrompt builds the user message for a batch of suggestions.
func RefactorAllPrompt(script string, suggestions []string) string {
	list, _ := json.Marshal(suggestions)
	return fmt.Sprintf("For each suggestion below, locate the relevant part of the script and refactor it.\n\n"+
		"SUGGESTIONS (JSON): %s\n\n%s", list, fence(script))
}

// AskPrompt builds the user message for a free-form question.
func AskPrompt(script, question string) string {
	return fmt.Sprintf("%s\n\nQUESTION: %s", fence(script), strings.TrimSpace(question))
}

func fence(script string) string {
	return "SCRIPT:\n```bash\n" + script + "\n```"
}
