package gemini

import (
	"google.golang.org/genai"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
)

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func strList() *genai.Schema { return &genai.Schema{Type: genai.TypeArray, Items: str()} }

func object(keys ...string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(keys))
	for _, k := range keys {
		props[k] = str()
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: keys}
}

func objectOf(props map[string]*genai.Schema, order ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: order, PropertyOrdering: order}
}

func listOf(s *genai.Schema) *genai.Schema { return &genai.Schema{Type: genai.TypeArray, Items: s} }

// Schema returns the response schema for a JSON task, nil for free text.
func Schema(task ai.Task) *genai.Schema {
	switch task {
	case ai.TaskAnalyze:
		return analysisSchema()
	case ai.TaskRefactor:
		return object("originalCode", "refactoredCode", "explanation")
	case ai.TaskRefactorAll:
		return listOf(object("suggestion", "originalCode", "refactoredCode", "explanation"))
	default:
		return nil
	}
}

func analysisSchema() *genai.Schema {
	portability := objectOf(map[string]*genai.Schema{
		"score":   {Type: genai.TypeInteger, Description: "1 (poor) to 10 (excellent)"},
		"summary": str(),
		"issues":  strList(),
	}, "score", "summary", "issues")

	return objectOf(map[string]*genai.Schema{
		"summary":             str(),
		"strengths":           strList(),
		"weaknesses":          strList(),
		"suggestions":         strList(),
		"commandBreakdown":    listOf(object("part", "explanation")),
		"securityAudit":       listOf(object("vulnerability", "recommendation")),
		"performanceProfile":  listOf(object("issue", "suggestion")),
		"portabilityAnalysis": portability,
		"testSuite":           object("framework", "content"),
		"translations":        object("python", "powershell"),
		"mermaidFlowchart":    {Type: genai.TypeString, Description: `Mermaid "graph TD" source with every node label in double quotes`},
		"githubRepo": object(
			"readmeContent",
			"gitignoreContent",
			"fileStructure",
			"dockerfileContent",
			"manPageContent",
			"pullRequestTitle",
			"pullRequestBody",
		),
	},
		"summary",
		"strengths",
		"weaknesses",
		"suggestions",
		"commandBreakdown",
		"securityAudit",
		"performanceProfile",
		"portabilityAnalysis",
		"testSuite",
		"translations",
		"mermaidFlowchart",
		"githubRepo",
	)
}
