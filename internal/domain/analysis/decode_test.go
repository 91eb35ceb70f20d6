package analysis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResult() map[string]any {
	return map[string]any{
		"summary":            "Backs up /etc.\\nRuns nightly.",
		"strengths":          []string{"short"},
		"weaknesses":         []string{},
		"suggestions":        []string{"quote variables"},
		"commandBreakdown":   []map[string]string{{"part": "tar", "explanation": "archiver"}},
		"securityAudit":      []map[string]string{},
		"performanceProfile": []map[string]string{{"issue": "none", "suggestion": "none"}},
		"portabilityAnalysis": map[string]any{
			"score": 14, "summary": "bash only", "issues": []string{},
		},
		"testSuite":        map[string]string{"framework": "bats", "content": "  @test \"x\" {\\n  run true\\n}  "},
		"translations":     map[string]string{"python": "print(1)", "powershell": "Write-Output 1"},
		"mermaidFlowchart": "graph TD\\nA[\"start\"]",
		"githubRepo": map[string]string{
			"readmeContent": "# x", "gitignoreContent": "*.log", "fileStructure": ".",
			"dockerfileContent": "FROM alpine", "manPageContent": ".TH X", "pullRequestTitle": " t ",
			"pullRequestBody": "b",
		},
	}
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDecodeResultNormalizes(t *testing.T) {
	// json.Marshal keeps the backslash-n sequences literal, like a double-escaping model
	r, err := DecodeResult("```json\n" + encode(t, validResult()) + "\n```")
	require.NoError(t, err)

	assert.Equal(t, "Backs up /etc.\nRuns nightly.", r.Summary)
	assert.Equal(t, "@test \"x\" {\n  run true\n}", r.TestSuite.Content)
	assert.Equal(t, "graph TD\nA[\"start\"]", r.MermaidFlowchart)
	assert.Equal(t, 10, r.PortabilityAnalysis.Score)
	assert.Equal(t, "t", r.GithubRepo.PullRequestTitle)
	assert.Empty(t, r.SecurityAudit)
}

func TestDecodeResultFractionalScore(t *testing.T) {
	cases := map[string]int{
		"8.0":  8,
		"7.5":  8,
		"7.49": 7,
		"0.2":  1,
		"1e2":  10,
		"-3":   1,
	}
	for raw, want := range cases {
		v := validResult()
		v["portabilityAnalysis"] = map[string]any{
			"score": json.RawMessage(raw), "summary": "posix", "issues": []string{},
		}
		r, err := DecodeResult(encode(t, v))
		require.NoError(t, err, raw)
		assert.Equal(t, want, r.PortabilityAnalysis.Score, raw)
		assert.Equal(t, "posix", r.PortabilityAnalysis.Summary)
	}
}

func TestDecodeResultMissingSecurityAudit(t *testing.T) {
	v := validResult()
	delete(v, "securityAudit")

	r, err := DecodeResult(encode(t, v))
	assert.Nil(t, r)
	require.ErrorIs(t, err, ErrIncompleteResponse)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"securityAudit"}, fe.Fields)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestDecodeResultWrongKinds(t *testing.T) {
	v := validResult()
	v["strengths"] = "short"
	v["commandBreakdown"] = []map[string]any{{"part": "tar"}}
	v["githubRepo"] = map[string]string{"readmeContent": "# x"}
	v["portabilityAnalysis"] = map[string]any{"score": "high", "summary": "", "issues": []string{}}

	_, err := DecodeResult(encode(t, v))
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Fields, "strengths")
	assert.Contains(t, fe.Fields, "commandBreakdown[0].explanation")
	assert.Contains(t, fe.Fields, "githubRepo.dockerfileContent")
	assert.Contains(t, fe.Fields, "portabilityAnalysis.score")
}

func TestDecodeResultMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", "null", "[1,2]"} {
		_, err := DecodeResult(raw)
		assert.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}

func TestDecodeRefactor(t *testing.T) {
	r, err := DecodeRefactor(`{"originalCode":" rm -rf $D ","refactoredCode":"rm -rf \"${D:?}\"","explanation":"guard"}`)
	require.NoError(t, err)
	assert.Equal(t, "rm -rf $D", r.OriginalCode)
	assert.Equal(t, `rm -rf "${D:?}"`, r.RefactoredCode)

	_, err = DecodeRefactor(`{"originalCode":"a","explanation":"b"}`)
	require.ErrorIs(t, err, ErrMissingFields)
	assert.Contains(t, err.Error(), "refactoredCode")
}

func TestDecodeRefactorAll(t *testing.T) {
	out, err := DecodeRefactorAll(`[
		{"suggestion":"s1","originalCode":"a","refactoredCode":"b","explanation":"e"},
		{"suggestion":"s2","originalCode":"c","refactoredCode":"d","explanation":"e"}
	]`)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[1].Suggestion)

	_, err = DecodeRefactorAll(`{"suggestion":"s1"}`)
	assert.ErrorIs(t, err, ErrNotArray)

	_, err = DecodeRefactorAll(`[{"suggestion":"s1","originalCode":"a","refactoredCode":"b","explanation":"e"},{"suggestion":"s2","originalCode":"c","explanation":"e"}]`)
	require.ErrorIs(t, err, ErrMissingFields)
	assert.Contains(t, err.Error(), "[1].refactoredCode")

	_, err = DecodeRefactorAll(`[1`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUnescapeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb", UnescapeNewlines(`a\nb`))

	clean := "line one\nline two"
	assert.Equal(t, clean, UnescapeNewlines(clean))
	assert.Equal(t, clean, UnescapeNewlines(UnescapeNewlines(clean)))
}
