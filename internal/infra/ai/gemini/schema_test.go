package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
)

func TestSchemaPerTask(t *testing.T) {
	s := Schema(ai.TaskAnalyze)
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Required, 12)
	assert.Equal(t, genai.TypeInteger, s.Properties["portabilityAnalysis"].Properties["score"].Type)

	batch := Schema(ai.TaskRefactorAll)
	require.NotNil(t, batch)
	assert.Equal(t, genai.TypeArray, batch.Type)
	assert.Contains(t, batch.Items.Required, "suggestion")

	assert.Nil(t, Schema(ai.TaskAsk))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(t.Context(), " ", "")
	assert.Error(t, err)
}
