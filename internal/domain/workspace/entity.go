package workspace

import (
	"time"

	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
)

// ScriptID identifier type
type ScriptID string

// Script is one shell script open in a workspace.
type Script struct {
	ID      ScriptID `json:"id"`
	Name    string   `json:"name"`
	Content string   `json:"content"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the Q&A about a script.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ScriptState is the read model of one script and everything attached to it.
type ScriptState struct {
	Script
	Active  bool             `json:"active"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Result  *analysis.Result `json:"result,omitempty"`
}

// Snapshot is a consistent copy of a workspace at one moment.
type Snapshot struct {
	ID           string        `json:"id"`
	ActiveID     ScriptID      `json:"active_id,omitempty"`
	LiveAnalysis bool          `json:"live_analysis"`
	LastError    string        `json:"last_error,omitempty"`
	Scripts      []ScriptState `json:"scripts"`
}
