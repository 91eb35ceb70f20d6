package ai

import "context"

// Task selects the prompt contract a request is made under.
type Task string

const (
	TaskAnalyze     Task = "analyze"
	TaskRefactor    Task = "refactor"
	TaskRefactorAll Task = "refactor_all"
	TaskAsk         Task = "ask"
)

// WantsJSON reports whether the task expects a structured JSON reply.
func (t Task) WantsJSON() bool { return t != TaskAsk }

// Request is one call to a model provider. System and User carry the
// rendered prompts; the raw inputs are kept for providers that work on
// them directly.
type Request struct {
	Task   Task
	System string
	User   string

	Script      string
	Suggestions []string
	Question    string
}

// Generator is the port to a generative model provider. Implementations
// return the raw model text; decoding and validation happen above them.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
