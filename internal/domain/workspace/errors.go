package workspace

import "errors"

// MsgEmptyScript is shown when analysis is requested for blank content.
const MsgEmptyScript = "Script content cannot be empty."

var (
	ErrScriptNotFound    = errors.New("script not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrEmptyScript       = errors.New(MsgEmptyScript)
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrEmptyName         = errors.New("script name cannot be empty")
	ErrClosed            = errors.New("workspace is closed")
)

// OpError scopes an AI failure to the script or suggestion it belongs to.
// Msg is the user facing text; Err keeps the typed cause for errors.Is/As.
type OpError struct {
	Msg string
	Err error
}

func (e *OpError) Error() string { return e.Msg }

func (e *OpError) Unwrap() error { return e.Err }
