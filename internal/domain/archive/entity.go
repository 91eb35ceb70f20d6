package archive

import "time"

// EntryID identifier type
type EntryID string

// Operation names the AI operation that produced an entry.
type Operation string

const (
	OpAnalyze     Operation = "analyze"
	OpRefactor    Operation = "refactor"
	OpRefactorAll Operation = "refactor_all"
	OpAsk         Operation = "ask"
	OpPublish     Operation = "publish"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is one archived AI operation, kept for auditing and retrieval.
type Entry struct {
	ID          EntryID   `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	ScriptID    string    `json:"script_id"`
	ScriptName  string    `json:"script_name"`
	Operation   Operation `json:"operation"`
	Status      Status    `json:"status"`
	Result      string    `json:"result,omitempty"` // JSON string from AI
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page represents a paginated response with data and metadata
type Page struct {
	Data       []*Entry `json:"data"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Total      int64    `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
}

// NewPage fills the paging metadata for data.
func NewPage(data []*Entry, page, pageSize int, total int64) Page {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if data == nil {
		data = []*Entry{}
	}
	return Page{Data: data, Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}
