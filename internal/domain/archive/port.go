package archive

import "context"

// Repository port for persisting and querying archived operations
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	Paginate(ctx context.Context, workspace string, page, pageSize int) ([]*Entry, error)
	Count(ctx context.Context, workspace string) (int64, error)
	LatestByScript(ctx context.Context, workspace, scriptID string, op Operation) (*Entry, error)
}

// ReportStore publishes rendered reports and returns where they can be fetched.
type ReportStore interface {
	Publish(ctx context.Context, key, contentType string, data []byte) (string, error)
}
