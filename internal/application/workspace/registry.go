package workspace

import (
	"context"
	"errors"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
)

// ErrNoArchive is returned when archive queries are made without a repository.
var ErrNoArchive = errors.New("archive is not configured")

// DefaultCapacity bounds a registry created with a non-positive capacity.
const DefaultCapacity = 1024

// Registry hands out workspaces by id, creating them on first use. It keeps
// at most capacity workspaces; the least recently used one is closed when a
// new one would exceed that.
type Registry struct {
	client Client
	opts   []Option

	// mu serializes create-if-absent in Get.
	mu      sync.Mutex
	spaces  *lru.Cache[string, *Workspace]
	closing sync.WaitGroup
}

func NewRegistry(client Client, capacity int, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Registry{client: client, opts: opts}
	// only fails for a non-positive size
	r.spaces, _ = lru.NewWithEvict[string, *Workspace](capacity, r.evicted)
	return r
}

// evicted runs under the cache lock. Close waits for in-flight analyses, so
// it happens off that lock.
func (r *Registry) evicted(_ string, w *Workspace) {
	r.closing.Add(1)
	go func() {
		defer r.closing.Done()
		w.Close()
	}()
}

// Get returns the workspace for id, creating it if needed.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.spaces.Get(id); ok {
		return w
	}
	w := New(id, r.client, r.opts...)
	r.spaces.Add(id, w)
	return w
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	return r.spaces.Get(id)
}

// Drop closes and forgets a workspace.
func (r *Registry) Drop(id string) bool {
	return r.spaces.Remove(id)
}

func (r *Registry) Len() int { return r.spaces.Len() }

func (r *Registry) IDs() []string {
	ids := r.spaces.Keys()
	sort.Strings(ids)
	return ids
}

// Archive pages through the archive of workspace id. A workspace that is not
// live (never used, evicted or lost on restart) is read through a throwaway
// instance so its history stays reachable.
func (r *Registry) Archive(ctx context.Context, id string, page, pageSize int) (archive.Page, error) {
	if w, ok := r.spaces.Peek(id); ok {
		return w.Archive(ctx, page, pageSize)
	}
	w := New(id, r.client, r.opts...)
	defer w.Close()
	return w.Archive(ctx, page, pageSize)
}

// Close closes every workspace and waits for them to finish.
func (r *Registry) Close() {
	r.spaces.Purge()
	r.closing.Wait()
}
