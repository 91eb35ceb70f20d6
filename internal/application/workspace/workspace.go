package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/scriptlens/internal/application"
	"github.com/bryanwahyu/scriptlens/internal/debounce"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

const (
	DefaultLiveDelay     = 1500 * time.Millisecond
	DefaultMaxConcurrent = 4
)

// Client is the AI client the workspace drives.
type Client interface {
	Analyze(ctx context.Context, script string) (*analysis.Result, error)
	Refactor(ctx context.Context, script, suggestion string) (*analysis.RefactorResult, error)
	RefactorAll(ctx context.Context, script string, suggestions []string) ([]analysis.RefactorResult, error)
	Ask(ctx context.Context, script, question string) (string, error)
}

// slot owns everything attached to one script; removing the slot removes it all.
type slot struct {
	script  domain.Script
	result  *analysis.Result
	loading bool
	err     string
	chat    []domain.ChatMessage
}

// Workspace holds the open scripts and their analysis state.
// All methods are safe for concurrent use. AI calls run without the lock
// held; each completion touches only its own script's slot.
type Workspace struct {
	id      string
	client  Client
	archive archive.Repository
	clock   application.Clock
	log     *zap.Logger

	liveDelay     time.Duration
	maxConcurrent int

	mu        sync.Mutex
	slots     []*slot
	active    domain.ScriptID
	counter   int
	live      bool
	closed    bool

	// lastError belongs to the script errorOf; only that script clears it.
	lastError string
	errorOf   domain.ScriptID

	debouncer *debounce.Debouncer[domain.ScriptID]
	wg        sync.WaitGroup
}

type Option func(*Workspace)

// WithArchive records every AI operation in repo. Failures to record are logged only.
func WithArchive(repo archive.Repository) Option { return func(w *Workspace) { w.archive = repo } }

func WithClock(c application.Clock) Option { return func(w *Workspace) { w.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(w *Workspace) { w.log = l } }

// WithLiveDelay sets the quiet period before a live re-analysis.
func WithLiveDelay(d time.Duration) Option { return func(w *Workspace) { w.liveDelay = d } }

// WithMaxConcurrent bounds AnalyzeAll fan-out.
func WithMaxConcurrent(n int) Option { return func(w *Workspace) { w.maxConcurrent = n } }

func New(id string, client Client, opts ...Option) *Workspace {
	w := &Workspace{
		id:            id,
		client:        client,
		clock:         application.SystemClock{},
		log:           zap.NewNop(),
		liveDelay:     DefaultLiveDelay,
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, o := range opts {
		o(w)
	}
	w.log = w.log.With(zap.String("workspace", id))
	w.debouncer = debounce.New(w.liveDelay, w.liveAnalyze)
	return w
}

func (w *Workspace) ID() string { return w.id }

// find must be called with mu held.
func (w *Workspace) find(id domain.ScriptID) (int, *slot) {
	for i, s := range w.slots {
		if s.script.ID == id {
			return i, s
		}
	}
	return -1, nil
}

func (w *Workspace) lookup(id domain.ScriptID) (*slot, error) {
	if w.closed {
		return nil, domain.ErrClosed
	}
	if _, s := w.find(id); s != nil {
		return s, nil
	}
	return nil, domain.ErrScriptNotFound
}

// AddScript creates an empty script with a generated name and activates it.
func (w *Workspace) AddScript() (domain.Script, error) {
	return w.AddScriptWith("", "")
}

// AddScriptWith creates a script with the given name and content and activates it.
// A blank name is replaced by a generated one.
func (w *Workspace) AddScriptWith(name, content string) (domain.Script, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return domain.Script{}, domain.ErrClosed
	}
	w.counter++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("script-%d.sh", w.counter)
	}
	s := &slot{script: domain.Script{
		ID:      domain.ScriptID(uuid.NewString()),
		Name:    name,
		Content: content,
	}}
	w.slots = append(w.slots, s)
	w.active = s.script.ID
	return s.script, nil
}

// RemoveScript deletes a script with its result, loading flag, error and chat.
// Removing the active script activates the first remaining one, or none.
func (w *Workspace) RemoveScript(id domain.ScriptID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return domain.ErrClosed
	}
	i, s := w.find(id)
	if s == nil {
		return domain.ErrScriptNotFound
	}
	w.slots = append(w.slots[:i], w.slots[i+1:]...)
	w.clearErrorLocked(id)
	if w.active == id {
		w.active = ""
		if len(w.slots) > 0 {
			w.active = w.slots[0].script.ID
		}
	}
	return nil
}

func (w *Workspace) Activate(id domain.ScriptID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.lookup(id); err != nil {
		return err
	}
	w.active = id
	return nil
}

// ActiveID returns the active script id, empty when there are no scripts.
func (w *Workspace) ActiveID() domain.ScriptID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Workspace) Rename(id domain.ScriptID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return err
	}
	s.script.Name = name
	return nil
}

// SetContent replaces a script's content. In live mode an edit of the
// active script schedules a debounced analysis.
func (w *Workspace) SetContent(id domain.ScriptID, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return err
	}
	s.script.Content = content
	w.contentChangedLocked(id)
	return nil
}

func (w *Workspace) contentChangedLocked(id domain.ScriptID) {
	if w.live && id == w.active {
		w.debouncer.Call(id)
	}
}

// SetLiveAnalysis toggles live mode. Turning it off cancels a pending
// analysis but leaves one already running alone.
func (w *Workspace) SetLiveAnalysis(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.live = on
	if !on {
		w.debouncer.Cancel()
	}
}

func (w *Workspace) LiveAnalysis() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.live
}

func (w *Workspace) liveAnalyze(id domain.ScriptID) {
	w.mu.Lock()
	if w.closed || !w.live {
		w.mu.Unlock()
		return
	}
	// script yang dikosongkan tidak dianalisis, bukan error
	if _, s := w.find(id); s == nil || s.script.Content == "" {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	if _, err := w.Analyze(context.Background(), id); err != nil {
		w.log.Debug("live analysis failed", zap.String("script_id", string(id)), zap.Error(err))
	}
}

// Analyze runs a full analysis of one script. The prior result is cleared
// before the call and the loading flag is cleared afterwards whatever the
// outcome. Completions for scripts removed in the meantime are dropped.
func (w *Workspace) Analyze(ctx context.Context, id domain.ScriptID) (*analysis.Result, error) {
	w.mu.Lock()
	s, err := w.lookup(id)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if s.script.Content == "" {
		s.err = domain.MsgEmptyScript
		w.setErrorLocked(id, domain.MsgEmptyScript)
		w.mu.Unlock()
		return nil, domain.ErrEmptyScript
	}
	s.loading = true
	s.result = nil
	s.err = ""
	w.clearErrorLocked(id)
	script := s.script
	w.mu.Unlock()

	res, err := w.client.Analyze(ctx, script.Content)

	w.mu.Lock()
	_, cur := w.find(id)
	if cur == nil {
		w.mu.Unlock()
		w.log.Debug("dropping analysis for removed script", zap.String("script_id", string(id)))
		return res, err
	}
	cur.loading = false
	if err != nil {
		opErr := &domain.OpError{Msg: fmt.Sprintf("Analysis failed for %q: %s", script.Name, err), Err: err}
		cur.err = opErr.Msg
		w.setErrorLocked(id, opErr.Msg)
		err = opErr
	} else {
		cur.result = res
	}
	w.mu.Unlock()

	w.record(ctx, script, archive.OpAnalyze, res, err)
	return res, err
}

func (w *Workspace) setErrorLocked(id domain.ScriptID, msg string) {
	w.lastError, w.errorOf = msg, id
}

func (w *Workspace) clearErrorLocked(id domain.ScriptID) {
	if w.errorOf == id {
		w.lastError, w.errorOf = "", ""
	}
}

// AnalyzeAll analyzes every script with non-empty content concurrently and
// waits for all of them. One failure never cancels or blocks the others.
func (w *Workspace) AnalyzeAll(ctx context.Context) []domain.ScriptID {
	ids := w.analyzable()
	w.runAll(ctx, ids)
	return ids
}

// StartAnalyzeAll is AnalyzeAll without waiting. ctx must outlive the
// caller's request; use context.WithoutCancel from handlers.
func (w *Workspace) StartAnalyzeAll(ctx context.Context) ([]domain.ScriptID, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, domain.ErrClosed
	}
	ids := w.analyzableLocked()
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.runAll(ctx, ids)
	}()
	return ids, nil
}

func (w *Workspace) analyzable() []domain.ScriptID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.analyzableLocked()
}

func (w *Workspace) analyzableLocked() []domain.ScriptID {
	ids := make([]domain.ScriptID, 0, len(w.slots))
	for _, s := range w.slots {
		if s.script.Content != "" {
			ids = append(ids, s.script.ID)
		}
	}
	return ids
}

func (w *Workspace) runAll(ctx context.Context, ids []domain.ScriptID) {
	// plain Group, bukan WithContext: error satu script tidak boleh cancel yang lain
	var g errgroup.Group
	if w.maxConcurrent > 0 {
		g.SetLimit(w.maxConcurrent)
	}
	for _, id := range ids {
		g.Go(func() error {
			if _, err := w.Analyze(ctx, id); err != nil {
				w.log.Info("analysis failed", zap.String("script_id", string(id)), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Refactor asks for a fix answering one suggestion against the script's current content.
func (w *Workspace) Refactor(ctx context.Context, id domain.ScriptID, suggestion string) (*analysis.RefactorResult, error) {
	script, err := w.scriptFor(id)
	if err != nil {
		return nil, err
	}
	res, err := w.client.Refactor(ctx, script.Content, suggestion)
	if err != nil {
		err = &domain.OpError{Msg: fmt.Sprintf("Failed to generate fix for %q: %s", suggestion, err), Err: err}
	}
	w.record(ctx, script, archive.OpRefactor, res, err)
	return res, err
}

// RefactorAll asks for one fix per suggestion in a single call.
func (w *Workspace) RefactorAll(ctx context.Context, id domain.ScriptID, suggestions []string) ([]analysis.RefactorResult, error) {
	script, err := w.scriptFor(id)
	if err != nil {
		return nil, err
	}
	res, err := w.client.RefactorAll(ctx, script.Content, suggestions)
	if err != nil {
		err = &domain.OpError{Msg: fmt.Sprintf("Failed to generate fixes: %s", err), Err: err}
	}
	w.record(ctx, script, archive.OpRefactorAll, res, err)
	return res, err
}

func (w *Workspace) scriptFor(id domain.ScriptID) (domain.Script, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return domain.Script{}, err
	}
	return s.script, nil
}

// ApplyFix replaces the first literal occurrence of original with refactored.
// It reports false, leaving the content untouched, when original is empty or absent.
func (w *Workspace) ApplyFix(id domain.ScriptID, original, refactored string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return false, err
	}
	next, ok := applyFix(s.script.Content, original, refactored)
	if !ok {
		return false, nil
	}
	s.script.Content = next
	w.contentChangedLocked(id)
	return true, nil
}

// ApplyAllFixes applies fixes in order, each against the output of the
// previous one. Fixes whose original is not found are skipped.
func (w *Workspace) ApplyAllFixes(id domain.ScriptID, fixes []analysis.Fix) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return 0, err
	}
	content, applied := s.script.Content, 0
	for _, f := range fixes {
		if next, ok := applyFix(content, f.OriginalCode, f.RefactoredCode); ok {
			content = next
			applied++
		}
	}
	if applied > 0 {
		s.script.Content = content
		w.contentChangedLocked(id)
	}
	return applied, nil
}

func applyFix(content, original, refactored string) (string, bool) {
	if original == "" || !strings.Contains(content, original) {
		return content, false
	}
	return strings.Replace(content, original, refactored, 1), true
}

// Ask appends the question to the script's chat and then the answer. An AI
// failure is answered with an apology message rather than an error.
func (w *Workspace) Ask(ctx context.Context, id domain.ScriptID, question string) (domain.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatMessage{}, domain.ErrEmptyQuestion
	}
	w.mu.Lock()
	s, err := w.lookup(id)
	if err != nil {
		w.mu.Unlock()
		return domain.ChatMessage{}, err
	}
	s.chat = append(s.chat, domain.ChatMessage{Role: domain.RoleUser, Content: question, CreatedAt: w.clock.Now()})
	script := s.script
	w.mu.Unlock()

	answer, err := w.client.Ask(ctx, script.Content, question)
	msg := domain.ChatMessage{Role: domain.RoleAssistant, Content: answer}
	if err != nil {
		msg.Content = "Sorry, I encountered an error: " + err.Error()
	}

	w.mu.Lock()
	if _, cur := w.find(id); cur != nil {
		msg.CreatedAt = w.clock.Now()
		cur.chat = append(cur.chat, msg)
	}
	w.mu.Unlock()

	w.record(ctx, script, archive.OpAsk, answer, err)
	return msg, nil
}

func (w *Workspace) Chat(id domain.ScriptID) ([]domain.ChatMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]domain.ChatMessage{}, s.chat...), nil
}

func (w *Workspace) ClearChat(id domain.ScriptID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return err
	}
	s.chat = nil
	return nil
}

// Script returns the current state of one script.
func (w *Workspace) Script(id domain.ScriptID) (domain.ScriptState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return domain.ScriptState{}, err
	}
	return w.stateLocked(s), nil
}

// Result returns the latest analysis of a script, nil if there is none.
func (w *Workspace) Result(id domain.ScriptID) (*analysis.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.result, nil
}

func (w *Workspace) Snapshot() domain.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := domain.Snapshot{
		ID:           w.id,
		ActiveID:     w.active,
		LiveAnalysis: w.live,
		LastError:    w.lastError,
		Scripts:      make([]domain.ScriptState, 0, len(w.slots)),
	}
	for _, s := range w.slots {
		snap.Scripts = append(snap.Scripts, w.stateLocked(s))
	}
	return snap
}

func (w *Workspace) stateLocked(s *slot) domain.ScriptState {
	return domain.ScriptState{
		Script:  s.script,
		Active:  s.script.ID == w.active,
		Loading: s.loading,
		Error:   s.err,
		Result:  s.result,
	}
}

// Close stops live analysis and waits for background analyses to finish.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.closed = true
	w.live = false
	w.mu.Unlock()
	w.debouncer.Stop()
	w.wg.Wait()
}
