package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bryanwahyu/scriptlens/internal/application"
	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/domain/archive"
	domain "github.com/bryanwahyu/scriptlens/internal/domain/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClient answers by script content. Scripts listed in fail return
// failErr; a non-nil gate blocks Analyze until it is closed.
type fakeClient struct {
	mu       sync.Mutex
	analyzed []string
	fail     map[string]error
	gate     chan struct{}
	started  chan string
	answer   string
	askErr   error
	fixes    []analysis.RefactorResult
}

func newFakeClient() *fakeClient {
	return &fakeClient{fail: map[string]error{}, started: make(chan string, 16)}
}

func (f *fakeClient) Analyze(ctx context.Context, script string) (*analysis.Result, error) {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, script)
	gate, err := f.gate, f.fail[script]
	f.mu.Unlock()
	f.started <- script
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &analysis.Result{Summary: "summary of " + script}, nil
}

func (f *fakeClient) Refactor(_ context.Context, script, suggestion string) (*analysis.RefactorResult, error) {
	if err := f.fail[script]; err != nil {
		return nil, err
	}
	return &analysis.RefactorResult{Suggestion: suggestion, OriginalCode: "a", RefactoredCode: "b", Explanation: "x"}, nil
}

func (f *fakeClient) RefactorAll(_ context.Context, script string, _ []string) ([]analysis.RefactorResult, error) {
	if err := f.fail[script]; err != nil {
		return nil, err
	}
	return f.fixes, nil
}

func (f *fakeClient) Ask(context.Context, string, string) (string, error) {
	return f.answer, f.askErr
}

func (f *fakeClient) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.analyzed...)
}

type memArchive struct {
	mu      sync.Mutex
	entries []*archive.Entry
	saveErr error
}

func (m *memArchive) Save(_ context.Context, e *archive.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memArchive) Paginate(_ context.Context, ws string, page, size int) ([]*archive.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*archive.Entry
	for _, e := range m.entries {
		if e.WorkspaceID == ws {
			out = append(out, e)
		}
	}
	start := (page - 1) * size
	if start >= len(out) {
		return nil, nil
	}
	return out[start:min(start+size, len(out))], nil
}

func (m *memArchive) Count(_ context.Context, ws string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.entries {
		if e.WorkspaceID == ws {
			n++
		}
	}
	return n, nil
}

func (m *memArchive) LatestByScript(context.Context, string, string, archive.Operation) (*archive.Entry, error) {
	return nil, errors.New("not implemented")
}

func newWorkspace(t *testing.T, c Client, opts ...Option) *Workspace {
	t.Helper()
	w := New("ws", c, opts...)
	t.Cleanup(w.Close)
	return w
}

func TestAddScriptActivatesWithGeneratedName(t *testing.T) {
	w := newWorkspace(t, newFakeClient())

	a, err := w.AddScript()
	require.NoError(t, err)
	b, err := w.AddScript()
	require.NoError(t, err)

	assert.Equal(t, "script-1.sh", a.Name)
	assert.Equal(t, "script-2.sh", b.Name)
	assert.Empty(t, a.Content)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, b.ID, w.ActiveID())
}

func TestRemoveScript(t *testing.T) {
	w := newWorkspace(t, newFakeClient())
	a, _ := w.AddScriptWith("a.sh", "echo a")
	b, _ := w.AddScriptWith("b.sh", "echo b")
	c, _ := w.AddScriptWith("c.sh", "echo c")

	t.Run("non active keeps activation", func(t *testing.T) {
		require.NoError(t, w.RemoveScript(b.ID))
		assert.Equal(t, c.ID, w.ActiveID())
	})
	t.Run("active falls back to first remaining", func(t *testing.T) {
		require.NoError(t, w.RemoveScript(c.ID))
		assert.Equal(t, a.ID, w.ActiveID())
	})
	t.Run("last leaves none active", func(t *testing.T) {
		require.NoError(t, w.RemoveScript(a.ID))
		assert.Empty(t, w.ActiveID())
		assert.Empty(t, w.Snapshot().Scripts)
	})
	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, w.RemoveScript("nope"), domain.ErrScriptNotFound)
	})
}

func TestRemoveCascadesResultAndChat(t *testing.T) {
	fc := newFakeClient()
	fc.answer = "yes"
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("", "echo hi")

	_, err := w.Analyze(context.Background(), s.ID)
	require.NoError(t, err)
	_, err = w.Ask(context.Background(), s.ID, "ok?")
	require.NoError(t, err)

	require.NoError(t, w.RemoveScript(s.ID))
	_, err = w.Result(s.ID)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
	_, err = w.Chat(s.ID)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestAnalyzeEmptyContentSkipsClient(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc)
	s, _ := w.AddScript()

	_, err := w.Analyze(context.Background(), s.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyScript)
	assert.Empty(t, fc.calls())

	st, err := w.Script(s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MsgEmptyScript, st.Error)
	assert.False(t, st.Loading)
}

func TestAnalyzeSetsLoadingThenResult(t *testing.T) {
	fc := newFakeClient()
	fc.gate = make(chan struct{})
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("", "echo hi")

	done := make(chan error, 1)
	go func() {
		_, err := w.Analyze(context.Background(), s.ID)
		done <- err
	}()
	<-fc.started

	st, _ := w.Script(s.ID)
	assert.True(t, st.Loading)
	assert.Nil(t, st.Result)

	close(fc.gate)
	require.NoError(t, <-done)

	st, _ = w.Script(s.ID)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Result)
	assert.Equal(t, "summary of echo hi", st.Result.Summary)
}

func TestAnalyzeFailureClearsPriorResult(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("deploy.sh", "echo hi")

	_, err := w.Analyze(context.Background(), s.ID)
	require.NoError(t, err)

	cause := &ai.Error{Task: ai.TaskAnalyze, Kind: ai.KindIncomplete, Err: analysis.ErrIncompleteResponse}
	fc.fail["echo hi"] = cause
	_, err = w.Analyze(context.Background(), s.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrIncompleteResponse)

	st, _ := w.Script(s.ID)
	assert.Nil(t, st.Result)
	assert.False(t, st.Loading)
	assert.Equal(t, `Analysis failed for "deploy.sh": `+cause.Error(), st.Error)
	assert.Equal(t, st.Error, w.Snapshot().LastError)
}

func TestLastErrorStaysWithFailingScript(t *testing.T) {
	fc := newFakeClient()
	fc.fail["a"] = errors.New("boom")
	w := newWorkspace(t, fc)
	a, _ := w.AddScriptWith("a.sh", "a")
	b, _ := w.AddScriptWith("b.sh", "b")

	_, err := w.Analyze(context.Background(), a.ID)
	require.Error(t, err)
	_, err = w.Analyze(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, `Analysis failed for "a.sh": boom`, w.Snapshot().LastError)

	delete(fc.fail, "a")
	_, err = w.Analyze(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, w.Snapshot().LastError)

	fc.fail["b"] = errors.New("boom")
	_, _ = w.Analyze(context.Background(), b.ID)
	require.NotEmpty(t, w.Snapshot().LastError)
	require.NoError(t, w.RemoveScript(b.ID))
	assert.Empty(t, w.Snapshot().LastError)
}

func TestAnalyzeWhitespaceContent(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("blank.sh", " \n")

	_, err := w.Analyze(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ScriptID{s.ID}, w.AnalyzeAll(context.Background()))
	assert.Equal(t, []string{" \n", " \n"}, fc.calls())
}

func TestAnalyzeDropsCompletionForRemovedScript(t *testing.T) {
	fc := newFakeClient()
	fc.gate = make(chan struct{})
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("", "echo hi")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Analyze(context.Background(), s.ID)
	}()
	<-fc.started
	require.NoError(t, w.RemoveScript(s.ID))
	close(fc.gate)
	<-done

	assert.Empty(t, w.Snapshot().Scripts)
}

func TestAnalyzeAllSkipsEmptyAndIsolatesFailures(t *testing.T) {
	fc := newFakeClient()
	fc.fail["bad"] = errors.New("boom")
	w := newWorkspace(t, fc, WithMaxConcurrent(2))
	good, _ := w.AddScriptWith("good.sh", "good")
	_, _ = w.AddScriptWith("empty.sh", "")
	bad, _ := w.AddScriptWith("bad.sh", "bad")

	ids := w.AnalyzeAll(context.Background())
	assert.ElementsMatch(t, []domain.ScriptID{good.ID, bad.ID}, ids)
	assert.ElementsMatch(t, []string{"good", "bad"}, fc.calls())

	g, _ := w.Script(good.ID)
	b, _ := w.Script(bad.ID)
	assert.NotNil(t, g.Result)
	assert.Empty(t, g.Error)
	assert.Nil(t, b.Result)
	assert.Contains(t, b.Error, `Analysis failed for "bad.sh"`)
}

func TestAnalyzeAllOnlyNonEmpty(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc)
	x, _ := w.AddScriptWith("", "x")
	_, _ = w.AddScriptWith("", "")

	assert.Equal(t, []domain.ScriptID{x.ID}, w.AnalyzeAll(context.Background()))
	assert.Equal(t, []string{"x"}, fc.calls())
}

func TestStartAnalyzeAllRunsInBackground(t *testing.T) {
	fc := newFakeClient()
	fc.gate = make(chan struct{})
	w := New("ws", fc)
	s, _ := w.AddScriptWith("", "x")

	ids, err := w.StartAnalyzeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ScriptID{s.ID}, ids)
	<-fc.started
	close(fc.gate)
	w.Close()

	_, err = w.StartAnalyzeAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestApplyFix(t *testing.T) {
	w := newWorkspace(t, newFakeClient())
	s, _ := w.AddScriptWith("", "echo a\necho a\n")

	ok, err := w.ApplyFix(s.ID, "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.ApplyFix(s.ID, "", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.ApplyFix(s.ID, "echo a", "echo b")
	require.NoError(t, err)
	assert.True(t, ok)

	st, _ := w.Script(s.ID)
	assert.Equal(t, "echo b\necho a\n", st.Content)
}

func TestApplyAllFixesChainsInOrder(t *testing.T) {
	w := newWorkspace(t, newFakeClient())
	s, _ := w.AddScriptWith("", "cat f | grep x")

	n, err := w.ApplyAllFixes(s.ID, []analysis.Fix{
		{OriginalCode: "cat f | grep x", RefactoredCode: "grep x f"},
		{OriginalCode: "grep x f", RefactoredCode: "grep -F x f"},
		{OriginalCode: "absent", RefactoredCode: "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, _ := w.Script(s.ID)
	assert.Equal(t, "grep -F x f", st.Content)
}

func TestRefactorErrorsAreScoped(t *testing.T) {
	fc := newFakeClient()
	fc.fail["x"] = errors.New("timeout")
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("", "x")

	_, err := w.Refactor(context.Background(), s.ID, "quote vars")
	assert.EqualError(t, err, `Failed to generate fix for "quote vars": timeout`)

	_, err = w.RefactorAll(context.Background(), s.ID, []string{"a"})
	assert.EqualError(t, err, "Failed to generate fixes: timeout")

	var op *domain.OpError
	assert.ErrorAs(t, err, &op)
}

func TestRefactorAllReturnsFixes(t *testing.T) {
	fc := newFakeClient()
	fc.fixes = []analysis.RefactorResult{{Suggestion: "a", OriginalCode: "x", RefactoredCode: "y", Explanation: "e"}}
	w := newWorkspace(t, fc)
	s, _ := w.AddScriptWith("", "x")

	out, err := w.RefactorAll(context.Background(), s.ID, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, fc.fixes, out)
}

func TestAskAppendsConversation(t *testing.T) {
	fc := newFakeClient()
	fc.answer = "It prints hi."
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	w := newWorkspace(t, fc, WithClock(application.FixedClock(now)))
	s, _ := w.AddScriptWith("", "echo hi")

	_, err := w.Ask(context.Background(), s.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)

	msg, err := w.Ask(context.Background(), s.ID, "what does it do?")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, msg.Role)

	fc.askErr = errors.New("quota")
	msg, err = w.Ask(context.Background(), s.ID, "again?")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I encountered an error: quota", msg.Content)

	chat, _ := w.Chat(s.ID)
	require.Len(t, chat, 4)
	assert.Equal(t, domain.RoleUser, chat[0].Role)
	assert.Equal(t, "what does it do?", chat[0].Content)
	assert.Equal(t, "It prints hi.", chat[1].Content)
	assert.Equal(t, now, chat[1].CreatedAt)

	require.NoError(t, w.ClearChat(s.ID))
	chat, _ = w.Chat(s.ID)
	assert.Empty(t, chat)
}

func TestLiveAnalysisDebouncesEdits(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc, WithLiveDelay(30*time.Millisecond))
	s, _ := w.AddScript()
	w.SetLiveAnalysis(true)

	for _, c := range []string{"e", "ec", "ech", "echo", "echo hi"} {
		require.NoError(t, w.SetContent(s.ID, c))
	}

	select {
	case got := <-fc.started:
		assert.Equal(t, "echo hi", got)
	case <-time.After(time.Second):
		t.Fatal("live analysis never ran")
	}
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"echo hi"}, fc.calls())
}

func TestLiveAnalysisOffCancelsPending(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc, WithLiveDelay(30*time.Millisecond))
	s, _ := w.AddScript()

	w.SetLiveAnalysis(true)
	require.NoError(t, w.SetContent(s.ID, "echo hi"))
	w.SetLiveAnalysis(false)
	require.NoError(t, w.SetContent(s.ID, "echo bye"))

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, fc.calls())
}

func TestLiveAnalysisIgnoresInactiveScript(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc, WithLiveDelay(20*time.Millisecond))
	a, _ := w.AddScript()
	_, _ = w.AddScript()
	w.SetLiveAnalysis(true)

	require.NoError(t, w.SetContent(a.ID, "echo a"))
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, fc.calls())
}

func TestLiveAnalysisSkipsClearedScript(t *testing.T) {
	fc := newFakeClient()
	w := newWorkspace(t, fc, WithLiveDelay(20*time.Millisecond))
	s, _ := w.AddScriptWith("", "echo hi")
	w.SetLiveAnalysis(true)

	require.NoError(t, w.SetContent(s.ID, ""))
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, fc.calls())

	st, err := w.Script(s.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Error)
	assert.Empty(t, w.Snapshot().LastError)
}

func TestCloseCancelsPendingLiveAnalysis(t *testing.T) {
	fc := newFakeClient()
	w := New("ws", fc, WithLiveDelay(30*time.Millisecond))
	s, _ := w.AddScript()
	w.SetLiveAnalysis(true)
	require.NoError(t, w.SetContent(s.ID, "echo hi"))
	w.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, fc.calls())
	_, err := w.AddScript()
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestOperationsAreArchived(t *testing.T) {
	fc := newFakeClient()
	fc.fail["bad"] = errors.New("boom")
	repo := &memArchive{}
	w := newWorkspace(t, fc, WithArchive(repo))
	good, _ := w.AddScriptWith("good.sh", "good")
	bad, _ := w.AddScriptWith("bad.sh", "bad")

	_, _ = w.Analyze(context.Background(), good.ID)
	_, _ = w.Analyze(context.Background(), bad.ID)

	page, err := w.Archive(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, archive.StatusSuccess, page.Data[0].Status)
	assert.Contains(t, page.Data[0].Result, "summary of good")
	assert.Equal(t, archive.StatusFailed, page.Data[1].Status)
	assert.Equal(t, "bad.sh", page.Data[1].ScriptName)
}

func TestArchiveFailureDoesNotFailOperation(t *testing.T) {
	repo := &memArchive{saveErr: errors.New("db down")}
	w := newWorkspace(t, newFakeClient(), WithArchive(repo))
	s, _ := w.AddScriptWith("", "x")

	_, err := w.Analyze(context.Background(), s.ID)
	assert.NoError(t, err)
}

func TestArchiveNotConfigured(t *testing.T) {
	w := newWorkspace(t, newFakeClient())
	_, err := w.Archive(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrNoArchive)
}

func TestRenameAndActivate(t *testing.T) {
	w := newWorkspace(t, newFakeClient())
	a, _ := w.AddScript()
	_, _ = w.AddScript()

	require.NoError(t, w.Activate(a.ID))
	assert.Equal(t, a.ID, w.ActiveID())
	assert.ErrorIs(t, w.Activate("nope"), domain.ErrScriptNotFound)

	assert.ErrorIs(t, w.Rename(a.ID, " "), domain.ErrEmptyName)
	require.NoError(t, w.Rename(a.ID, "backup.sh"))
	st, _ := w.Script(a.ID)
	assert.Equal(t, "backup.sh", st.Name)
	assert.True(t, st.Active)
}

func TestPaginate(t *testing.T) {
	p, s := Paginate(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, defaultPageSize, s)
	_, s = Paginate(3, 1000)
	assert.Equal(t, maxPageSize, s)
}
