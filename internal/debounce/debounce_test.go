package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	calls []int
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) fn(v int) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

func TestCoalescesBurstIntoLastCall(t *testing.T) {
	rec := newRecorder()
	d := New(30*time.Millisecond, rec.fn)
	defer d.Stop()

	for i := 1; i <= 5; i++ {
		d.Call(i)
	}

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []int{5}, rec.snapshot())
	assert.False(t, d.Pending())
}

func TestUsesLatestFunction(t *testing.T) {
	stale, fresh := newRecorder(), newRecorder()
	d := New(20*time.Millisecond, stale.fn)
	defer d.Stop()

	d.Call(1)
	d.SetFunc(fresh.fn)

	select {
	case <-fresh.done:
	case <-time.After(time.Second):
		t.Fatal("latest function not invoked")
	}
	assert.Empty(t, stale.snapshot())
	assert.Equal(t, []int{1}, fresh.snapshot())
}

func TestCancelAndStop(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.fn)

	d.Call(1)
	assert.True(t, d.Pending())
	d.Cancel()
	assert.False(t, d.Pending())

	d.Call(2)
	d.Stop()
	d.Call(3)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
