package interaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type captureSink struct {
	mu        sync.Mutex
	successes []*Record
	failures  []*ErrorRecord
	err       error
}

func (s *captureSink) WriteSuccess(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = append(s.successes, rec)
	return s.err
}

func (s *captureSink) WriteError(ctx context.Context, rec *ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, rec)
	return s.err
}

func (s *captureSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.successes), len(s.failures)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRecorder_DeliversToAllSinks(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{}

	r := NewRecorder(zap.NewNop(), a, b)
	r.Start(context.Background())
	defer r.Stop()

	r.Success(&Record{UserID: "u1", Endpoint: "/chat", Provider: "openai", Model: "gpt-4"})
	r.Error(&ErrorRecord{UserID: "u1", Endpoint: "/chat", Error: "boom"})

	waitFor(t, func() bool {
		sa, fa := a.counts()
		sb, fb := b.counts()
		return sa == 1 && fa == 1 && sb == 1 && fb == 1
	})

	assert.Equal(t, "openai", a.successes[0].Provider)
	assert.False(t, a.successes[0].Timestamp.IsZero())
	assert.Equal(t, "boom", b.failures[0].Error)
}

func TestRecorder_SinkFailureIsSwallowed(t *testing.T) {
	failing := &captureSink{err: errors.New("sink down")}
	healthy := &captureSink{}

	r := NewRecorder(zap.NewNop(), failing, healthy)
	r.Start(context.Background())
	defer r.Stop()

	r.Success(&Record{Endpoint: "/draw"})

	waitFor(t, func() bool {
		s, _ := healthy.counts()
		return s == 1
	})
}

func TestRecorder_RecordsAfterStopAreDropped(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(zap.NewNop(), sink)
	r.Start(context.Background())

	r.Stop()
	r.Stop()

	// A handler still in flight past shutdown must not panic the process.
	assert.NotPanics(t, func() {
		r.Success(&Record{Endpoint: "/chat"})
		r.Error(&ErrorRecord{Endpoint: "/chat", Error: "late"})
	})

	time.Sleep(20 * time.Millisecond)
	s, f := sink.counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
}

func TestRecorder_NeverBlocksWhenStopped(t *testing.T) {
	r := NewRecorder(zap.NewNop(), &captureSink{})

	// Worker never started; the buffered channel absorbs records and the
	// caller must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Success(&Record{Endpoint: "/speak"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder blocked the caller")
	}
}
