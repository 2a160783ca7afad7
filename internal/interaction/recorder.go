// Package interaction delivers structured records of request/response cycles
// to external sinks. Delivery is best-effort and fire-and-forget: a full
// buffer or a failing sink is an operational-log note, never a request
// failure.
package interaction

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record is one successful request/response cycle.
type Record struct {
	UserID     string    `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	DurationMS int64     `json:"duration_ms"`
	Request    any       `json:"request"`
	Response   any       `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
}

// ErrorRecord is one failed cycle.
type ErrorRecord struct {
	UserID    string         `json:"user_id,omitempty"`
	Endpoint  string         `json:"endpoint"`
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives records. Implementations own their timeouts.
type Sink interface {
	WriteSuccess(ctx context.Context, rec *Record) error
	WriteError(ctx context.Context, rec *ErrorRecord) error
}

// Recorder accepts records without blocking the caller.
type Recorder interface {
	Success(rec *Record)
	Error(rec *ErrorRecord)
	Start(ctx context.Context)
	Stop()
}

type entry struct {
	success *Record
	failure *ErrorRecord
}

type recorder struct {
	logger *zap.Logger
	sinks  []Sink
	ch     chan entry

	// Guards ch against sends after Stop: a handler still in flight when
	// shutdown times out must drop its record, not panic the process.
	mu     sync.RWMutex
	closed bool
}

// NewRecorder builds an asynchronous recorder fanning out to the given
// sinks.
func NewRecorder(logger *zap.Logger, sinks ...Sink) Recorder {
	return &recorder{
		logger: logger,
		sinks:  sinks,
		ch:     make(chan entry, 10000),
	}
}

func (r *recorder) Success(rec *Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if !r.send(entry{success: rec}) {
		r.logger.Warn("Interaction buffer full, dropping record",
			zap.String("endpoint", rec.Endpoint),
			zap.String("provider", rec.Provider),
		)
	}
}

func (r *recorder) Error(rec *ErrorRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if !r.send(entry{failure: rec}) {
		r.logger.Warn("Interaction buffer full, dropping error record",
			zap.String("endpoint", rec.Endpoint),
		)
	}
}

func (r *recorder) send(e entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}
	select {
	case r.ch <- e:
		return true
	default:
		return false
	}
}

func (r *recorder) Start(ctx context.Context) {
	go r.worker(ctx)
}

// Stop closes the record channel, letting the worker drain and exit. Safe
// to call more than once; records arriving after Stop are dropped.
func (r *recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.ch)
}

func (r *recorder) worker(ctx context.Context) {
	for {
		select {
		case e, ok := <-r.ch:
			if !ok {
				return
			}
			r.dispatch(e)
		case <-ctx.Done():
			// Drain what is already buffered, then exit.
			for {
				select {
				case e, ok := <-r.ch:
					if !ok {
						return
					}
					r.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (r *recorder) dispatch(e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, sink := range r.sinks {
		var err error
		if e.success != nil {
			err = sink.WriteSuccess(ctx, e.success)
		} else if e.failure != nil {
			err = sink.WriteError(ctx, e.failure)
		}
		if err != nil {
			r.logger.Warn("Interaction sink write failed", zap.Error(err))
		}
	}
}
