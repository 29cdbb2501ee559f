package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

type fakeStream struct {
	mu     sync.Mutex
	closed bool
	frame  []byte
}

func (s *fakeStream) Snapshot(quality int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("stream closed")
	}
	return s.frame, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type fakeDevice struct {
	mu      sync.Mutex
	err     error
	opens   int
	streams []*fakeStream
}

func (d *fakeDevice) Open(ctx context.Context, width, height int) (port.VideoStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.opens++
	s := &fakeStream{frame: []byte("jpeg-frame")}
	d.streams = append(d.streams, s)
	return s, nil
}

type fakeDisplay struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDisplay) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *fakeDisplay) ShowLive(streamURL string) { d.record("live:" + streamURL) }
func (d *fakeDisplay) ShowStill(image []byte)    { d.record("still") }
func (d *fakeDisplay) ShowPlaceholder()          { d.record("placeholder") }

func (d *fakeDisplay) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

type fakeResults struct {
	mu      sync.Mutex
	views   []entity.ResultView
	cleared int
	events  []string

	// entered и block позволяют задержать ShowResult посреди вывода.
	entered chan struct{}
	block   chan struct{}
}

func (r *fakeResults) ShowResult(view entity.ResultView) {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.block
	}
	r.mu.Lock()
	r.views = append(r.views, view)
	r.events = append(r.events, "show")
	r.mu.Unlock()
}

func (r *fakeResults) ClearResult() {
	r.mu.Lock()
	r.cleared++
	r.events = append(r.events, "clear")
	r.mu.Unlock()
}

func (r *fakeResults) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *fakeResults) Views() []entity.ResultView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.ResultView, len(r.views))
	copy(out, r.views)
	return out
}

// fakeDetector отвечает сразу или ждёт release, если он задан.
type fakeDetector struct {
	mu       sync.Mutex
	requests []entity.DetectionRequest
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	release  chan struct{}
	result   *entity.DetectionResult
	err      error
}

func (d *fakeDetector) Submit(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	release := d.release
	d.mu.Unlock()

	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		seen := d.maxSeen.Load()
		if n <= seen || d.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result, d.err
}

func (d *fakeDetector) Requests() []entity.DetectionRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]entity.DetectionRequest, len(d.requests))
	copy(out, d.requests)
	return out
}

type fakeCodec struct {
	err error
}

func (c fakeCodec) EncodeJPEG(data []byte, quality int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return append([]byte("jpeg:"), data...), nil
}

type fakeRecorder struct {
	skipped   atomic.Int32
	discarded atomic.Int32
	submitted atomic.Int32
	reachable atomic.Bool
}

func (r *fakeRecorder) ObserveSubmission(entity.Source, string, float64) { r.submitted.Add(1) }
func (r *fakeRecorder) TickSkipped()                                     { r.skipped.Add(1) }
func (r *fakeRecorder) ResultDiscarded(string)                           { r.discarded.Add(1) }
func (r *fakeRecorder) SetReachable(v bool)                              { r.reachable.Store(v) }

type fakeSink struct {
	mu      sync.Mutex
	records []entity.DetectionRecord
	err     error
}

func (s *fakeSink) Publish(ctx context.Context, record entity.DetectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return s.err
}

// manualTicker подменяет time.Ticker в тестах планировщика.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) factory(time.Duration) (<-chan time.Time, func()) {
	return t.ch, func() { t.stopped.Store(true) }
}

func alertResult() *entity.DetectionResult {
	return &entity.DetectionResult{
		PredictedClass: entity.ClassAlert,
		Confidence:     92,
		Probabilities: map[entity.Class]float64{
			entity.ClassAlert:       92,
			entity.ClassNonVigilant: 5,
			entity.ClassDrowsy:      3,
		},
	}
}
