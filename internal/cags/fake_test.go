package cags

import (
	"context"
	"fmt"
	"sync"
)

// fakeEngine records every call and returns canned attributes.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	disposed int
	released int

	buffers    map[string][]float32
	position   []float32
	points     int
	failOn     string // call name that returns an error
	dequantErr error
}

func newFakeEngine(points int) *fakeEngine {
	pos := make([]float32, 3*points)
	for i := range pos {
		pos[i] = float32(i)
	}
	return &fakeEngine{points: points, position: pos, buffers: map[string][]float32{}}
}

func (e *fakeEngine) record(call string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if e.failOn != "" && e.failOn == call {
		return fmt.Errorf("engine rejected %s", call)
	}
	return nil
}

func (e *fakeEngine) LoadBaseLayerCodebook(_ context.Context, _ []byte) error {
	return e.record("base codebook")
}

func (e *fakeEngine) LoadEnhancementLayerCodebook(_ context.Context, attr string, _ []byte) error {
	return e.record(attr + " codebook")
}

func (e *fakeEngine) LoadBaseLayerCodes(_ context.Context, _ []byte) error {
	return e.record("base codes")
}

func (e *fakeEngine) LoadEnhancementLayerCodes(_ context.Context, attr string, _ []byte) error {
	return e.record(attr + " codes")
}

func (e *fakeEngine) Dequantize(context.Context) (*Attributes, error) {
	if err := e.record("dequantize"); err != nil {
		return nil, err
	}
	if e.dequantErr != nil {
		return nil, e.dequantErr
	}
	return NewAttributes(e.buffers, func() {
		e.mu.Lock()
		e.released++
		e.mu.Unlock()
	}), nil
}

func (e *fakeEngine) Position() []float32 { return e.position }
func (e *fakeEngine) PointCount() int     { return e.points }

func (e *fakeEngine) Dispose() {
	e.mu.Lock()
	e.disposed++
	e.mu.Unlock()
}

func (e *fakeEngine) factory() EngineFactory {
	return func() (DecodeEngine, error) { return e, nil }
}

func (e *fakeEngine) disposeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

func (e *fakeEngine) callLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

type progressEvent struct {
	Percent float64
	Label   string
	Phase   Phase
	Message string
}

type progressLog struct {
	events []progressEvent
}

func (p *progressLog) fn(percent float64, label string, phase Phase, message string) {
	p.events = append(p.events, progressEvent{percent, label, phase, message})
}
