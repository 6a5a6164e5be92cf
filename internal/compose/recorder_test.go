package compose

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ngabarin/gateway/internal/models"
	"ngabarin/gateway/internal/permission"
)

// manualTicker hands out tick channels the test drives by hand
type manualTicker struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped []bool
}

func (m *manualTicker) new(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time)
	idx := len(m.chans)
	m.chans = append(m.chans, ch)
	m.stopped = append(m.stopped, false)
	return ch, func() {
		m.mu.Lock()
		m.stopped[idx] = true
		m.mu.Unlock()
	}
}

func (m *manualTicker) tick(t *testing.T, idx int) {
	t.Helper()
	m.mu.Lock()
	ch := m.chans[idx]
	m.mu.Unlock()

	select {
	case ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("tick %d not consumed", idx)
	}
}

func (m *manualTicker) isStopped(idx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped[idx]
}

func (m *manualTicker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chans)
}

func micGate() *permission.Gate {
	return permission.NewGate(permission.Static{permission.Microphone: permission.Granted})
}

func waitTick(t *testing.T, ticks <-chan RecordingState) RecordingState {
	t.Helper()
	select {
	case s := <-ticks:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
		return RecordingState{}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{65, "1:05"},
		{600, "10:00"},
		{3599, "59:59"},
		{-3, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRecorder_StartDeniedWithoutMicrophone(t *testing.T) {
	mt := &manualTicker{}
	r := NewRecorder(permission.NewGate(permission.Static{}), mt.new, nil)

	err := r.Start(context.Background())
	if !errors.Is(err, permission.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if r.State().Status != RecordingIdle {
		t.Errorf("expected idle, got %s", r.State().Status)
	}
	if mt.count() != 0 {
		t.Error("no ticker should be installed on denial")
	}
}

func TestRecorder_TicksAndStop(t *testing.T) {
	mt := &manualTicker{}
	ticks := make(chan RecordingState, 10)
	r := NewRecorder(micGate(), mt.new, func(s RecordingState) { ticks <- s })

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	mt.tick(t, 0)
	if s := waitTick(t, ticks); s.ElapsedSeconds != 1 {
		t.Errorf("expected 1s, got %d", s.ElapsedSeconds)
	}
	mt.tick(t, 0)
	if s := waitTick(t, ticks); s.ElapsedSeconds != 2 || s.Display != "0:02" {
		t.Errorf("expected 2s/0:02, got %d/%s", s.ElapsedSeconds, s.Display)
	}

	sel, ok := r.Stop("/uploads/audios/v.m4a")
	if !ok {
		t.Fatal("expected stop to yield a capture")
	}
	if sel.Kind != models.KindAudio || sel.DurationSeconds != 2 {
		t.Errorf("unexpected selection %+v", sel)
	}
	if r.State().Status != RecordingStopped {
		t.Errorf("expected stopped, got %s", r.State().Status)
	}
	if !mt.isStopped(0) {
		t.Error("expected ticker to be stopped")
	}

	r.Reset()
	if s := r.State(); s.Status != RecordingIdle || s.ElapsedSeconds != 0 {
		t.Errorf("expected idle/0 after reset, got %+v", s)
	}
}

func TestRecorder_StopOutsideRecordingIsNoop(t *testing.T) {
	r := NewRecorder(micGate(), (&manualTicker{}).new, nil)

	if _, ok := r.Stop("x"); ok {
		t.Error("stop from idle should do nothing")
	}
	if r.State().Status != RecordingIdle {
		t.Errorf("expected idle, got %s", r.State().Status)
	}
}

func TestRecorder_RestartReplacesTick(t *testing.T) {
	mt := &manualTicker{}
	ticks := make(chan RecordingState, 10)
	r := NewRecorder(micGate(), mt.new, func(s RecordingState) { ticks <- s })

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	mt.tick(t, 0)
	waitTick(t, ticks)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !mt.isStopped(0) {
		t.Error("previous tick must be stopped before a new one is installed")
	}
	if s := r.State(); s.ElapsedSeconds != 0 || s.Status != RecordingActive {
		t.Errorf("expected fresh recording, got %+v", s)
	}

	mt.tick(t, 1)
	if s := waitTick(t, ticks); s.ElapsedSeconds != 1 {
		t.Errorf("expected 1s on new recording, got %d", s.ElapsedSeconds)
	}
}

func TestRecorder_CloseCancelsTickAndBlocksRestart(t *testing.T) {
	mt := &manualTicker{}
	r := NewRecorder(micGate(), mt.new, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.Close()

	if !mt.isStopped(0) {
		t.Error("close must stop the tick")
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRecorder_CancelledContextDoesNotStart(t *testing.T) {
	mt := &manualTicker{}
	r := NewRecorder(micGate(), mt.new, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mt.count() != 0 {
		t.Error("no ticker should be installed for a torn-down screen")
	}
}

func TestRecorder_FinishStopsAndIdlesAtOnce(t *testing.T) {
	mt := &manualTicker{}
	ticks := make(chan RecordingState, 10)
	r := NewRecorder(micGate(), mt.new, func(s RecordingState) { ticks <- s })

	if _, ok := r.Finish("x"); ok {
		t.Error("finish from idle should do nothing")
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	mt.tick(t, 0)
	waitTick(t, ticks)

	sel, ok := r.Finish("/uploads/audios/v.m4a")
	if !ok || sel.DurationSeconds != 1 || sel.DisplayName != "Voice note (0:01)" {
		t.Fatalf("unexpected capture %+v ok=%v", sel, ok)
	}
	if s := r.State(); s.Status != RecordingIdle || s.ElapsedSeconds != 0 {
		t.Errorf("expected idle/0, got %+v", s)
	}
	if !mt.isStopped(0) {
		t.Error("expected ticker to be stopped")
	}

	// A recording started afterwards is left alone
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s := r.State(); s.Status != RecordingActive {
		t.Errorf("expected new recording active, got %s", s.Status)
	}
}
