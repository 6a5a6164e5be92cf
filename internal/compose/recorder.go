package compose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ngabarin/gateway/internal/models"
	"ngabarin/gateway/internal/permission"
)

// RecordingStatus is the state of the voice-note recorder
type RecordingStatus string

const (
	RecordingIdle    RecordingStatus = "idle"
	RecordingActive  RecordingStatus = "recording"
	RecordingStopped RecordingStatus = "stopped"
)

const recordingTickEvery = time.Second

// TickerFunc starts a periodic tick and returns its channel and a stop function
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// RecordingState is a point-in-time view of the recorder
type RecordingState struct {
	Status         RecordingStatus `json:"status"`
	ElapsedSeconds int             `json:"elapsedSeconds"`
	Display        string          `json:"display"`
}

// Recorder tracks an in-progress audio capture and its elapsed time
type Recorder struct {
	gate      *permission.Gate
	newTicker TickerFunc
	onTick    func(RecordingState)

	mu       sync.Mutex
	status   RecordingStatus
	elapsed  int
	gen      uint64
	stopTick func()
	closed   bool
}

// NewRecorder creates an idle recorder. onTick may be nil.
func NewRecorder(gate *permission.Gate, ticker TickerFunc, onTick func(RecordingState)) *Recorder {
	if ticker == nil {
		ticker = systemTicker
	}
	return &Recorder{
		gate:      gate,
		newTicker: ticker,
		onTick:    onTick,
		status:    RecordingIdle,
	}
}

// Start acquires the microphone and begins a fresh recording. A recording
// already in progress is discarded and its tick is stopped first.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.gate.Acquire(ctx, permission.Microphone); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	r.haltLocked()
	r.gen++
	r.status = RecordingActive
	r.elapsed = 0

	ticks, stop := r.newTicker(recordingTickEvery)
	done := make(chan struct{})
	var once sync.Once
	r.stopTick = func() {
		once.Do(func() {
			stop()
			close(done)
		})
	}

	go r.run(r.gen, ticks, done)
	return nil
}

func (r *Recorder) run(gen uint64, ticks <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticks:
			r.mu.Lock()
			if r.gen != gen || r.status != RecordingActive {
				r.mu.Unlock()
				return
			}
			r.elapsed++
			state := r.stateLocked()
			r.mu.Unlock()

			if r.onTick != nil {
				r.onTick(state)
			}
		}
	}
}

// Stop finishes an active recording and yields the audio attachment to
// commit. Outside of recording it does nothing and returns false.
func (r *Recorder) Stop(sourceRef string) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked(sourceRef)
}

func (r *Recorder) stopLocked(sourceRef string) (Selection, bool) {
	if r.status != RecordingActive {
		return Selection{}, false
	}
	r.haltLocked()
	r.status = RecordingStopped

	return Selection{
		Kind:            models.KindAudio,
		SourceRef:       sourceRef,
		DisplayName:     fmt.Sprintf("Voice note (%s)", FormatDuration(r.elapsed)),
		DurationSeconds: r.elapsed,
	}, true
}

// Finish stops an active recording and returns the recorder to idle in one
// step, so a Start racing with it cannot be reset by mistake
func (r *Recorder) Finish(sourceRef string) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel, ok := r.stopLocked(sourceRef)
	if ok {
		r.status = RecordingIdle
		r.elapsed = 0
	}
	return sel, ok
}

// Reset returns the recorder to idle once the stopped capture was committed
// or discarded. An active recording is cancelled.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.haltLocked()
	r.status = RecordingIdle
	r.elapsed = 0
}

// Close cancels any pending tick; the recorder cannot be restarted
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.haltLocked()
	r.closed = true
	r.status = RecordingIdle
	r.elapsed = 0
}

// State returns the current status and elapsed time
func (r *Recorder) State() RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Recorder) stateLocked() RecordingState {
	return RecordingState{
		Status:         r.status,
		ElapsedSeconds: r.elapsed,
		Display:        FormatDuration(r.elapsed),
	}
}

func (r *Recorder) haltLocked() {
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
}

// FormatDuration renders seconds as m:ss
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
