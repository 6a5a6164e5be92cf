// Package session hosts one mounted chat screen: it owns the composition
// draft and the call bootstrap for a single thread and applies client
// intents to them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"ngabarin/gateway/internal/call"
	"ngabarin/gateway/internal/compose"
	"ngabarin/gateway/internal/events"
	"ngabarin/gateway/internal/models"
	"ngabarin/gateway/internal/permission"
	"ngabarin/gateway/internal/transport"
)

var (
	// ErrCallInProgress is returned when a second call is started on the same screen
	ErrCallInProgress = errors.New("call already in progress")
	// ErrNoCall is returned for call intents without a call
	ErrNoCall = errors.New("no active call")
	// ErrUnknownIntent is returned for event types a session does not handle
	ErrUnknownIntent = errors.New("unknown intent")
)

// Emitter pushes events to the owning client
type Emitter interface {
	Emit(msg events.WSMessage)
}

// Config identifies the screen
type Config struct {
	ChatID        string
	UserID        string
	RecipientID   string
	RecipientName string
}

// Deps are the collaborators shared by all sessions of a client
type Deps struct {
	Channel transport.Channel
	Gate    *permission.Gate
	Media   func(chatID string) call.MediaFactory // Optional
	Ticker  compose.TickerFunc                    // Optional, for tests
}

// DraftPayload is sent with draft_state
type DraftPayload struct {
	ChatID string        `json:"chatId"`
	Draft  compose.Draft `json:"draft"`
}

// RecordingPayload is sent with recording_tick
type RecordingPayload struct {
	ChatID    string                 `json:"chatId"`
	Recording compose.RecordingState `json:"recording"`
}

// Session is the state owned by one mounted chat screen
type Session struct {
	cfg      Config
	deps     Deps
	emitter  Emitter
	composer *compose.Composer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	call   *call.Session
	closed bool
}

// New mounts a chat screen with an empty draft
func New(cfg Config, deps Deps, emitter Emitter) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:     cfg,
		deps:    deps,
		emitter: emitter,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.composer = compose.New(compose.Config{
		ChatID:        cfg.ChatID,
		SenderID:      cfg.UserID,
		RecipientID:   cfg.RecipientID,
		RecipientName: cfg.RecipientName,
		Sender:        deps.Channel,
		Gate:          deps.Gate,
		Ticker:        deps.Ticker,
		OnTick:        s.onRecordingTick,
	})
	return s
}

// ChatID returns the thread this screen shows
func (s *Session) ChatID() string {
	return s.cfg.ChatID
}

// RecipientID returns the other participant of the thread
func (s *Session) RecipientID() string {
	return s.cfg.RecipientID
}

// TerminateCall tears down the screen's call after the other side ended it.
// A call placed by someone other than callerID is left alone.
func (s *Session) TerminateCall(callerID string) bool {
	cs := s.currentCall()
	if cs == nil || cs.Snapshot().Participants.CallerID != callerID {
		return false
	}
	return cs.Terminate()
}

// Handle applies one client intent. Long-running intents (recording start,
// call bootstrap) continue in the background and report through the emitter.
func (s *Session) Handle(msg events.IncomingMessage) error {
	switch msg.Type {
	case events.EventUpdateText:
		var p events.TextPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.afterDraftChange(s.composer.UpdateText(p.Text))

	case events.EventAttach:
		var p events.AttachPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, err := s.composer.Attach(compose.Selection{
			Kind:        p.Kind,
			SourceRef:   p.SourceRef,
			DisplayName: p.DisplayName,
		})
		return s.afterDraftChange(err)

	case events.EventDetach:
		var p events.DetachPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.afterDraftChange(s.composer.Detach(p.AttachmentID))

	case events.EventSetReply:
		var p events.ReplyPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.afterDraftChange(s.composer.Reply(p.Reply))

	case events.EventClearReply:
		return s.afterDraftChange(s.composer.ClearReply())

	case events.EventStartRecording:
		s.goAsync(s.startRecording)
		return nil

	case events.EventStopRecording:
		var p events.StopRecordingPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, _, err := s.composer.StopRecording(p.SourceRef)
		return s.afterDraftChange(err)

	case events.EventCancelRecording:
		s.composer.CancelRecording()
		return s.afterDraftChange(nil)

	case events.EventSend:
		return s.send()

	case events.EventCallStart:
		return s.startCall(models.DirectionOutgoing, models.Participants{
			CallerID:    s.cfg.UserID,
			RecipientID: s.cfg.RecipientID,
		})

	case events.EventCallAccept:
		var p events.CallStartPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		caller := p.CallerID
		if caller == "" {
			caller = s.cfg.RecipientID
		}
		return s.startCall(models.DirectionIncoming, models.Participants{
			CallerID:    caller,
			RecipientID: s.cfg.UserID,
		})

	case events.EventCallToggleMute:
		return s.toggle((*call.Session).ToggleMute)

	case events.EventCallToggleCamera:
		return s.toggle((*call.Session).ToggleCamera)

	case events.EventCallEnd:
		cs := s.currentCall()
		if cs == nil {
			return ErrNoCall
		}
		cs.End(s.ctx)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownIntent, msg.Type)
}

// Close unmounts the screen: pending timers stop, in-flight permission
// results are dropped, and an ongoing call is ended.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cs := s.call
	s.mu.Unlock()

	s.cancel()
	s.composer.Close()
	if cs != nil {
		cs.End(context.Background())
	}
	s.wg.Wait()
}

// Draft returns the current draft
func (s *Session) Draft() compose.Draft {
	return s.composer.Snapshot()
}

// Call returns the current call state, if any
func (s *Session) Call() (call.Snapshot, bool) {
	cs := s.currentCall()
	if cs == nil {
		return call.Snapshot{}, false
	}
	return cs.Snapshot(), true
}

func (s *Session) send() error {
	msg, err := s.composer.Send(s.ctx)
	if errors.Is(err, compose.ErrEmptyDraft) {
		// The client disables the send control for empty drafts; nothing to report
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("session: message %s sent in chat %s (%d attachments)", msg.ID, msg.ChatID, len(msg.Attachments))
	s.emitDraft()
	return nil
}

func (s *Session) startRecording(ctx context.Context) {
	err := s.composer.StartRecording(ctx)
	if !s.live() {
		return
	}
	if err != nil {
		s.emitError(err)
		return
	}
	s.emitDraft()
}

func (s *Session) startCall(dir models.CallDirection, participants models.Participants) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return compose.ErrClosed
	}
	if s.call != nil {
		return ErrCallInProgress
	}

	var media call.MediaFactory
	if s.deps.Media != nil {
		media = s.deps.Media(s.cfg.ChatID)
	}

	var cs *call.Session
	cs = call.NewSession(call.Config{
		ChatID:       s.cfg.ChatID,
		Participants: participants,
		Direction:    dir,
		LocalUserID:  s.cfg.UserID,
		Gate:         s.deps.Gate,
		Signaler:     s.deps.Channel,
		Media:        media,
		OnEnded:      func() { s.callEnded(cs) },
	})
	s.call = cs

	s.goAsyncLocked(func(ctx context.Context) {
		err := cs.Initialize(ctx)
		if !s.live() {
			return
		}
		if err != nil && !errors.Is(err, call.ErrEnded) {
			s.emitError(err)
			return
		}
		s.emitCall(cs)
	})
	return nil
}

func (s *Session) callEnded(cs *call.Session) {
	s.mu.Lock()
	if s.call == cs {
		s.call = nil
	}
	s.mu.Unlock()

	if s.live() {
		s.emitCall(cs)
	}
}

func (s *Session) toggle(fn func(*call.Session) (models.MediaState, error)) error {
	cs := s.currentCall()
	if cs == nil {
		return ErrNoCall
	}
	if _, err := fn(cs); err != nil {
		return err
	}
	s.emitCall(cs)
	return nil
}

func (s *Session) currentCall() *call.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.call
}

func (s *Session) goAsync(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goAsyncLocked(fn)
}

func (s *Session) goAsyncLocked(fn func(ctx context.Context)) {
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Session) live() bool {
	return s.ctx.Err() == nil
}

func (s *Session) afterDraftChange(err error) error {
	if err != nil {
		return err
	}
	s.emitDraft()
	return nil
}

func (s *Session) onRecordingTick(state compose.RecordingState) {
	if !s.live() {
		return
	}
	s.emitter.Emit(events.New(events.EventRecordingTick, RecordingPayload{
		ChatID:    s.cfg.ChatID,
		Recording: state,
	}))
}

func (s *Session) emitDraft() {
	s.emitter.Emit(events.New(events.EventDraftState, DraftPayload{
		ChatID: s.cfg.ChatID,
		Draft:  s.composer.Snapshot(),
	}))
}

func (s *Session) emitCall(cs *call.Session) {
	s.emitter.Emit(events.New(events.EventCallState, cs.Snapshot()))
}

func (s *Session) emitError(err error) {
	code := events.CodeCallFailed
	if errors.Is(err, permission.ErrPermissionDenied) {
		code = events.CodePermissionDenied
	}
	s.emitter.Emit(events.New(events.EventError, events.ErrorPayload{
		Code:    code,
		Message: err.Error(),
		ChatID:  s.cfg.ChatID,
	}))
}

func decode(msg events.IncomingMessage, v interface{}) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", msg.Type, err)
	}
	return nil
}
