// Package call bootstraps a one-to-one voice/video call: permission
// acquisition, signaling handoff, local media toggles and teardown.
package call

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"ngabarin/gateway/internal/models"
	"ngabarin/gateway/internal/permission"
	"ngabarin/gateway/internal/transport"
)

// State is the lifecycle position of a call session. A denied permission
// request goes straight to StateEnded with PermissionDenied recorded.
type State string

const (
	StateUnrequested State = "unrequested"
	StateGranted     State = "granted"
	StateActive      State = "active"
	StateEnded       State = "ended"
)

var (
	// ErrEnded is returned when the session ended while an operation was in flight
	ErrEnded = errors.New("call ended")
	// ErrAlreadyInitialized is returned by a second Initialize
	ErrAlreadyInitialized = errors.New("call already initialized")
)

// MediaController applies media toggles to the calling SDK
type MediaController interface {
	SetMuted(muted bool) error
	SetCameraOff(off bool) error
	Close() error
}

// MediaFactory creates the media controller once permissions are granted
type MediaFactory func(ctx context.Context) (MediaController, error)

// Config describes the call to bootstrap
type Config struct {
	ChatID       string
	Participants models.Participants
	Direction    models.CallDirection
	LocalUserID  string

	Gate     *permission.Gate
	Signaler transport.Signaler
	Media    MediaFactory // Optional
	OnEnded  func()       // Invoked once when the call ends
}

// Snapshot is a point-in-time view of the call
type Snapshot struct {
	ChatID          string                 `json:"chatId"`
	Participants    models.Participants    `json:"participants"`
	Direction       models.CallDirection   `json:"direction"`
	State           State                  `json:"state"`
	PermissionState models.PermissionState `json:"permissionState"`
	MediaState      models.MediaState      `json:"mediaState"`
}

// Session is one call from the local user's point of view
type Session struct {
	cfg Config

	// signalMu keeps CallInitiated ahead of EndCall on the wire
	signalMu sync.Mutex

	mu          sync.Mutex
	state       State
	permission  models.PermissionState
	mediaState  models.MediaState
	media       MediaController
	initStarted bool
}

// NewSession creates a call session waiting for Initialize
func NewSession(cfg Config) *Session {
	return &Session{
		cfg:        cfg,
		state:      StateUnrequested,
		permission: models.PermissionUnrequested,
	}
}

// Initialize requests camera and microphone. On denial the session ends
// without any signaling and ErrPermissionDenied is returned. On grant an
// outgoing call is announced on the signaling channel named after the chat.
// Results arriving after End or after ctx is cancelled are dropped.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initStarted {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initStarted = true
	s.mu.Unlock()

	permErr := s.cfg.Gate.Acquire(ctx, permission.Camera, permission.Microphone)

	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return ErrEnded
	}
	if ctx.Err() != nil {
		// Torn down while waiting: record the answer, apply nothing else
		s.permission = models.PermissionDenied
		if permErr == nil {
			s.permission = models.PermissionGranted
		}
		s.state = StateEnded
		s.mu.Unlock()
		return ErrEnded
	}

	if permErr != nil {
		s.permission = models.PermissionDenied
		s.state = StateEnded
		s.mu.Unlock()

		log.Printf("call: permission denied for chat %s: %v", s.cfg.ChatID, permErr)
		s.notifyEnded()
		return permErr
	}

	s.permission = models.PermissionGranted
	s.state = StateGranted
	s.mu.Unlock()

	var media MediaController
	if s.cfg.Media != nil {
		m, err := s.cfg.Media(ctx)
		if err != nil {
			// The call proceeds with local toggles only
			log.Printf("call: media setup for chat %s: %v", s.cfg.ChatID, err)
		} else {
			media = m
		}
	}

	s.signalMu.Lock()
	defer s.signalMu.Unlock()

	s.mu.Lock()
	if s.state == StateEnded || ctx.Err() != nil {
		s.mu.Unlock()
		if media != nil {
			media.Close()
		}
		return ErrEnded
	}
	s.media = media
	s.state = StateActive
	s.mu.Unlock()

	if s.cfg.Direction == models.DirectionOutgoing {
		s.cfg.Signaler.CallInitiated(ctx, s.signal())
	}
	return nil
}

// ToggleMute flips the local mute flag and applies it to the media backend
func (s *Session) ToggleMute() (models.MediaState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEnded {
		return s.mediaState, ErrEnded
	}
	s.mediaState.Muted = !s.mediaState.Muted
	if s.media != nil {
		if err := s.media.SetMuted(s.mediaState.Muted); err != nil {
			return s.mediaState, fmt.Errorf("apply mute: %w", err)
		}
	}
	return s.mediaState, nil
}

// ToggleCamera flips the local camera flag and applies it to the media backend
func (s *Session) ToggleCamera() (models.MediaState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEnded {
		return s.mediaState, ErrEnded
	}
	s.mediaState.CameraOff = !s.mediaState.CameraOff
	if s.media != nil {
		if err := s.media.SetCameraOff(s.mediaState.CameraOff); err != nil {
			return s.mediaState, fmt.Errorf("apply camera: %w", err)
		}
	}
	return s.mediaState, nil
}

// End notifies the other side, releases media and invokes the completion
// callback. Only the first call has any effect.
func (s *Session) End(ctx context.Context) {
	s.signalMu.Lock()
	media, ok := s.markEnded()
	if !ok {
		s.signalMu.Unlock()
		return
	}
	s.cfg.Signaler.EndCall(ctx, s.signal())
	s.signalMu.Unlock()

	s.release(media)
}

// Terminate ends the session because the other side hung up. Nothing is
// signaled back. Returns false when the session had already ended.
func (s *Session) Terminate() bool {
	media, ok := s.markEnded()
	if !ok {
		return false
	}
	log.Printf("call: chat %s ended by the other side", s.cfg.ChatID)
	s.release(media)
	return true
}

func (s *Session) markEnded() (MediaController, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEnded {
		return nil, false
	}
	s.state = StateEnded
	media := s.media
	s.media = nil
	return media, true
}

func (s *Session) release(media MediaController) {
	if media != nil {
		if err := media.Close(); err != nil {
			log.Printf("call: close media for chat %s: %v", s.cfg.ChatID, err)
		}
	}
	s.notifyEnded()
}

// Snapshot returns the current call state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ChatID:          s.cfg.ChatID,
		Participants:    s.cfg.Participants,
		Direction:       s.cfg.Direction,
		State:           s.state,
		PermissionState: s.permission,
		MediaState:      s.mediaState,
	}
}

func (s *Session) signal() models.CallSignal {
	return models.CallSignal{
		ChatID:      s.cfg.ChatID,
		CallerID:    s.cfg.Participants.CallerID,
		RecipientID: s.remoteID(),
		FromID:      s.cfg.LocalUserID,
		Channel:     s.cfg.ChatID,
	}
}

// remoteID is the participant on the other end from the local user
func (s *Session) remoteID() string {
	p := s.cfg.Participants
	if s.cfg.LocalUserID != "" && p.RecipientID == s.cfg.LocalUserID {
		return p.CallerID
	}
	return p.RecipientID
}

func (s *Session) notifyEnded() {
	if s.cfg.OnEnded != nil {
		s.cfg.OnEnded()
	}
}
