package call

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// PionMedia is a MediaController over a pion PeerConnection carrying one
// local audio and one local video track. Muting or turning the camera off
// detaches the track from its sender; negotiation is left to the SDK side.
type PionMedia struct {
	pc *webrtc.PeerConnection

	mu          sync.Mutex
	audio       *webrtc.TrackLocalStaticSample
	video       *webrtc.TrackLocalStaticSample
	audioSender *webrtc.RTPSender
	videoSender *webrtc.RTPSender
}

// PionMediaFactory returns a MediaFactory building PionMedia with the given
// ICE server URLs. streamID groups both tracks, normally the chat id.
func PionMediaFactory(iceURLs []string, streamID string) MediaFactory {
	return func(ctx context.Context) (MediaController, error) {
		return NewPionMedia(ctx, iceURLs, streamID)
	}
}

// NewPionMedia creates the PeerConnection and attaches local tracks
func NewPionMedia(ctx context.Context, iceURLs []string, streamID string) (*PionMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config := webrtc.Configuration{}
	if len(iceURLs) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: iceURLs}}
	}

	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	m := &PionMedia{pc: pc}
	if err := m.attachTracks(streamID); err != nil {
		pc.Close()
		return nil, err
	}
	return m, nil
}

func (m *PionMedia) attachTracks(streamID string) error {
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", streamID)
	if err != nil {
		return fmt.Errorf("create audio track: %w", err)
	}
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", streamID)
	if err != nil {
		return fmt.Errorf("create video track: %w", err)
	}

	audioSender, err := m.pc.AddTrack(audio)
	if err != nil {
		return fmt.Errorf("add audio track: %w", err)
	}
	videoSender, err := m.pc.AddTrack(video)
	if err != nil {
		return fmt.Errorf("add video track: %w", err)
	}

	m.audio, m.video = audio, video
	m.audioSender, m.videoSender = audioSender, videoSender
	return nil
}

// SetMuted implements MediaController
func (m *PionMedia) SetMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if muted {
		return m.audioSender.ReplaceTrack(nil)
	}
	return m.audioSender.ReplaceTrack(m.audio)
}

// SetCameraOff implements MediaController
func (m *PionMedia) SetCameraOff(off bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off {
		return m.videoSender.ReplaceTrack(nil)
	}
	return m.videoSender.ReplaceTrack(m.video)
}

// AudioActive reports whether the audio track is attached to its sender
func (m *PionMedia) AudioActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audioSender.Track() != nil
}

// VideoActive reports whether the video track is attached to its sender
func (m *PionMedia) VideoActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoSender.Track() != nil
}

// Close implements MediaController
func (m *PionMedia) Close() error {
	return m.pc.Close()
}
