// Package permission acquires device capabilities from the client platform
// before a call or a voice recording may proceed.
package permission

import (
	"context"
	"errors"
	"fmt"
)

// Capability is a device capability the platform can grant
type Capability string

const (
	Camera     Capability = "camera"
	Microphone Capability = "microphone"
)

// Grant is the platform's answer for one capability
type Grant string

const (
	Granted Grant = "granted"
	Denied  Grant = "denied"
)

// ErrPermissionDenied is returned when a capability was refused or the request failed
var ErrPermissionDenied = errors.New("permission denied")

// Provider asks the platform for capabilities. It may block until the user answers.
type Provider interface {
	RequestCapabilities(ctx context.Context, caps []Capability) (map[Capability]Grant, error)
}

// Gate turns provider answers into a single pass/fail decision
type Gate struct {
	provider Provider
}

// NewGate creates a gate backed by provider
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider}
}

// Acquire requests caps and fails closed: an error, a missing answer or any
// denial all yield ErrPermissionDenied.
func (g *Gate) Acquire(ctx context.Context, caps ...Capability) error {
	if g == nil || g.provider == nil {
		return fmt.Errorf("%w: no permission provider", ErrPermissionDenied)
	}

	grants, err := g.provider.RequestCapabilities(ctx, caps)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	for _, c := range caps {
		if grants[c] != Granted {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, c)
		}
	}
	return nil
}

// Static is a Provider answering every request from a fixed table.
// Capabilities absent from the table are denied.
type Static map[Capability]Grant

// RequestCapabilities implements Provider
func (s Static) RequestCapabilities(_ context.Context, caps []Capability) (map[Capability]Grant, error) {
	out := make(map[Capability]Grant, len(caps))
	for _, c := range caps {
		if g, ok := s[c]; ok {
			out[c] = g
		} else {
			out[c] = Denied
		}
	}
	return out, nil
}
