package permission

import (
	"context"
	"errors"
	"testing"
)

type failingProvider struct{}

func (failingProvider) RequestCapabilities(context.Context, []Capability) (map[Capability]Grant, error) {
	return nil, errors.New("dialog crashed")
}

type partialProvider struct{}

func (partialProvider) RequestCapabilities(context.Context, []Capability) (map[Capability]Grant, error) {
	return map[Capability]Grant{Camera: Granted}, nil
}

func TestAcquire_AllGranted(t *testing.T) {
	g := NewGate(Static{Camera: Granted, Microphone: Granted})
	if err := g.Acquire(context.Background(), Camera, Microphone); err != nil {
		t.Fatalf("expected grant, got %v", err)
	}
}

func TestAcquire_FailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
	}{
		{"explicit denial", Static{Camera: Granted, Microphone: Denied}},
		{"provider error", failingProvider{}},
		{"missing answer", partialProvider{}},
		{"no provider", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGate(tt.provider).Acquire(context.Background(), Camera, Microphone)
			if !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("expected ErrPermissionDenied, got %v", err)
			}
		})
	}
}

func TestStatic_UnknownCapabilityDenied(t *testing.T) {
	grants, err := Static{}.RequestCapabilities(context.Background(), []Capability{Microphone})
	if err != nil {
		t.Fatal(err)
	}
	if grants[Microphone] != Denied {
		t.Errorf("expected denied, got %q", grants[Microphone])
	}
}
