package directory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatic(t *testing.T) {
	d := NewStatic(
		map[string]string{"bob": "Bob"},
		map[string][]string{"alice": {"bob", "carol"}},
	)
	ctx := context.Background()

	name, err := d.DisplayName(ctx, "bob")
	if err != nil || name != "Bob" {
		t.Errorf("expected Bob, got %q %v", name, err)
	}
	if _, err := d.DisplayName(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	contacts, _ := d.Contacts(ctx, "alice")
	if len(contacts) != 2 {
		t.Errorf("expected 2 contacts, got %v", contacts)
	}

	d.SetPresence(ctx, "alice", true, time.Now())
	if !d.IsOnline("alice") {
		t.Error("expected alice online")
	}
	d.SetPresence(ctx, "alice", false, time.Now())
	if d.IsOnline("alice") {
		t.Error("expected alice offline")
	}
}
