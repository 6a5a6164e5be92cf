package compose

import (
	"testing"

	"ngabarin/gateway/internal/models"
)

func strPtr(s string) *string { return &s }

func TestPreviewLabel(t *testing.T) {
	tests := []struct {
		name string
		ref  models.ReplyReference
		want Preview
	}{
		{
			name: "own text message",
			ref:  models.ReplyReference{TargetMessageID: "m1", AuthorID: "me", PreviewText: strPtr("see you")},
			want: Preview{Author: "yourself", Text: "see you"},
		},
		{
			name: "recipient media message",
			ref:  models.ReplyReference{TargetMessageID: "m2", AuthorID: "bob"},
			want: Preview{Author: "Bob", Text: MediaPlaceholder},
		},
		{
			name: "empty preview text is still text",
			ref:  models.ReplyReference{TargetMessageID: "m3", AuthorID: "bob", PreviewText: strPtr("")},
			want: Preview{Author: "Bob", Text: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviewLabel(tt.ref, "me", "Bob")
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestReplyStaging_LastWriteWins(t *testing.T) {
	var r ReplyStaging
	r.Set(models.ReplyReference{TargetMessageID: "m1", AuthorID: "me"})
	r.Set(models.ReplyReference{TargetMessageID: "m2", AuthorID: "bob"})

	ref, ok := r.Current()
	if !ok {
		t.Fatal("expected a reply reference")
	}
	if ref.TargetMessageID != "m2" {
		t.Errorf("expected m2, got %s", ref.TargetMessageID)
	}
}

func TestReplyStaging_ClearRemovesPreview(t *testing.T) {
	var r ReplyStaging
	r.Set(models.ReplyReference{TargetMessageID: "m1", AuthorID: "me"})
	r.Clear()

	if _, ok := r.Preview("me", "Bob"); ok {
		t.Error("expected no preview after clear")
	}
	if _, ok := r.Current(); ok {
		t.Error("expected no reference after clear")
	}
}
