package compose

import (
	"testing"

	"ngabarin/gateway/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want models.AttachmentKind
	}{
		{"photo.JPG", models.KindImage},
		{"scan.jpeg", models.KindImage},
		{"sticker.gif", models.KindImage},
		{"shot.png", models.KindImage},
		{"clip.mov", models.KindVideo},
		{"old.3GP", models.KindVideo},
		{"movie.avi", models.KindVideo},
		{"video.mp4", models.KindVideo},
		{"voice.m4a", models.KindAudio},
		{"song.mp3", models.KindAudio},
		{"memo.wav", models.KindAudio},
		{"report.pdf", models.KindDocument},
		{"README", models.KindDocument},
		{"", models.KindDocument},
		{"/uploads/images/a1b2.png?size=large", models.KindImage},
	}

	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStaging_AddAssignsUniqueIDs(t *testing.T) {
	var s Staging
	a := s.Add(Selection{SourceRef: "file://a.png"})
	b := s.Add(Selection{SourceRef: "file://a.png"})

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected ids to be assigned")
	}
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, both %q", a.ID)
	}
}

func TestStaging_ExplicitKindWins(t *testing.T) {
	var s Staging
	att := s.Add(Selection{Kind: models.KindLink, SourceRef: "https://example.com/pic.png"})
	if att.Kind != models.KindLink {
		t.Errorf("expected link, got %q", att.Kind)
	}
}

func TestStaging_DisplayNameBeatsSourceRef(t *testing.T) {
	var s Staging
	att := s.Add(Selection{SourceRef: "content://media/42", DisplayName: "holiday.mov"})
	if att.Kind != models.KindVideo {
		t.Errorf("expected video, got %q", att.Kind)
	}
}

func TestStaging_AddRemoveKeepsInsertionOrder(t *testing.T) {
	var s Staging
	var ids []string
	for _, name := range []string{"a.png", "b.pdf", "c.mp3", "d.mov", "e.jpg"} {
		ids = append(ids, s.Add(Selection{SourceRef: name}).ID)
	}

	s.Remove(ids[1])
	s.Remove(ids[3])
	s.Remove("missing")
	s.Remove(ids[1])

	got := s.List()
	want := []string{ids[0], ids[2], ids[4]}
	if len(got) != len(want) {
		t.Fatalf("expected %d attachments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i].ID)
		}
	}
}

func TestStaging_ListIsACopy(t *testing.T) {
	var s Staging
	s.Add(Selection{SourceRef: "a.png"})

	list := s.List()
	list[0].SourceRef = "mutated"

	if s.List()[0].SourceRef != "a.png" {
		t.Error("mutating the returned list changed staging")
	}
}

func TestStaging_Clear(t *testing.T) {
	var s Staging
	s.Add(Selection{SourceRef: "a.png"})
	s.Add(Selection{SourceRef: "b.png"})
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty staging, got %d", s.Len())
	}
}
