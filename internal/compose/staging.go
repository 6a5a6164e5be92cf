package compose

import (
	"path"
	"strings"

	"ngabarin/gateway/internal/models"

	"github.com/google/uuid"
)

var extensionKinds = map[string]models.AttachmentKind{
	".jpg":  models.KindImage,
	".jpeg": models.KindImage,
	".png":  models.KindImage,
	".gif":  models.KindImage,
	".mp4":  models.KindVideo,
	".mov":  models.KindVideo,
	".avi":  models.KindVideo,
	".3gp":  models.KindVideo,
	".mp3":  models.KindAudio,
	".wav":  models.KindAudio,
	".m4a":  models.KindAudio,
}

// Classify infers an attachment kind from a file name. Unknown or missing
// extensions are documents; a link is never inferred.
func Classify(name string) models.AttachmentKind {
	// Strip query strings so URLs classify by their path
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.ToLower(path.Ext(name))
	if kind, ok := extensionKinds[ext]; ok {
		return kind
	}
	return models.KindDocument
}

// Selection is an item the user picked, before it gets an identity
type Selection struct {
	Kind            models.AttachmentKind `json:"kind,omitempty"` // Inferred when empty
	SourceRef       string                `json:"sourceRef"`
	DisplayName     string                `json:"displayName,omitempty"`
	DurationSeconds int                   `json:"durationSeconds,omitempty"`
}

// Staging holds pending attachments in insertion order
type Staging struct {
	items []models.Attachment
}

// Add classifies sel when no kind is given, assigns a fresh id and appends it
func (s *Staging) Add(sel Selection) models.Attachment {
	kind := sel.Kind
	if !kind.Valid() {
		name := sel.DisplayName
		if name == "" {
			name = sel.SourceRef
		}
		kind = Classify(name)
	}

	att := models.Attachment{
		ID:              uuid.New().String(),
		Kind:            kind,
		SourceRef:       sel.SourceRef,
		DisplayName:     sel.DisplayName,
		DurationSeconds: sel.DurationSeconds,
	}
	s.items = append(s.items, att)
	return att
}

// Remove drops the attachment with the given id; unknown ids are ignored
func (s *Staging) Remove(id string) {
	for i, att := range s.items {
		if att.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear empties the staging area
func (s *Staging) Clear() {
	s.items = nil
}

// Len returns the number of staged attachments
func (s *Staging) Len() int {
	return len(s.items)
}

// List returns a copy of the staged attachments in send order
func (s *Staging) List() []models.Attachment {
	out := make([]models.Attachment, len(s.items))
	copy(out, s.items)
	return out
}
