package compose

import "ngabarin/gateway/internal/models"

const (
	// SelfAuthorLabel names the author when replying to one's own message
	SelfAuthorLabel = "yourself"
	// MediaPlaceholder stands in for the text of a non-text message
	MediaPlaceholder = "Media"
)

// Preview is what the reply banner above the input shows
type Preview struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// PreviewLabel builds the reply banner for ref as seen by currentUserID
func PreviewLabel(ref models.ReplyReference, currentUserID, recipientName string) Preview {
	p := Preview{Author: recipientName, Text: MediaPlaceholder}
	if ref.AuthorID == currentUserID {
		p.Author = SelfAuthorLabel
	}
	if ref.PreviewText != nil {
		p.Text = *ref.PreviewText
	}
	return p
}

// ReplyStaging holds at most one reply reference
type ReplyStaging struct {
	ref *models.ReplyReference
}

// Set replaces any current reference
func (r *ReplyStaging) Set(ref models.ReplyReference) {
	r.ref = &ref
}

// Clear drops the reference
func (r *ReplyStaging) Clear() {
	r.ref = nil
}

// Current returns the active reference, if any
func (r *ReplyStaging) Current() (models.ReplyReference, bool) {
	if r.ref == nil {
		return models.ReplyReference{}, false
	}
	return *r.ref, true
}

// Preview returns the banner for the active reference; false when none is set
func (r *ReplyStaging) Preview(currentUserID, recipientName string) (Preview, bool) {
	ref, ok := r.Current()
	if !ok {
		return Preview{}, false
	}
	return PreviewLabel(ref, currentUserID, recipientName), true
}
