// Package share builds the links used to hand a URL to another app.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Target is an app a link can be shared to
type Target string

const (
	WhatsApp Target = "whatsapp"
	Telegram Target = "telegram"
	Twitter  Target = "twitter"
	Facebook Target = "facebook"
	Email    Target = "email"
)

var (
	// ErrAppNotInstalled means the target app is missing on the device; the web
	// fallback can still be used
	ErrAppNotInstalled = errors.New("app not installed")
	// ErrUnknownTarget is returned for targets without a link format
	ErrUnknownTarget = errors.New("unknown share target")
	// ErrInvalidURL is returned when the shared URL is not absolute
	ErrInvalidURL = errors.New("invalid url")
)

var displayNames = map[Target]string{
	WhatsApp: "WhatsApp",
	Telegram: "Telegram",
	Twitter:  "Twitter",
	Facebook: "Facebook",
	Email:    "Mail",
}

// Links are the app deep link and a browser fallback for one share
type Links struct {
	Target Target `json:"target"`
	AppURL string `json:"appUrl,omitempty"`
	WebURL string `json:"webUrl"`
}

// Resolve builds share links for link. When installed is false the app link
// is omitted and ErrAppNotInstalled is returned alongside the web fallback.
func Resolve(target Target, link string, installed bool) (Links, error) {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Links{}, fmt.Errorf("%w: %q", ErrInvalidURL, link)
	}

	q := url.QueryEscape(link)
	var links Links
	switch target {
	case WhatsApp:
		links = Links{AppURL: "whatsapp://send?text=" + q, WebURL: "https://wa.me/?text=" + q}
	case Telegram:
		links = Links{AppURL: "tg://msg_url?url=" + q, WebURL: "https://t.me/share/url?url=" + q}
	case Twitter:
		links = Links{AppURL: "twitter://post?message=" + q, WebURL: "https://twitter.com/intent/tweet?url=" + q}
	case Facebook:
		links = Links{AppURL: "fb://facewebmodal/f?href=" + q, WebURL: "https://www.facebook.com/sharer/sharer.php?u=" + q}
	case Email:
		links = Links{AppURL: "mailto:?body=" + q, WebURL: "mailto:?body=" + q}
	default:
		return Links{}, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	links.Target = target

	if !installed {
		links.AppURL = ""
		return links, fmt.Errorf("%w: %s", ErrAppNotInstalled, DisplayName(target))
	}
	return links, nil
}

// DisplayName is the human name of a target
func DisplayName(target Target) string {
	if name, ok := displayNames[target]; ok {
		return name
	}
	s := string(target)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// UserMessage renders err as the alert text shown to the user
func UserMessage(target Target, err error) string {
	switch {
	case err == nil:
		return "Link ready to share"
	case errors.Is(err, ErrAppNotInstalled):
		return DisplayName(target) + " is not installed on this device"
	case errors.Is(err, ErrUnknownTarget):
		return "Sharing to this app is not supported"
	case errors.Is(err, ErrInvalidURL):
		return "This link cannot be shared"
	default:
		return "Something went wrong while sharing"
	}
}
