package domain

import (
	"net/url"
	"strings"
	"time"
)

// Game is a single catalog entry submitted by a visitor or an admin.
// The Approved flag gates public visibility; new submissions always start
// unapproved.
type Game struct {
	ID          string
	Name        string
	Image       string
	Price       string
	Genre       string
	HTMLContent string
	GameLink    string
	UploadedBy  string
	Timestamp   time.Time
	Approved    bool
}

// DisplayName returns the name used for matching and rendering. A missing
// name matches as the empty string rather than excluding the entry.
func (g Game) DisplayName() string {
	return strings.TrimSpace(g.Name)
}

// ImageURL returns the cover image, falling back to a generated placeholder
// keyed by the game name when no image reference was supplied.
func (g Game) ImageURL() string {
	if trimmed := strings.TrimSpace(g.Image); trimmed != "" {
		return trimmed
	}
	label := g.DisplayName()
	if label == "" {
		label = "No Name"
	}
	return "https://placehold.co/600x400/0D1117/FFFFFF?text=" + url.QueryEscape(strings.ReplaceAll(label, " ", "+"))
}

// Playable reports whether the entry carries a playable payload. Inline
// content takes precedence over an external link when both are set.
func (g Game) Playable() (content string, link string, ok bool) {
	content = strings.TrimSpace(g.HTMLContent)
	link = strings.TrimSpace(g.GameLink)
	if content != "" {
		return content, "", true
	}
	if link != "" {
		return "", link, true
	}
	return "", "", false
}

// PageID identifies one of the fixed editable static pages.
type PageID string

const (
	PageContact  PageID = "contact"
	PageAbout    PageID = "about"
	PageHowToUse PageID = "howToUse"
)

// KnownPageIDs lists every editable static page in display order.
func KnownPageIDs() []PageID {
	return []PageID{PageContact, PageAbout, PageHowToUse}
}

// ValidPageID reports whether raw names one of the fixed static pages.
func ValidPageID(raw string) bool {
	switch PageID(strings.TrimSpace(raw)) {
	case PageContact, PageAbout, PageHowToUse:
		return true
	}
	return false
}

// StaticPage is an admin-editable block of freeform markup served at a fixed
// identifier. The title is a display label supplied by the caller and never
// persisted.
type StaticPage struct {
	ID      PageID
	Content string
	Title   string
}

// Severity tags a notification message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is the single transient user-facing message slot.
type Notification struct {
	Text     string
	Severity Severity
	IssuedAt time.Time
}
