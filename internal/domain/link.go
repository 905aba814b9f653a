package domain

import (
	"strings"
	"time"
)

// DefaultCategory is the sentinel category every link falls back to.
const DefaultCategory = "Uncategorized"

// MaxKeywords is the number of keywords kept per link.
const MaxKeywords = 3

// Link represents a saved link and its optional pending reminder.
//
// A Link is uniquely identified by its ID, and no two links share the same URL.
// The JSON layout is the persisted record layout.
type Link struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is generated once at creation and never changes.
	// It is the join key for reminder timers and alerts.
	ID string `json:"id"`

	// URL is the normalized absolute URL.
	// Example: https://example.com/a
	URL string `json:"url"`

	// ─────────────────────────────
	// Description
	// (replaced by detailed saves)
	// ─────────────────────────────

	// Title defaults to URL when empty.
	Title string `json:"title"`

	// Domain is derived from URL on every save (www. stripped).
	// Never authoritative, see DisplayDomain.
	Domain string `json:"domain"`

	// Category defaults to DefaultCategory.
	Category string `json:"category"`

	// Keywords holds at most MaxKeywords lowercase tags.
	Keywords []string `json:"keywords"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// AddedAt is set once at first creation.
	AddedAt time.Time `json:"addedAt"`

	// UpdatedAt is the time of the last detailed save.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// LastQuickSavedAt is the time of the last one-click save.
	// A detailed save replaces the record and resets it.
	LastQuickSavedAt time.Time `json:"lastQuickSavedAt,omitempty"`

	// ─────────────────────────────
	// Reminder
	// ─────────────────────────────

	// ReminderAt is set while a reminder timer is armed for this link.
	// Nil means no active timer.
	ReminderAt *time.Time `json:"reminderAt,omitempty"`
}

// LinkInput carries the caller-supplied fields of a detailed save.
type LinkInput struct {
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Keywords   []string   `json:"keywords"`
	ReminderAt *time.Time `json:"reminderAt,omitempty"`
}

// HasReminder reports whether a reminder is armed for the link.
func (l *Link) HasReminder() bool {
	return l != nil && l.ReminderAt != nil
}

// DisplayDomain returns Domain, re-deriving it from URL when it is missing.
func (l *Link) DisplayDomain() string {
	if l.Domain != "" {
		return l.Domain
	}
	return DeriveDomain(l.URL)
}

// Clone returns a deep copy of the link.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	cp := *l
	if l.Keywords != nil {
		cp.Keywords = append([]string(nil), l.Keywords...)
	}
	if l.ReminderAt != nil {
		at := *l.ReminderAt
		cp.ReminderAt = &at
	}
	return &cp
}

// NormalizeCategory trims the category and falls back to DefaultCategory.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

// NormalizeKeywords lowercases and trims keywords, drops empty and duplicate
// entries and keeps the first MaxKeywords.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, MaxKeywords)
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
