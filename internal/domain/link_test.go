package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  error
	}{
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://www.Example.com/Path?q=A",
			expected: "https://www.example.com/Path?q=A",
		},
		{
			name:     "trims whitespace",
			input:    "  https://example.com/a  ",
			expected: "https://example.com/a",
		},
		{
			name:     "malformed url kept as-is",
			input:    "not a url",
			expected: "not a url",
		},
		{
			name:    "empty url rejected",
			input:   "   ",
			wantErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeURL() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL() unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeriveDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.Example.com/a", "example.com"},
		{"https://sub.example.com:8443/x", "sub.example.com"},
		{"http://wwwexample.com", "wwwexample.com"},
		{"example.com/no-scheme", ""},
		{"http://[::1", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DeriveDomain(tt.input); got != tt.expected {
				t.Errorf("DeriveDomain(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Go ", "", "redis", "GO", "cache", "extra"})
	want := []string{"go", "redis", "cache"}

	if !slicesEqual(got, want) {
		t.Errorf("NormalizeKeywords() = %v, want %v", got, want)
	}

	if empty := NormalizeKeywords(nil); empty == nil || len(empty) != 0 {
		t.Errorf("NormalizeKeywords(nil) = %v, want empty non-nil slice", empty)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("  "); got != DefaultCategory {
		t.Errorf("NormalizeCategory(blank) = %q, want %q", got, DefaultCategory)
	}
	if got := NormalizeCategory(" Reading "); got != "Reading" {
		t.Errorf("NormalizeCategory() = %q, want %q", got, "Reading")
	}
}

func TestLinkDisplayDomainFallsBack(t *testing.T) {
	l := &Link{URL: "https://www.golang.org/doc"}
	if got := l.DisplayDomain(); got != "golang.org" {
		t.Errorf("DisplayDomain() = %q, want golang.org", got)
	}

	l.Domain = "stored.example"
	if got := l.DisplayDomain(); got != "stored.example" {
		t.Errorf("DisplayDomain() = %q, want stored.example", got)
	}
}

func TestLinkCloneIsDeep(t *testing.T) {
	at := time.Now()
	orig := &Link{ID: "a", Keywords: []string{"x"}, ReminderAt: &at}
	cp := orig.Clone()

	cp.Keywords[0] = "y"
	*cp.ReminderAt = at.Add(time.Hour)

	if orig.Keywords[0] != "x" {
		t.Error("Clone() shares the keywords slice")
	}
	if !orig.ReminderAt.Equal(at) {
		t.Error("Clone() shares the reminder pointer")
	}
}

func TestTimerNameRoundTrip(t *testing.T) {
	id := "0b5c1a2e-7f3d-4d8e-9a61-1f2e3d4c5b6a"

	name := TimerName(id)
	if name != "lr:rem:"+id {
		t.Errorf("TimerName() = %q", name)
	}

	got, ok := LinkIDFromTimer(name)
	if !ok || got != id {
		t.Errorf("LinkIDFromTimer(%q) = %q, %v", name, got, ok)
	}

	if _, ok := LinkIDFromTimer("other:" + id); ok {
		t.Error("LinkIDFromTimer() accepted a foreign namespace")
	}
	if _, ok := LinkIDFromTimer(TimerNamespace); ok {
		t.Error("LinkIDFromTimer() accepted an empty id")
	}

	if got, ok := LinkIDFromNotification(NotificationName(id)); !ok || got != id {
		t.Errorf("LinkIDFromNotification() = %q, %v", got, ok)
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
