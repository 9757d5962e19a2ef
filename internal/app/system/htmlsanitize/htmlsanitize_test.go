package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/vocelabs/vocehub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello, World!", "Hello, World!"},
		{"safe formatting kept", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"lists kept", "<ul><li>Item 1</li><li>Item 2</li></ul>", "<ul><li>Item 1</li><li>Item 2</li></ul>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tc.input); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSanitizeStripsEventHandlers(t *testing.T) {
	got := htmlsanitize.Sanitize(`<img src="x" onerror="alert('xss')">`)
	if strings.Contains(got, "onerror") {
		t.Errorf("onerror attribute survived: %q", got)
	}
}

func TestSanitizeStripsJavascriptHref(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: href survived: %q", got)
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Coordinación Norte", "Coordinación Norte"},
		{"tags removed", "<b>Norte</b>", "Norte"},
		{"script removed entirely", "Norte<script>alert(1)</script>", "Norte"},
		{"surrounding space trimmed", "  <p>Norte</p>  ", "Norte"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := htmlsanitize.StripTags(tc.input); got != tc.want {
				t.Errorf("StripTags(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
