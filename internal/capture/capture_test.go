package capture

import (
	"log/slog"
	"os"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"collapse spaces", "hello    world\tagain", "hello world again"},
		{"collapse blank lines", "first\n\n\nsecond\n \nthird", "first\nsecond\nthird"},
		{"trim edges", "  \n  body text  \n  ", "body text"},
		{"trim inner lines", "first line   \n   second line", "first line\nsecond line"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.in); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewCapturerDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewCapturer(CapturerConfig{Logger: logger})
	if c.profileDir == "" {
		t.Error("profile dir not defaulted")
	}
	if c.timeout <= 0 {
		t.Error("timeout not defaulted")
	}
}
