package app

import (
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"sessions", "show", "stats", "blocks", "retries", "export", "track", "watch", "tui"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		registered[name] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5k"},
		{2_300_000, "2.3M"},
	}
	for _, tc := range cases {
		if got := formatTokens(tc.n); got != tc.want {
			t.Errorf("formatTokens(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abcdef01-2345"); got != "abcdef01" {
		t.Errorf("shortID = %q, want abcdef01", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q, want abc", got)
	}
}

func TestShortProject(t *testing.T) {
	if got := shortProject("-home-dev-myapp"); got != "myapp" {
		t.Errorf("shortProject = %q, want myapp", got)
	}
	if got := shortProject(""); got != "-" {
		t.Errorf("shortProject = %q, want -", got)
	}
}
