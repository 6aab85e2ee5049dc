package id

import (
	"strings"
	"testing"
)

func TestNewTerminalID(t *testing.T) {
	terminalID := NewTerminalID()
	if !strings.HasPrefix(terminalID.String(), "term_") {
		t.Errorf("unexpected prefix: %s", terminalID)
	}
	if !IsValid(terminalID.String(), TerminalPrefix) {
		t.Errorf("generated id fails validation: %s", terminalID)
	}
}

func TestNewSessionID(t *testing.T) {
	sessionID := NewSessionID()
	if !strings.HasPrefix(sessionID.String(), "sess_") {
		t.Errorf("unexpected prefix: %s", sessionID)
	}
	if !IsValid(sessionID.String(), SessionPrefix) {
		t.Errorf("generated id fails validation: %s", sessionID)
	}
}

func TestIsValidRejectsMalformed(t *testing.T) {
	cases := []struct {
		s      string
		prefix string
	}{
		{"", TerminalPrefix},
		{"term_", TerminalPrefix},
		{"term_not-a-ulid", TerminalPrefix},
		{"sess_01ARZ3NDEKTSV4RRFFQ69G5FAV", TerminalPrefix}, // wrong prefix
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", TerminalPrefix},      // no prefix
	}
	for _, tc := range cases {
		if IsValid(tc.s, tc.prefix) {
			t.Errorf("IsValid(%q, %q) = true, want false", tc.s, tc.prefix)
		}
	}
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	seen := make(map[TerminalID]bool)
	for i := 0; i < 1000; i++ {
		terminalID := NewTerminalID()
		if seen[terminalID] {
			t.Fatalf("duplicate id: %s", terminalID)
		}
		seen[terminalID] = true
	}
}
