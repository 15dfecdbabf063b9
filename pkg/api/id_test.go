package api

import (
	"testing"
)

func TestNewUserID(t *testing.T) {
	id := NewUserID()
	if !ValidateID(id) {
		t.Errorf("NewUserID() = %q, want valid ID", id)
	}
}

func TestNewNoteID(t *testing.T) {
	id := NewNoteID()
	if !ValidateID(id) {
		t.Errorf("NewNoteID() = %q, want valid ID", id)
	}
}

func TestIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewNoteID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"valid generated", NewUserID(), true},
		{"empty", "", false},
		{"not a uuid", "note-1", false},
		{"truncated", "6ba7b810-9dad-11d1-80b4", false},
		{"invalid chars", "6ba7b810-9dad-11d1-80b4-00c04fd430zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.want {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
