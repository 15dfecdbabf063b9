package api

import (
	"strings"
	"testing"
)

func TestValidateRegisterRequest(t *testing.T) {
	cfg := DefaultValidationConfig()
	tests := []struct {
		name      string
		req       *RegisterRequest
		wantParam string // "" means valid
	}{
		{"valid", &RegisterRequest{Name: "alice", Password: "hunter2hunter2"}, ""},
		{"valid with tier", &RegisterRequest{Name: "alice", Password: "hunter2hunter2", Tier: TierPremium}, ""},
		{"missing name", &RegisterRequest{Password: "hunter2hunter2"}, "name"},
		{"name too short", &RegisterRequest{Name: "al", Password: "hunter2hunter2"}, "name"},
		{"name too long", &RegisterRequest{Name: strings.Repeat("a", 51), Password: "hunter2hunter2"}, "name"},
		{"name padded", &RegisterRequest{Name: " alice ", Password: "hunter2hunter2"}, "name"},
		{"missing password", &RegisterRequest{Name: "alice"}, "password"},
		{"password too short", &RegisterRequest{Name: "alice", Password: "short"}, "password"},
		{"bad tier", &RegisterRequest{Name: "alice", Password: "hunter2hunter2", Tier: "platinum"}, "tier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegisterRequest(tt.req, cfg)
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func TestValidateLoginRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       *LoginRequest
		wantParam string
	}{
		{"valid", &LoginRequest{Name: "alice", Password: "pw"}, ""},
		{"missing name", &LoginRequest{Password: "pw"}, "name"},
		{"missing password", &LoginRequest{Name: "alice"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLoginRequest(tt.req)
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func TestValidateUpdateUserRequest(t *testing.T) {
	cfg := DefaultValidationConfig()
	name := "bob"
	shortName := "b"
	password := "longenoughpw"
	tier := TierEnterprise
	badTier := "gold"

	tests := []struct {
		name      string
		req       *UpdateUserRequest
		wantParam string
	}{
		{"name only", &UpdateUserRequest{Name: &name}, ""},
		{"password only", &UpdateUserRequest{Password: &password}, ""},
		{"tier only", &UpdateUserRequest{Tier: &tier}, ""},
		{"empty update", &UpdateUserRequest{}, "any"},
		{"short name", &UpdateUserRequest{Name: &shortName}, "name"},
		{"bad tier", &UpdateUserRequest{Tier: &badTier}, "tier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpdateUserRequest(tt.req, cfg)
			if tt.wantParam == "any" {
				if err == nil {
					t.Error("expected validation error, got nil")
				}
				return
			}
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func TestValidateCreateNoteRequest(t *testing.T) {
	cfg := DefaultValidationConfig()
	tests := []struct {
		name      string
		req       *CreateNoteRequest
		wantParam string
	}{
		{"valid", &CreateNoteRequest{Content: "Python is great"}, ""},
		{"single char", &CreateNoteRequest{Content: "x"}, ""},
		{"at limit", &CreateNoteRequest{Content: strings.Repeat("a", 10000)}, ""},
		{"empty", &CreateNoteRequest{}, "content"},
		{"over limit", &CreateNoteRequest{Content: strings.Repeat("a", 10001)}, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateNoteRequest(tt.req, cfg)
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	cfg := DefaultValidationConfig()
	tests := []struct {
		name      string
		query     string
		limit     int
		wantParam string
	}{
		{"valid", "Python web framework", 10, ""},
		{"limit one", "q", 1, ""},
		{"at max limit", "q", 50, ""},
		{"empty query", "", 10, "query"},
		{"whitespace query", "   ", 10, "query"},
		{"query too long", strings.Repeat("q", 1001), 10, "query"},
		{"zero limit", "q", 0, "limit"},
		{"negative limit", "q", -3, "limit"},
		{"limit too large", "q", 51, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchQuery(tt.query, tt.limit, cfg)
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func TestValidateListRange(t *testing.T) {
	cfg := DefaultValidationConfig()
	tests := []struct {
		name      string
		skip      int
		limit     int
		wantParam string
	}{
		{"defaults", 0, 100, ""},
		{"second page", 100, 100, ""},
		{"negative skip", -1, 100, "skip"},
		{"zero limit", 0, 0, "limit"},
		{"limit too large", 0, 1001, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListRange(tt.skip, tt.limit, cfg)
			checkValidation(t, err, tt.wantParam)
		})
	}
}

func checkValidation(t *testing.T, err *APIError, wantParam string) {
	t.Helper()
	if wantParam == "" {
		if err != nil {
			t.Errorf("expected valid, got %v", err)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected validation error on %q, got nil", wantParam)
	}
	if err.Type != ErrorTypeInvalidRequest {
		t.Errorf("Type = %q, want %q", err.Type, ErrorTypeInvalidRequest)
	}
	if err.Param != wantParam {
		t.Errorf("Param = %q, want %q", err.Param, wantParam)
	}
}
