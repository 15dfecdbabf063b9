package api

import (
	"fmt"
	"strings"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxContentLength  int
	MinNameLength     int
	MaxNameLength     int
	MinPasswordLength int
	MaxQueryLength    int
	MaxSearchLimit    int
	MaxListLimit      int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxContentLength:  10000,
		MinNameLength:     3,
		MaxNameLength:     50,
		MinPasswordLength: 8,
		MaxQueryLength:    1000,
		MaxSearchLimit:    50,
		MaxListLimit:      1000,
	}
}

// ValidateRegisterRequest checks a RegisterRequest for validity. It returns an
// *APIError describing the first validation failure, or nil if the request is valid.
func ValidateRegisterRequest(req *RegisterRequest, cfg ValidationConfig) *APIError {
	if err := validateName(req.Name, cfg); err != nil {
		return err
	}
	if err := validatePassword(req.Password, cfg); err != nil {
		return err
	}
	if req.Tier != "" {
		if err := validateTier(req.Tier); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLoginRequest checks a LoginRequest for validity.
func ValidateLoginRequest(req *LoginRequest) *APIError {
	if req.Name == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// ValidateUpdateUserRequest checks an UpdateUserRequest for validity.
// At least one field must be set.
func ValidateUpdateUserRequest(req *UpdateUserRequest, cfg ValidationConfig) *APIError {
	if req.Name == nil && req.Password == nil && req.Tier == nil {
		return NewInvalidRequestError("", "at least one field must be provided")
	}
	if req.Name != nil {
		if err := validateName(*req.Name, cfg); err != nil {
			return err
		}
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password, cfg); err != nil {
			return err
		}
	}
	if req.Tier != nil {
		if err := validateTier(*req.Tier); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCreateNoteRequest checks a CreateNoteRequest for validity.
func ValidateCreateNoteRequest(req *CreateNoteRequest, cfg ValidationConfig) *APIError {
	return validateContent(req.Content, cfg)
}

// ValidateUpdateNoteRequest checks an UpdateNoteRequest for validity.
func ValidateUpdateNoteRequest(req *UpdateNoteRequest, cfg ValidationConfig) *APIError {
	return validateContent(req.Content, cfg)
}

// ValidateSearchQuery checks a search query string and result limit.
func ValidateSearchQuery(query string, limit int, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(query) == "" {
		return NewInvalidRequestError("query", "query is required")
	}
	if cfg.MaxQueryLength > 0 && len(query) > cfg.MaxQueryLength {
		return NewInvalidRequestError("query",
			fmt.Sprintf("query exceeds maximum length of %d", cfg.MaxQueryLength))
	}
	if limit < 1 {
		return NewInvalidRequestError("limit", "limit must be positive")
	}
	if cfg.MaxSearchLimit > 0 && limit > cfg.MaxSearchLimit {
		return NewInvalidRequestError("limit",
			fmt.Sprintf("limit exceeds maximum of %d", cfg.MaxSearchLimit))
	}
	return nil
}

// ValidateListRange checks skip/limit pagination parameters for list operations.
func ValidateListRange(skip, limit int, cfg ValidationConfig) *APIError {
	if skip < 0 {
		return NewInvalidRequestError("skip", "skip must not be negative")
	}
	if limit < 1 {
		return NewInvalidRequestError("limit", "limit must be positive")
	}
	if cfg.MaxListLimit > 0 && limit > cfg.MaxListLimit {
		return NewInvalidRequestError("limit",
			fmt.Sprintf("limit exceeds maximum of %d", cfg.MaxListLimit))
	}
	return nil
}

func validateContent(content string, cfg ValidationConfig) *APIError {
	if content == "" {
		return NewInvalidRequestError("content", "content is required")
	}
	if cfg.MaxContentLength > 0 && len(content) > cfg.MaxContentLength {
		return NewInvalidRequestError("content",
			fmt.Sprintf("content exceeds maximum length of %d", cfg.MaxContentLength))
	}
	return nil
}

func validateName(name string, cfg ValidationConfig) *APIError {
	if name == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if len(name) < cfg.MinNameLength {
		return NewInvalidRequestError("name",
			fmt.Sprintf("name must be at least %d characters", cfg.MinNameLength))
	}
	if cfg.MaxNameLength > 0 && len(name) > cfg.MaxNameLength {
		return NewInvalidRequestError("name",
			fmt.Sprintf("name exceeds maximum length of %d", cfg.MaxNameLength))
	}
	if strings.TrimSpace(name) != name {
		return NewInvalidRequestError("name", "name must not have leading or trailing whitespace")
	}
	return nil
}

func validatePassword(password string, cfg ValidationConfig) *APIError {
	if password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	if len(password) < cfg.MinPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password must be at least %d characters", cfg.MinPasswordLength))
	}
	return nil
}

func validateTier(tier string) *APIError {
	switch tier {
	case TierFree, TierPremium, TierEnterprise:
		return nil
	}
	return NewInvalidRequestError("tier",
		fmt.Sprintf("tier must be one of %q, %q, %q", TierFree, TierPremium, TierEnterprise))
}
