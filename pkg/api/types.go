package api

import "time"

// Service tiers. A user's tier selects rate limits and is carried in
// issued tokens; it grants no implicit admin rights.
const (
	TierFree       = "free"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

// User represents a registered account.
//
// PasswordHash is the bcrypt hash of the account password. It is never
// serialized to clients.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Tier         string    `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
	PasswordHash string    `json:"-"`
}

// Note represents a user-owned text note.
//
// Embedding is derived data: absent until computed, populated lazily by
// the in-memory search path or eagerly on write when the store has
// native vector support. It is never serialized to clients. A cached
// embedding is not guaranteed to reflect the current content unless the
// update path regenerated it.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Embedding []float32 `json:"-"`
}

// RegisterRequest is the payload for creating a new account.
// Tier is optional and defaults to "free".
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Tier     string `json:"tier,omitempty"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UpdateUserRequest is the payload for modifying an account. Nil fields
// are left unchanged. Changing the tier requires the admin scope.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	Tier     *string `json:"tier,omitempty"`
}

// CreateNoteRequest is the payload for creating a note.
type CreateNoteRequest struct {
	Content string `json:"content"`
}

// UpdateNoteRequest is the payload for replacing a note's content.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// Clone returns a deep copy of the note. Stores hand out clones so
// callers cannot mutate cached state.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.Embedding != nil {
		c.Embedding = make([]float32, len(n.Embedding))
		copy(c.Embedding, n.Embedding)
	}
	return &c
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
