// Package users implements account management: registration, login with
// bcrypt password verification and token minting, and account
// administration gated by scopes.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/auth/jwt"
	"github.com/rhuss/zettel/pkg/storage"
)

// Service orchestrates account operations between the transport layer
// and the user store.
type Service struct {
	store      storage.UserStore
	issuer     *jwt.Issuer
	validation api.ValidationConfig
}

// New creates a user service. The store and issuer must not be nil.
func New(store storage.UserStore, issuer *jwt.Issuer, validation api.ValidationConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("users: store must not be nil")
	}
	if issuer == nil {
		return nil, fmt.Errorf("users: token issuer must not be nil")
	}
	return &Service{
		store:      store,
		issuer:     issuer,
		validation: validation,
	}, nil
}

// Register creates a new account. The tier defaults to "free".
func (s *Service) Register(ctx context.Context, req *api.RegisterRequest) (*api.User, error) {
	if apiErr := api.ValidateRegisterRequest(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	tier := req.Tier
	if tier == "" {
		tier = api.TierFree
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &api.User{
		ID:           api.NewUserID(),
		Name:         req.Name,
		Tier:         tier,
		CreatedAt:    time.Now().UTC(),
		PasswordHash: string(hash),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, api.NewConflictError("a user with this name already exists")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "name", user.Name, "tier", user.Tier)
	return user, nil
}

// Login verifies credentials and mints a bearer token. Unknown names and
// wrong passwords produce the same error so callers cannot probe for
// registered accounts.
func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error) {
	if apiErr := api.ValidateLoginRequest(req); apiErr != nil {
		return nil, apiErr
	}

	user, err := s.store.GetUserByName(ctx, req.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewUnauthorizedError("invalid name or password")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, api.NewUnauthorizedError("invalid name or password")
	}

	token, expiresIn, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	slog.Debug("user logged in", "user_id", user.ID)
	return &api.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	}, nil
}

// Get retrieves an account. Callers can fetch their own account; the
// admin scope is required for anyone else's. A foreign account looks
// absent to non-admins.
func (s *Service) Get(ctx context.Context, id string, caller *auth.Identity) (*api.User, error) {
	if !canAccess(caller, id) {
		return nil, api.NewNotFoundError("user not found")
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// Update modifies an account. Self or admin scope; changing the tier
// additionally requires the admin scope.
func (s *Service) Update(ctx context.Context, id string, req *api.UpdateUserRequest, caller *auth.Identity) (*api.User, error) {
	if !canAccess(caller, id) {
		return nil, api.NewNotFoundError("user not found")
	}
	if apiErr := api.ValidateUpdateUserRequest(req, s.validation); apiErr != nil {
		return nil, apiErr
	}
	if req.Tier != nil && !caller.HasScope(auth.ScopeAdmin) {
		return nil, api.NewForbiddenError("changing the tier requires the admin scope")
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.Tier != nil {
		user.Tier = *req.Tier
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, api.NewConflictError("a user with this name already exists")
		case errors.Is(err, storage.ErrNotFound):
			return nil, api.NewNotFoundError("user not found")
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	slog.Info("user updated", "user_id", user.ID)
	return user, nil
}

// Delete removes an account and all its notes. Self or admin scope.
func (s *Service) Delete(ctx context.Context, id string, caller *auth.Identity) error {
	if !canAccess(caller, id) {
		return api.NewNotFoundError("user not found")
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return api.NewNotFoundError("user not found")
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	slog.Info("user deleted", "user_id", id)
	return nil
}

// List returns all accounts, newest first. Admin scope required.
func (s *Service) List(ctx context.Context, caller *auth.Identity) ([]*api.User, error) {
	if !caller.HasScope(auth.ScopeAdmin) {
		return nil, api.NewForbiddenError("listing users requires the admin scope")
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// canAccess reports whether the caller may operate on the given account.
func canAccess(caller *auth.Identity, userID string) bool {
	if caller == nil {
		return false
	}
	return caller.Subject == userID || caller.HasScope(auth.ScopeAdmin)
}
