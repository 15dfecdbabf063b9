package integration

import (
	"net/http"
	"testing"

	"github.com/rhuss/zettel/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	name := uniqueName()
	user := registerUser(t, name)

	if user.ID == "" {
		t.Error("registered user has empty id")
	}
	if user.Name != name {
		t.Errorf("name = %q, want %q", user.Name, name)
	}
	if user.Tier != "free" {
		t.Errorf("tier = %q, want free", user.Tier)
	}

	token := loginUser(t, name)
	if token == "" {
		t.Fatal("empty token")
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	name := uniqueName()
	registerUser(t, name)

	resp := postJSON(t, testEnv.BaseURL()+"/v1/users/register", map[string]any{
		"name":     name,
		"password": testPassword,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil || errResp.Error.Type != api.ErrorTypeConflict {
		t.Errorf("error = %+v, want type %q", errResp.Error, api.ErrorTypeConflict)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/v1/users/register", map[string]any{
		"name":     uniqueName(),
		"password": "short",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	name := uniqueName()
	registerUser(t, name)

	resp := postJSON(t, testEnv.BaseURL()+"/v1/users/login", map[string]any{
		"name":     name,
		"password": "not-the-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMeReturnsOwnAccount(t *testing.T) {
	user, token := newAccount(t)

	resp := doJSON(t, http.MethodGet, testEnv.BaseURL()+"/v1/users/me", nil, token)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var me api.User
	decodeJSON(t, resp, &me)
	if me.ID != user.ID {
		t.Errorf("me.id = %q, want %q", me.ID, user.ID)
	}
	if me.Name != user.Name {
		t.Errorf("me.name = %q, want %q", me.Name, user.Name)
	}
}

func TestUserListingRequiresAdmin(t *testing.T) {
	_, token := newAccount(t)

	// A regular user sees 403.
	resp := doJSON(t, http.MethodGet, testEnv.BaseURL()+"/v1/users", nil, token)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("regular user: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The admin API key sees the listing.
	resp = doAPIKey(t, http.MethodGet, testEnv.BaseURL()+"/v1/users", nil, adminAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin key: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var list struct {
		Object string      `json:"object"`
		Data   []*api.User `json:"data"`
	}
	decodeJSON(t, resp, &list)
	if list.Object != "list" {
		t.Errorf("object = %q, want list", list.Object)
	}
	if len(list.Data) == 0 {
		t.Error("admin listing returned no users")
	}
	for _, u := range list.Data {
		if u.PasswordHash != "" {
			t.Fatal("user listing leaked a password hash")
		}
	}
}

func TestTierChangeRequiresAdmin(t *testing.T) {
	user, token := newAccount(t)

	// Self-service tier change is forbidden.
	resp := doJSON(t, http.MethodPut, testEnv.BaseURL()+"/v1/users/"+user.ID, map[string]any{
		"tier": "premium",
	}, token)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("self tier change: expected 403, got %d: %s", resp.StatusCode, readBody(t, resp))
	} else {
		resp.Body.Close()
	}

	// The admin key may promote the account.
	resp = doAPIKey(t, http.MethodPut, testEnv.BaseURL()+"/v1/users/"+user.ID, map[string]any{
		"tier": "premium",
	}, adminAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin tier change: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var updated api.User
	decodeJSON(t, resp, &updated)
	if updated.Tier != "premium" {
		t.Errorf("tier = %q, want premium", updated.Tier)
	}
}

func TestForeignUserHiddenFromNonAdmin(t *testing.T) {
	alice, _ := newAccount(t)
	_, bobToken := newAccount(t)

	resp := doJSON(t, http.MethodGet, testEnv.BaseURL()+"/v1/users/"+alice.ID, nil, bobToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for foreign account, got %d", resp.StatusCode)
	}
}

func TestDeleteOwnAccount(t *testing.T) {
	user, token := newAccount(t)

	// Account owns a note; deletion must cascade.
	createNote(t, token, "orphan candidate")

	resp := doJSON(t, http.MethodDelete, testEnv.BaseURL()+"/v1/users/"+user.ID, nil, token)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	// The token still verifies cryptographically but the account is gone.
	resp = doJSON(t, http.MethodGet, testEnv.BaseURL()+"/v1/users/me", nil, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("me after delete: expected 404, got %d", resp.StatusCode)
	}
}
