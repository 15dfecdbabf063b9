// Command demo walks through the zettel core flow offline: register a
// user, create notes against the in-memory store, list them, and run
// semantic searches with the deterministic hash embedder. No server, no
// database, no network.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/auth/jwt"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/notes"
	"github.com/rhuss/zettel/pkg/storage/memory"
	"github.com/rhuss/zettel/pkg/users"
	"github.com/rhuss/zettel/pkg/vector"
)

var fixture = []string{
	"Meeting agenda for the platform sync on Thursday",
	"Grocery list: milk, eggs, coffee beans, rye bread",
	"Ideas for the quarterly planning offsite",
	"Recipe for sourdough starter, feed twice daily",
	"Follow up with the infra team about the postgres upgrade",
}

func main() {
	fmt.Println("=== zettel core demo ===")
	fmt.Println()

	ctx := context.Background()

	// 1. Wire the service stack the way cmd/server does, minus the
	// transport: hash embedder, in-memory store, list cache.
	embedder := vector.NewHashEmbedder(vector.DefaultDimensions)
	store := memory.New(embedder)
	defer store.Close()

	issuer, err := jwt.NewIssuer(jwt.Config{Secret: []byte("demo-secret-not-for-production!!")})
	if err != nil {
		fmt.Printf("issuer setup FAILED: %v\n", err)
		return
	}

	userSvc, err := users.New(store, issuer, api.DefaultValidationConfig())
	if err != nil {
		fmt.Printf("user service setup FAILED: %v\n", err)
		return
	}

	noteSvc, err := notes.New(store, cache.NewMemory(), 5*time.Minute, api.DefaultValidationConfig())
	if err != nil {
		fmt.Printf("note service setup FAILED: %v\n", err)
		return
	}

	// 2. Register a user and log in.
	user, err := userSvc.Register(ctx, &api.RegisterRequest{
		Name:     "ada",
		Password: "correct-horse-battery",
	})
	if err != nil {
		fmt.Printf("register FAILED: %v\n", err)
		return
	}
	fmt.Printf("[1] Registered user %q (id=%s, tier=%s)\n", user.Name, user.ID, user.Tier)

	token, err := userSvc.Login(ctx, &api.LoginRequest{Name: "ada", Password: "correct-horse-battery"})
	if err != nil {
		fmt.Printf("login FAILED: %v\n", err)
		return
	}
	fmt.Printf("[2] Logged in: %s token, expires in %ds\n", token.TokenType, token.ExpiresIn)

	caller := &auth.Identity{
		Subject: user.ID,
		Name:    user.Name,
		Scopes:  []string{auth.ScopeNotes},
	}

	// 3. Create the fixture notes.
	fmt.Println("\n[3] Creating notes:")
	for _, content := range fixture {
		note, err := noteSvc.Create(ctx, &api.CreateNoteRequest{Content: content}, caller)
		if err != nil {
			fmt.Printf("    create FAILED: %v\n", err)
			return
		}
		fmt.Printf("    %s  %s\n", note.ID, note.Content)
	}

	// 4. List with pagination.
	page, hasMore, err := noteSvc.List(ctx, caller, 0, 3)
	if err != nil {
		fmt.Printf("list FAILED: %v\n", err)
		return
	}
	fmt.Printf("\n[4] First page (limit=3, has_more=%v):\n", hasMore)
	for _, n := range page {
		fmt.Printf("    %s\n", n.Content)
	}

	// 5. Semantic search. Related wording should surface the meeting and
	// planning notes ahead of the grocery list.
	runSearch(ctx, noteSvc, caller, 5, "agenda for the team meeting", embedder)

	// 6. Exact content embeds to the identical vector, so similarity is
	// exactly 1.0 and the note ranks first.
	runSearch(ctx, noteSvc, caller, 6, fixture[1], embedder)

	// 7. JSON shape as clients see it: embeddings and password hashes
	// never serialize.
	noteJSON, _ := json.MarshalIndent(page[0], "", "  ")
	userJSON, _ := json.MarshalIndent(user, "", "  ")
	fmt.Printf("\n[7] Wire shapes:\n%s\n%s\n", noteJSON, userJSON)

	fmt.Println("\n=== demo complete ===")
}

func runSearch(ctx context.Context, noteSvc *notes.Service, caller *auth.Identity, step int, query string, embedder vector.Embedder) {
	results, err := noteSvc.SearchByText(ctx, caller, query, 3)
	if err != nil {
		fmt.Printf("search FAILED: %v\n", err)
		return
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		fmt.Printf("embed FAILED: %v\n", err)
		return
	}

	fmt.Printf("\n[%d] Search %q:\n", step, query)
	for i, n := range results {
		sim := vector.CosineSimilarity(vecs[0], n.Embedding)
		fmt.Printf("    %d. (%.4f) %s\n", i+1, sim, n.Content)
	}
}
