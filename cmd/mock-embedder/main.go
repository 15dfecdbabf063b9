// Command mock-embedder runs a deterministic OpenAI-compatible
// embeddings server for local development and conformance testing. It
// answers POST /v1/embeddings with reproducible vectors derived from the
// input text, so a server pointed at it behaves exactly like one using
// the built-in hash embedder.
//
// Configuration:
//
//	MOCK_PORT       - Listen port (default: 9090)
//	MOCK_DIMENSIONS - Vector dimensionality (default: 384)
//	MOCK_API_KEY    - If set, requests must carry it as a bearer token
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rhuss/zettel/pkg/vector"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	dims := vector.DefaultDimensions
	if v := os.Getenv("MOCK_DIMENSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Error("invalid MOCK_DIMENSIONS", "value", v)
			os.Exit(1)
		}
		dims = n
	}

	h := &handler{
		embedder: vector.NewHashEmbedder(dims),
		apiKey:   os.Getenv("MOCK_API_KEY"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/embeddings", h.handleEmbeddings)
	mux.HandleFunc("GET /v1/models", h.handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock embedder starting", "port", port, "dimensions", dims)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock embedder failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock embedder shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

type handler struct {
	embedder *vector.HashEmbedder
	apiKey   string
}

// --- Wire types ---

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  embeddingUsage  `json:"usage"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// --- Handlers ---

func (h *handler) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	if h.apiKey != "" && r.Header.Get("Authorization") != "Bearer "+h.apiKey {
		http.Error(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
		return
	}

	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}
	if len(req.Input) == 0 {
		http.Error(w, `{"error":{"message":"input is required","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	vectors, err := h.embedder.Embed(r.Context(), req.Input)
	if err != nil {
		http.Error(w, `{"error":{"message":"embedding failed","type":"server_error"}}`, http.StatusInternalServerError)
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-embedding-model"
	}

	tokens := 0
	for _, text := range req.Input {
		tokens += len(text) / 4
	}

	resp := embeddingResponse{
		Object: "list",
		Data:   make([]embeddingData, len(vectors)),
		Model:  model,
		Usage:  embeddingUsage{PromptTokens: tokens, TotalTokens: tokens},
	}
	for i, vec := range vectors {
		resp.Data[i] = embeddingData{Object: "embedding", Embedding: vec, Index: i}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *handler) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-embedding-model", "object": "model", "owned_by": "zettel-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
