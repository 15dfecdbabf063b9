package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/zettel/pkg/api"
)

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":before")
				next.ServeHTTP(w, r)
				order = append(order, name+":after")
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	wrapped := Chain(mw("first"), mw("second"), mw("third"))(handler)

	req := httptest.NewRequest("GET", "/", nil)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRequestID_Generated(t *testing.T) {
	var ctxID string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID == "" {
		t.Fatal("no request ID in context")
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Errorf("header X-Request-Id = %q, want %q", got, ctxID)
	}
	if len(ctxID) != 32 {
		t.Errorf("generated ID length = %d, want 32 hex chars", len(ctxID))
	}
}

func TestRequestID_ClientProvided(t *testing.T) {
	var ctxID string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-Id", "client-id-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ctxID != "client-id-42" {
		t.Errorf("context ID = %q, want client-provided %q", ctxID, "client-id-42")
	}
	if got := rec.Header().Get("X-Request-Id"); got != "client-id-42" {
		t.Errorf("header X-Request-Id = %q, want %q", got, "client-id-42")
	}
}

func TestRequestIDContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if id := RequestIDFromContext(req.Context()); id != "" {
		t.Errorf("RequestIDFromContext on bare context = %q, want empty", id)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/v1/notes", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["method"] != "POST" {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/v1/notes" {
		t.Errorf("path = %v, want /v1/notes", entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestLogging_ServerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/notes", nil))

	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("5xx response should log at error level: %q", buf.String())
	}
}

func TestLogging_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	// Handler writes a body without an explicit WriteHeader.
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("implicit 200 not recorded: %q", buf.String())
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	handler := Recovery()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/notes", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rec.Code)
	}

	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", resp.Error.Type, api.ErrorTypeServerError)
	}
	if strings.Contains(resp.Error.Message, "test panic") {
		t.Error("panic value must not leak into the response body")
	}
}

func TestRecoveryPassesThrough(t *testing.T) {
	handler := Recovery()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status code = %d, want 418 (no interference without a panic)", rec.Code)
	}
}

func TestNoteListEnvelope(t *testing.T) {
	list := NewNoteList(nil, false)
	if list.Object != "list" {
		t.Errorf("Object = %q, want %q", list.Object, "list")
	}

	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"data":[]`) {
		t.Errorf("nil data must serialize as an empty array: %s", data)
	}

	list = NewNoteList([]*api.Note{{ID: "n1"}}, true)
	if !list.HasMore {
		t.Error("HasMore not carried through")
	}
	if len(list.Data) != 1 {
		t.Errorf("len(Data) = %d, want 1", len(list.Data))
	}
}

func TestUserListEnvelope(t *testing.T) {
	data, err := json.Marshal(NewUserList(nil))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"data":[]`) {
		t.Errorf("nil data must serialize as an empty array: %s", data)
	}
}
