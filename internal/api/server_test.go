package api

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/nkovalenko/tutorchat"
	"github.com/nkovalenko/tutorchat/internal/config"
	"github.com/nkovalenko/tutorchat/internal/llm"
	"github.com/nkovalenko/tutorchat/internal/storage"
)

// newTestServer builds a server over temp storage. The export pool is real
// but never acquired by these tests, so no browser is launched.
func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Prompts.Dialog = "Task: {{.task}}\n\n{{.dialogue_turns}}"
	if mutate != nil {
		mutate(cfg)
	}
	mgr := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"), cfg)

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	pool := tutorchat.NewExportPool(1, func() *tutorchat.Service {
		return tutorchat.New()
	})
	t.Cleanup(func() { _ = pool.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(mgr, store, pool, log)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return out
}

func multipartForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["status"]; got != "ok" {
		t.Errorf("status field = %v, want ok", got)
	}
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	server, ok := body["server"].(map[string]any)
	if !ok {
		t.Fatalf("missing server section: %v", body)
	}
	if server["addr"] != ":8000" {
		t.Errorf("server.addr = %v, want :8000", server["addr"])
	}
}

func TestPutConfig(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPut, "/api/config", map[string]any{
		"model": map[string]any{"name": "gemini-1.5-pro"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	if srv.cfg.Get().Model.Name != "gemini-1.5-pro" {
		t.Errorf("Model.Name = %q after update", srv.cfg.Get().Model.Name)
	}
}

func TestPutConfigRejectsOversizedField(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPut, "/api/config", map[string]any{
		"model": map[string]any{"name": strings.Repeat("m", config.MaxModelNameLength+1)},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateAndFetchDialog(t *testing.T) {
	srv := newTestServer(t, nil)

	buf, contentType := multipartForm(t, map[string]string{"task": "Solve 2+2"})
	req := httptest.NewRequest(http.MethodPost, "/api/dialogs", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	id, _ := body["conversation_id"].(string)
	if len(id) != 32 {
		t.Fatalf("conversation_id = %q, want 32-char ID", id)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dialogs/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status = %d", rec.Code)
	}
	conv := decodeBody(t, rec)
	if conv["task"] != "Solve 2+2" {
		t.Errorf("task = %v, want Solve 2+2", conv["task"])
	}
}

func TestGetDialogNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/dialogs/0123456789abcdef0123456789abcdef", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Conversation not found" {
		t.Errorf("error = %v", got)
	}
}

func TestPostMessageEmpty(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createDialog(t, srv, "task")

	rec := doJSON(t, srv, http.MethodPost, "/api/dialogs/"+id+"/messages", map[string]any{
		"message": "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Message cannot be empty" {
		t.Errorf("error = %v", got)
	}
}

func TestPostMessageUnconfiguredModel(t *testing.T) {
	// With no API key the model degrades to a placeholder reply instead of
	// failing the request.
	t.Setenv(llm.APIKeyEnv, "")

	srv := newTestServer(t, nil)
	id := createDialog(t, srv, "Solve 2+2")

	rec := doJSON(t, srv, http.MethodPost, "/api/dialogs/"+id+"/messages", map[string]any{
		"message": "Is the answer 4?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\nbody: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	assistant, ok := body["assistant_message"].(map[string]any)
	if !ok {
		t.Fatalf("missing assistant_message: %v", body)
	}
	reply, _ := assistant["content"].(string)
	if !strings.Contains(reply, llm.APIKeyEnv) {
		t.Errorf("assistant reply = %q, want placeholder naming %s", reply, llm.APIKeyEnv)
	}

	// Both turns were persisted.
	rec = doJSON(t, srv, http.MethodGet, "/api/dialogs/"+id+"/messages", nil)
	msgs, _ := decodeBody(t, rec)["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("stored message count = %d, want 2", len(msgs))
	}
}

func TestPostMessageMissingConversation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/dialogs/missing/messages", map[string]any{
		"message": "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListConversations(t *testing.T) {
	srv := newTestServer(t, nil)
	createDialog(t, srv, "first")
	createDialog(t, srv, "second")

	rec := doJSON(t, srv, http.MethodGet, "/api/conversations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list, ok := decodeBody(t, rec)["conversations"].([]any)
	if !ok {
		t.Fatal("missing conversations array")
	}
	if len(list) != 2 {
		t.Errorf("conversation count = %d, want 2", len(list))
	}
}

func TestEstimationWithoutTemplate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	buf, contentType := multipartForm(t, map[string]string{"task": "x", "student_work": "y"})
	req := httptest.NewRequest(http.MethodPost, "/api/estimation", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Estimation template is not configured." {
		t.Errorf("error = %v", got)
	}
}

func TestEstimationPlaceholderReply(t *testing.T) {
	t.Setenv(llm.APIKeyEnv, "")

	srv := newTestServer(t, func(c *config.Config) {
		c.Prompts.Estimation = "Task: {{.task}}\nWork: {{.student_work}}"
	})

	buf, contentType := multipartForm(t, map[string]string{
		"task":         "Solve 2+2",
		"student_work": "4",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/estimation", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if id, _ := body["estimation_id"].(string); len(id) != 32 {
		t.Errorf("estimation_id = %v", body["estimation_id"])
	}
	feedback, _ := body["feedback"].(string)
	if !strings.Contains(feedback, llm.APIKeyEnv) {
		t.Errorf("feedback = %q, want placeholder naming %s", feedback, llm.APIKeyEnv)
	}
}

func TestEstimationExportRejectsEmptyFeedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
	}{
		{name: "empty string", body: map[string]any{"feedback": "", "score": "90"}},
		{name: "whitespace only", body: map[string]any{"feedback": "  \n\t "}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, nil)
			rec := doJSON(t, srv, http.MethodPost, "/api/estimation/export", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != "Feedback is empty" {
				t.Errorf("error = %v", got)
			}
		})
	}
}

func TestEstimationExportRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/estimation/export", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func createDialog(t *testing.T, srv *Server, task string) string {
	t.Helper()

	buf, contentType := multipartForm(t, map[string]string{"task": task})
	req := httptest.NewRequest(http.MethodPost, "/api/dialogs", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("creating dialog: status = %d\nbody: %s", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["conversation_id"].(string)
	if id == "" {
		t.Fatal("creating dialog: empty conversation_id")
	}
	return id
}
