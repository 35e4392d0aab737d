package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testSummary() RunSummary {
	return RunSummary{RunID: "run-1", Command: "extract", Processed: 3, Skipped: 1, Failed: []string{"2024-01-01-x"}}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testSummary()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received["chat_id"] != "chat" {
		t.Fatalf("wrong chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "Failed matches: 2024-01-01-x") {
		t.Fatalf("summary text missing failures: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testSummary()); err == nil {
		t.Fatal("ok=false should fail")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()
	notifier = NewTelegramNotifier("token", "chat", bad.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testSummary()); err == nil {
		t.Fatal("non-2xx should fail")
	}
}

func TestRenderSummary(t *testing.T) {
	s := testSummary()
	s.Started = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s.Finished = s.Started.Add(90 * time.Second)
	text := RenderSummary(s)
	for _, want := range []string{"[matchfeatures extract]", "Duration: 1m30s", "Processed: 3  Skipped: 1  Failed: 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
}
