package alerting

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

func TestPushoverDeliverSuccess(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "messages.json") {
			t.Fatalf("path should contain messages.json, got %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 1})
	}))
	defer srv.Close()

	client := NewPushoverClient("token", "user", srv.URL, time.Second, zerolog.Nop())
	if err := client.Deliver(context.Background(), "title", "body", PriorityHigh); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	if got := form["priority"]; len(got) != 1 || got[0] != "1" {
		t.Fatalf("priority = %v, want [1]", got)
	}
	if got := form["user"]; len(got) != 1 || got[0] != "user" {
		t.Fatalf("user = %v, want [user]", got)
	}
}

func TestPushoverDeliverRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 0, "errors": []string{"user identifier is invalid"}})
	}))
	defer srv.Close()

	client := NewPushoverClient("token", "user", srv.URL, time.Second, zerolog.Nop())
	if err := client.Deliver(context.Background(), "title", "body", PriorityNormal); err == nil {
		t.Fatal("status=0 should return an error")
	}
}

func TestSlackDeliverTargets(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bot-token" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	client := NewSlackClient("bot-token", srv.URL, time.Second, zerolog.Nop())
	if err := client.Deliver(context.Background(), "C042", "title", "body", PriorityNormal); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if payload["channel"] != "C042" {
		t.Fatalf("channel = %q, want C042", payload["channel"])
	}
}

func TestSlackDeliverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer srv.Close()

	client := NewSlackClient("bot-token", srv.URL, time.Second, zerolog.Nop())
	if err := client.Deliver(context.Background(), "C000", "title", "body", PriorityHigh); err == nil {
		t.Fatal("ok=false should return an error")
	}
}
