package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessage_OK(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	defer srv.Close()

	c := New("test-token", srv.URL)
	if err := c.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotBody.ChatID != 42 {
		t.Errorf("chat_id = %d, want 42", gotBody.ChatID)
	}
	if gotBody.Text != "hello" {
		t.Errorf("text = %q, want hello", gotBody.Text)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(apiResponse{
			OK:          false,
			ErrorCode:   403,
			Description: "Forbidden: bot was blocked by the user",
		})
	}))
	defer srv.Close()

	c := New("test-token", srv.URL)
	err := c.SendMessage(context.Background(), 42, "hello")
	if err == nil {
		t.Fatal("SendMessage should fail on an API error")
	}
	if !strings.Contains(err.Error(), "blocked by the user") {
		t.Errorf("error %q should carry the API description", err)
	}
}

func TestSendMessage_NonJSONResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := New("test-token", srv.URL)
	err := c.SendMessage(context.Background(), 42, "hello")
	if err == nil {
		t.Fatal("SendMessage should fail on a non-JSON response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should carry the HTTP status", err)
	}
}

func TestSendMessage_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("test-token", srv.URL)
	if err := c.SendMessage(ctx, 42, "hello"); err == nil {
		t.Fatal("SendMessage should fail with a cancelled context")
	}
}
