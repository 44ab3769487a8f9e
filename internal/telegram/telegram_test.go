package telegram

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendMessage_PostsChatAndText(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.SendMessage(123, `quotes "inside" stay valid`); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if !strings.Contains(gotBody, `"chat_id":123`) {
		t.Fatalf("missing chat_id in payload: %s", gotBody)
	}
	if !strings.Contains(gotBody, `quotes \"inside\" stay valid`) {
		t.Fatalf("text not JSON-escaped: %s", gotBody)
	}
}

func TestSendMessage_TruncatesLongText(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	if err := c.SendMessage(1, strings.Repeat("x", 5000)); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if strings.Count(gotBody, "x") != 3900 {
		t.Fatalf("expected text truncated to 3900 chars, got %d", strings.Count(gotBody, "x"))
	}
}

func TestSendMessage_ReportsAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	err := c.SendMessage(1, "hi")
	if err == nil {
		t.Fatal("expected error for ok=false response")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("error should carry API description: %v", err)
	}
}

func TestSetMyCommands_SendsCommandList(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/setMyCommands" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	err := c.SetMyCommands([]BotCommand{
		{Command: "ping", Description: "Check the bot is alive"},
	})
	if err != nil {
		t.Fatalf("SetMyCommands failed: %v", err)
	}
	if !strings.Contains(gotBody, `"command":"ping"`) {
		t.Fatalf("command list not serialized: %s", gotBody)
	}
}
