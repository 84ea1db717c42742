package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Frana a Cortina", "Frana a Cortina"},
		{"A & B", "A &amp; B"},
		{"<script>", "&lt;script&gt;"},
		{"già &", "già &amp;"},
	}

	for _, c := range cases {
		if got := Escape(c.in); got != c.want {
			t.Errorf("Escape(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCaption(t *testing.T) {
	msg := Message{
		Title:       "Titolo & prova",
		Link:        "https://www.ildolomiti.it/cronaca/titolo",
		Tags:        []string{"cronaca", "belluno"},
		Description: "Sottotitolo <breve>",
	}

	want := "#cronaca #belluno — <strong>Titolo &amp; prova</strong>\n\n" +
		"<i>Sottotitolo &lt;breve&gt;</i>\n\n" +
		"📰 <a href=\"https://www.ildolomiti.it/cronaca/titolo\">Leggi articolo</a>"

	if got := Caption(msg); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestCaption_NoTagsNoDescription(t *testing.T) {
	msg := Message{
		Title: "Solo titolo",
		Link:  "https://www.ildolomiti.it/cronaca/solo",
	}

	want := "<strong>Solo titolo</strong>\n\n" +
		"📰 <a href=\"https://www.ildolomiti.it/cronaca/solo\">Leggi articolo</a>"

	if got := Caption(msg); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback.jpg")
	if err := os.WriteFile(path, []byte("jpegbytes"), 0o644); err != nil {
		t.Fatalf("writing test image: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("TOKEN", "@testchannel", "-100123", testImage(t))
	c.apiBase = server.URL
	return c
}

func TestSendPhoto_ReturnsMessageID(t *testing.T) {
	var gotPath, gotChatID, gotCaption string
	var gotPhoto []byte

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		gotChatID = r.FormValue("chat_id")
		gotCaption = r.FormValue("caption")

		file, _, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("photo part missing: %v", err)
		}
		defer file.Close()
		gotPhoto, _ = io.ReadAll(file)

		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 321},
		})
	})

	id, err := c.SendPhoto(context.Background(), Message{Title: "Titolo", Link: "https://x"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != 321 {
		t.Errorf("message id: got %d, want 321", id)
	}
	if gotPath != "/botTOKEN/sendPhoto" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotChatID != "@testchannel" {
		t.Errorf("chat_id: %q", gotChatID)
	}
	if !strings.Contains(gotCaption, "<strong>Titolo</strong>") {
		t.Errorf("caption: %q", gotCaption)
	}
	if string(gotPhoto) != "jpegbytes" {
		t.Errorf("fallback image not uploaded, got %q", gotPhoto)
	}
}

func TestSendPhoto_NonOKIsSendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request"}`))
	})

	_, err := c.SendPhoto(context.Background(), Message{Title: "T", Link: "https://x"})
	if err == nil {
		t.Fatal("expected an error")
	}
	sendErr, ok := err.(*SendError)
	if !ok {
		t.Fatalf("expected *SendError, got %T: %v", err, err)
	}
	if sendErr.Status != http.StatusBadRequest {
		t.Errorf("status: %d", sendErr.Status)
	}
}

func TestEditCaption_NotModifiedIsNoOp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: message is not modified"}`))
	})

	if err := c.EditCaption(context.Background(), 10, Message{Title: "T", Link: "https://x"}); err != nil {
		t.Errorf("unchanged caption should be a no-op, got %v", err)
	}
}

func TestEditCaption_APIErrorIsSwallowed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"Forbidden"}`))
	})

	if err := c.EditCaption(context.Background(), 10, Message{Title: "T", Link: "https://x"}); err != nil {
		t.Errorf("API edit errors are logged, not returned, got %v", err)
	}
}

func TestEditCaption_TransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient("TOKEN", "@testchannel", "-100123", testImage(t))
	c.apiBase = server.URL
	server.Close() // connection refused from here on

	if err := c.EditCaption(context.Background(), 10, Message{Title: "T", Link: "https://x"}); err == nil {
		t.Error("expected a transport error")
	}
}

func TestEditCaption_SendsMessageID(t *testing.T) {
	var payload map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/editMessageCaption" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true,"result":{"message_id":10}}`))
	})

	if err := c.EditCaption(context.Background(), 10, Message{Title: "T", Link: "https://x"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := payload["message_id"].(float64); got != 10 {
		t.Errorf("message_id: %v", payload["message_id"])
	}
	if payload["parse_mode"] != "HTML" {
		t.Errorf("parse_mode: %v", payload["parse_mode"])
	}
}

func TestSendLog_PostsToLogsChannel(t *testing.T) {
	var payload map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})

	if err := c.SendLog(context.Background(), "diff text"); err != nil {
		t.Fatalf("send log: %v", err)
	}
	if payload["chat_id"] != "-100123" {
		t.Errorf("chat_id: %v", payload["chat_id"])
	}
	if payload["text"] != "diff text" {
		t.Errorf("text: %v", payload["text"])
	}
}
