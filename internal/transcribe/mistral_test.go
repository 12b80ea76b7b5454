package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestTranscribe(t *testing.T) {
	var gotAuth, gotModel string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"أريد قراءة كتاب"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", "", srv.URL)
	text, err := c.Transcribe(context.Background(), strings.NewReader("fake-audio-bytes"), "note.webm", "audio/webm")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "أريد قراءة كتاب" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultModel)
	}
}

func TestTranscribe_NotConfigured(t *testing.T) {
	c := NewClient("", "")
	if c.Configured() {
		t.Error("Configured() = true with empty key")
	}
	_, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.wav", "audio/wav")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestTranscribe_BadContentType(t *testing.T) {
	c := NewClient("key", "")
	if _, err := c.Transcribe(context.Background(), strings.NewReader("x"), "a.pdf", "application/pdf"); err == nil {
		t.Error("expected error for non-audio content type")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	c := NewClient("key", "")
	if _, err := c.Transcribe(context.Background(), strings.NewReader(""), "a.wav", "audio/wav"); err == nil {
		t.Error("expected error for empty upload")
	}
}

func TestTranscribe_RateLimitRetry(t *testing.T) {
	var attempt atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempt.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"ok"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "", srv.URL)
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "a.mp3", "audio/mpeg")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q", text)
	}
	if attempt.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempt.Load())
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "", srv.URL)
	if _, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "a.wav", "audio/wav"); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestValidContentType(t *testing.T) {
	cases := map[string]bool{
		"audio/webm":                true,
		"audio/wav; codecs=1":      true,
		"AUDIO/MPEG":               true,
		"video/mp4":                false,
		"application/octet-stream": false,
		"":                          false,
	}
	for ct, want := range cases {
		if got := ValidContentType(ct); got != want {
			t.Errorf("ValidContentType(%q) = %v, want %v", ct, got, want)
		}
	}
}
