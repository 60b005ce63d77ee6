package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, testLogger())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestProcessVoiceSuccess(t *testing.T) {
	var gotSessionID string
	var gotLanguage string
	var gotFilename string
	var sessionFieldPresent bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voice/process" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}

		gotLanguage = r.FormValue("language")
		_, sessionFieldPresent = r.MultipartForm.Value["session_id"]
		gotSessionID = r.FormValue("session_id")

		if files := r.MultipartForm.File["audio"]; len(files) == 1 {
			gotFilename = files[0].Filename
		}

		w.Header().Set("X-Session-ID", b64("abc"))
		w.Header().Set("X-Transcribed-Text", b64("hola"))
		w.Header().Set("X-Response-Text", b64("buenas"))
		w.Header().Set("X-Latency-Total", "1.5")
		w.Header().Set("X-Latency-STT", "0.4")
		w.Header().Set("X-Latency-LLM", "0.8")
		w.Header().Set("X-Latency-TTS", "0.3")
		w.Write([]byte("fake-audio-bytes"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.ProcessVoice(context.Background(), []byte("not-a-wav"), "", "es")
	if err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}

	if sessionFieldPresent {
		t.Errorf("session_id field must be omitted for a new conversation, got %q", gotSessionID)
	}

	if gotLanguage != "es" {
		t.Errorf("Expected language 'es', got %q", gotLanguage)
	}

	if gotFilename != "voice.webm" {
		t.Errorf("Expected filename voice.webm for non-WAV payload, got %q", gotFilename)
	}

	if result.ConversationID != "abc" {
		t.Errorf("Expected conversation id 'abc', got %q", result.ConversationID)
	}

	if result.TranscribedText != "hola" {
		t.Errorf("Expected transcribed text 'hola', got %q", result.TranscribedText)
	}

	if result.AssistantText != "buenas" {
		t.Errorf("Expected assistant text 'buenas', got %q", result.AssistantText)
	}

	if string(result.Audio) != "fake-audio-bytes" {
		t.Errorf("Unexpected audio payload: %q", result.Audio)
	}

	if result.Latency == nil {
		t.Fatal("Expected latency record")
	}

	if result.Latency.Total != 1500*time.Millisecond {
		t.Errorf("Expected total latency 1.5s, got %v", result.Latency.Total)
	}

	if result.Latency.LanguageModel != 800*time.Millisecond {
		t.Errorf("Expected LLM latency 0.8s, got %v", result.Latency.LanguageModel)
	}
}

func TestProcessVoiceIncludesSessionID(t *testing.T) {
	var gotSessionID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		gotSessionID = r.FormValue("session_id")
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ProcessVoice(context.Background(), []byte("blob"), "abc", "es")
	if err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}

	if gotSessionID != "abc" {
		t.Errorf("Expected session_id 'abc' sent verbatim, got %q", gotSessionID)
	}
}

func TestProcessVoiceUTF8Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Session-ID", b64("sesión-1"))
		w.Header().Set("X-Transcribed-Text", b64("¿qué día es hoy?"))
		w.Header().Set("X-Response-Text", b64("Hoy es miércoles, ¡ánimo!"))
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.ProcessVoice(context.Background(), []byte("blob"), "", "es")
	if err != nil {
		t.Fatalf("ProcessVoice failed: %v", err)
	}

	if result.TranscribedText != "¿qué día es hoy?" {
		t.Errorf("UTF-8 transcription mangled: %q", result.TranscribedText)
	}

	if result.AssistantText != "Hoy es miércoles, ¡ánimo!" {
		t.Errorf("UTF-8 response mangled: %q", result.AssistantText)
	}
}

func TestProcessVoiceBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"Token whisper out of vocabulary"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ProcessVoice(context.Background(), []byte("blob"), "abc", "es")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T: %v", err, err)
	}

	if backendErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", backendErr.Status)
	}

	if backendErr.Detail != "Token whisper out of vocabulary" {
		t.Errorf("Expected JSON detail extracted, got %q", backendErr.Detail)
	}
}

func TestProcessVoicePlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.ProcessVoice(context.Background(), []byte("blob"), "", "es")

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T", err)
	}

	if backendErr.Detail != "upstream exploded" {
		t.Errorf("Expected plain-text detail, got %q", backendErr.Detail)
	}
}

func TestProcessVoiceEmptyAudioResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Session-ID", b64("abc"))
		w.Header().Set("X-Transcribed-Text", b64("hola"))
		w.Header().Set("X-Response-Text", b64("buenas"))
		// 2xx with zero-length body
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.ProcessVoice(context.Background(), []byte("blob"), "", "es")

	var emptyErr *EmptyResponseError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected *EmptyResponseError, got %T: %v", err, err)
	}

	// Decoded texts must survive so the turns can still be shown
	if result == nil {
		t.Fatal("Expected result alongside EmptyResponseError")
	}
	if result.TranscribedText != "hola" || result.AssistantText != "buenas" {
		t.Errorf("Expected decoded texts on empty-audio result, got %q / %q",
			result.TranscribedText, result.AssistantText)
	}
}

func TestProcessVoiceNetworkError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.ProcessVoice(context.Background(), []byte("blob"), "", "es")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError, got %T: %v", err, err)
	}
}

func TestClearConversationSwallowsFailures(t *testing.T) {
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	// Must not panic or propagate anything
	client.ClearConversation(context.Background(), "abc")

	if gotPath != "/api/conversation/abc" {
		t.Errorf("Expected /api/conversation/abc, got %s", gotPath)
	}

	// Unreachable backend is equally non-fatal
	down := newTestClient(t, "http://127.0.0.1:1")
	down.ClearConversation(context.Background(), "abc")
}

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if !client.CheckHealth(context.Background()) {
		t.Error("Expected healthy backend")
	}

	down := newTestClient(t, "http://127.0.0.1:1")
	if down.CheckHealth(context.Background()) {
		t.Error("Expected false for unreachable backend")
	}
}

func TestDecodeTextHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", ""},
		{"standard base64", b64("hola"), "hola"},
		{"unpadded base64", base64.RawStdEncoding.EncodeToString([]byte("hola!")), "hola!"},
		{"utf8 content", b64("señal"), "señal"},
		{"garbage", "!!not-base64!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeTextHeader(tt.value); got != tt.want {
				t.Errorf("decodeTextHeader(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecodeIDHeaderVerbatimFallback(t *testing.T) {
	// Not valid Base64: used as-is
	if got := decodeIDHeader("session-123!"); got != "session-123!" {
		t.Errorf("Expected verbatim fallback, got %q", got)
	}

	if got := decodeIDHeader(b64("abc")); got != "abc" {
		t.Errorf("Expected decoded id, got %q", got)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}, testLogger()); err == nil {
		t.Error("Expected error for empty base URL")
	}
}
