package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arcavoice/orbe/internal/audio"
)

// Client provides stateless HTTP access to the remote voice-processing
// and conversation-lifecycle endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Config contains backend client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Latency carries the per-stage processing durations the backend
// reports for one exchange. Attached per response, never persisted.
type Latency struct {
	SpeechToText  time.Duration `json:"stt"`
	LanguageModel time.Duration `json:"llm"`
	TextToSpeech  time.Duration `json:"tts"`
	Total         time.Duration `json:"total"`
}

// VoiceResult is the decoded outcome of one voice exchange.
type VoiceResult struct {
	ConversationID  string
	TranscribedText string
	AssistantText   string
	Audio           []byte
	Latency         *Latency
}

// NewClient creates a backend client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", config.BaseURL, err)
	}

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ProcessVoice sends one captured audio blob for speech-to-text, LLM
// and speech-synthesis processing. conversationID is included as
// session_id only when non-empty; an empty id tells the backend to
// start a new conversation.
//
// On an empty 2xx audio payload the decoded text result is returned
// together with *EmptyResponseError, so already-transcribed turns can
// still be displayed.
func (c *Client) ProcessVoice(ctx context.Context, audioBlob []byte, conversationID, language string) (*VoiceResult, error) {
	if len(audioBlob) == 0 {
		return nil, fmt.Errorf("audio blob cannot be empty")
	}

	body, contentType, err := c.createMultipartRequest(audioBlob, conversationID, language)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	endpoint := c.config.BaseURL + "/api/voice/process"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", requestID)

	c.logger.Info("Sending audio to backend",
		slog.String("request_id", requestID),
		slog.Int("audio_bytes", len(audioBlob)),
		slog.String("language", language),
		slog.Bool("has_session", conversationID != ""),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parseErrorDetail(respBody, resp.StatusCode)
		c.logger.Error("Backend rejected voice request",
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", detail),
		)
		return nil, &BackendError{Status: resp.StatusCode, Detail: detail}
	}

	result := &VoiceResult{
		ConversationID:  decodeIDHeader(firstHeader(resp.Header, "X-Session-ID", "X-Conversation-Id")),
		TranscribedText: decodeTextHeader(resp.Header.Get("X-Transcribed-Text")),
		AssistantText:   decodeTextHeader(resp.Header.Get("X-Response-Text")),
		Audio:           respBody,
		Latency:         parseLatency(resp.Header),
	}

	if result.ConversationID == "" {
		c.logger.Warn("No session ID received from backend", slog.String("request_id", requestID))
	}

	if len(respBody) == 0 {
		return result, &EmptyResponseError{}
	}

	attrs := []any{
		slog.String("request_id", requestID),
		slog.Int("audio_response_bytes", len(respBody)),
		slog.Int("transcribed_chars", len(result.TranscribedText)),
		slog.Int("response_chars", len(result.AssistantText)),
	}
	if info, err := audio.GetWAVInfo(respBody); err == nil {
		attrs = append(attrs,
			slog.Float64("audio_seconds", info.Duration),
			slog.Int("sample_rate", info.SampleRate),
		)
	}
	c.logger.Info("Voice exchange completed", attrs...)

	return result, nil
}

// ClearConversation issues a best-effort DELETE for the server-side
// history of the given conversation. Failures are logged only: the
// caller always resets its local state regardless of the outcome.
func (c *Client) ClearConversation(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}

	endpoint := c.config.BaseURL + "/api/conversation/" + url.PathEscape(conversationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		c.logger.Warn("Failed to create conversation clear request", slog.String("error", err.Error()))
		return
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Failed to clear conversation on backend",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Backend refused to clear conversation",
			slog.String("conversation_id", conversationID),
			slog.Int("status", resp.StatusCode),
		)
		return
	}

	c.logger.Info("Conversation cleared on backend", slog.String("conversation_id", conversationID))
}

// CheckHealth probes the backend liveness endpoint. Any failure,
// including total network absence, yields false; it never returns an
// error to the caller.
func (c *Client) CheckHealth(ctx context.Context) bool {
	endpoint := c.config.BaseURL + "/api/health"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Backend health probe failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// createMultipartRequest builds the multipart/form-data body for a
// voice-process request. session_id is omitted entirely when the
// conversation id is empty.
func (c *Client) createMultipartRequest(audioBlob []byte, conversationID, language string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// The filename tells the backend which container it received.
	filename := "voice.webm"
	if audio.ValidateWAV(audioBlob) == nil {
		filename = "voice.wav"
	}

	fileWriter, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(audioBlob); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("language", language); err != nil {
		return nil, "", fmt.Errorf("failed to write language field: %w", err)
	}

	if conversationID != "" {
		if err := writer.WriteField("session_id", conversationID); err != nil {
			return nil, "", fmt.Errorf("failed to write session_id field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// parseErrorDetail extracts a human-readable message from a non-2xx
// response body: JSON {detail} or {message}, else the raw text.
func parseErrorDetail(body []byte, status int) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("Error %d", status)
	}

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	return text
}

// firstHeader returns the first non-empty value among the named headers.
func firstHeader(h http.Header, names ...string) string {
	for _, name := range names {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// decodeTextHeader decodes a Base64-wrapped UTF-8 header value. The
// backend Base64-encodes text headers so arbitrary Unicode survives the
// transport. Primary decoding is standard Base64; the raw (unpadded)
// alphabet is the fallback. A field that survives neither is treated as
// empty rather than failing the exchange.
func decodeTextHeader(value string) string {
	if value == "" {
		return ""
	}

	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	if decoded, err := base64.RawStdEncoding.DecodeString(value); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	return ""
}

// decodeIDHeader decodes a session identifier header. Unlike free text,
// an id that is not Base64 is accepted verbatim.
func decodeIDHeader(value string) string {
	if value == "" {
		return ""
	}

	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	if decoded, err := base64.RawStdEncoding.DecodeString(value); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}

	return value
}

// parseLatency reads the optional per-stage latency headers, reported
// as decimal seconds. Returns nil when no total is present.
func parseLatency(h http.Header) *Latency {
	total, err := strconv.ParseFloat(h.Get("X-Latency-Total"), 64)
	if err != nil {
		return nil
	}

	lat := &Latency{Total: secondsToDuration(total)}

	if v, err := strconv.ParseFloat(h.Get("X-Latency-STT"), 64); err == nil {
		lat.SpeechToText = secondsToDuration(v)
	}
	if v, err := strconv.ParseFloat(h.Get("X-Latency-LLM"), 64); err == nil {
		lat.LanguageModel = secondsToDuration(v)
	}
	if v, err := strconv.ParseFloat(h.Get("X-Latency-TTS"), 64); err == nil {
		lat.TextToSpeech = secondsToDuration(v)
	}

	return lat
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
