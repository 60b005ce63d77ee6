package session

import "testing"

func TestClassifyDetail(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		expected ErrorKind
	}{
		{
			"auto-cleared history",
			"La conversación ha sido limpiada automáticamente",
			KindResolved,
		},
		{
			"vocabulary token",
			"Token 'karaoke' is out of vocabulary",
			KindVocabulary,
		},
		{
			"whisper failure",
			"Whisper transcription error: could not process audio",
			KindTranscription,
		},
		{
			"language model failure",
			"LLM generation failed after 3 retries",
			KindModel,
		},
		{
			"synthesis failure",
			"TTS engine returned no audio",
			KindSynthesis,
		},
		{
			"unknown detail",
			"internal server error",
			KindGeneric,
		},
		{
			"empty detail",
			"",
			KindGeneric,
		},
		{
			"resolved wins over vocabulary",
			"Token out of vocabulary; la conversación ha sido limpiada automáticamente",
			KindResolved,
		},
		{
			"vocabulary wins over transcription",
			"Whisper: token out of vocabulary",
			KindVocabulary,
		},
		{
			"transcription wins over model",
			"Whisper failed before LLM was invoked",
			KindTranscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDetail(tt.detail); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestClassifyNetworkStatus(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"connection refused", "dial tcp 127.0.0.1:8000: connect: connection refused", StatusDisconnected},
		{"dns failure", "dial tcp: lookup backend: no such host", StatusDisconnected},
		{"timeout", "context deadline exceeded (Client.Timeout exceeded)", StatusDisconnected},
		{"transcription wording", "error de transcripción en el servidor", StatusTranscriptionError},
		{"model wording", "LLM timed out upstream", StatusModelError},
		{"synthesis wording", "TTS unavailable", StatusAudioError},
		{"unknown", "something else entirely", StatusConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyNetworkStatus(tt.message); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
