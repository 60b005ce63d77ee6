package session

import (
	"fmt"
	"strings"
)

// ErrorKind is the classified category of a backend error
type ErrorKind int

const (
	// KindResolved means the backend already cleared the corrupted
	// history on its own; nothing needs resetting locally.
	KindResolved ErrorKind = iota
	// KindVocabulary means the conversation history contains a token
	// the recognizer cannot process; recovery clears the conversation.
	KindVocabulary
	// KindTranscription is a speech-to-text engine failure.
	KindTranscription
	// KindModel is a language model failure.
	KindModel
	// KindSynthesis is a text-to-speech failure.
	KindSynthesis
	// KindGeneric is any unrecognized backend error.
	KindGeneric
)

// String returns a stable label for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindVocabulary:
		return "vocabulary"
	case KindTranscription:
		return "transcription"
	case KindModel:
		return "model"
	case KindSynthesis:
		return "synthesis"
	case KindGeneric:
		return "generic"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Status indicator strings shown to the user.
const (
	StatusListening          = "Escuchando..."
	StatusProcessing         = "Procesando..."
	StatusReady              = "Listo"
	StatusTooShort           = "Grabación muy corta"
	StatusNoAudio            = "Error: Sin audio capturado"
	StatusMicError           = "Error de micrófono"
	StatusDisconnected       = "Sin conexión"
	StatusTranscriptionError = "Error de transcripción"
	StatusModelError         = "Error del modelo"
	StatusAudioError         = "Error de audio"
	StatusConnectionError    = "Error de conexión"
	StatusResolved           = "Problema resuelto automáticamente"
	StatusHistoryCleared     = "Historial limpiado"
)

// detailRules classify backend error details by substring. Rules are
// checked in order; the first match wins. The matching is a
// best-effort heuristic over human-readable backend messages, not a
// contract.
var detailRules = []struct {
	kind       ErrorKind
	substrings []string
}{
	{KindResolved, []string{"limpiada automáticamente", "ha sido limpiada"}},
	{KindVocabulary, []string{"out of vocabulary"}},
	{KindTranscription, []string{"Whisper", "transcription error", "transcripción"}},
	{KindModel, []string{"LLM", "language model", "modelo de lenguaje"}},
	{KindSynthesis, []string{"TTS", "text-to-speech", "síntesis"}},
}

// ClassifyDetail maps a backend error detail to its kind.
func ClassifyDetail(detail string) ErrorKind {
	for _, rule := range detailRules {
		for _, s := range rule.substrings {
			if strings.Contains(detail, s) {
				return rule.kind
			}
		}
	}
	return KindGeneric
}

// kindMessages are the explanatory messages enqueued for each error
// kind.
var kindMessages = map[ErrorKind]string{
	KindResolved: "El modelo no reconocía alguna palabra en el historial. " +
		"La conversación ha sido limpiada automáticamente. " +
		"Por favor, intenta de nuevo con tu mensaje.",
	KindVocabulary: "Historial limpiado completamente. " +
		"La próxima vez será una conversación nueva y limpia. " +
		"Por favor, intenta de nuevo con tu mensaje.",
	KindTranscription: "No se pudo transcribir el audio. " +
		"Intenta hablar más claro y usar palabras más comunes.",
	KindModel:     "El modelo de IA no pudo generar una respuesta. Intenta de nuevo.",
	KindSynthesis: "No se pudo generar el audio de respuesta.",
	KindGeneric:   "No se pudo procesar la solicitud. Por favor, intenta de nuevo.",
}

// kindStatuses are the status indicator strings for each error kind.
var kindStatuses = map[ErrorKind]string{
	KindResolved:      StatusResolved,
	KindVocabulary:    StatusHistoryCleared,
	KindTranscription: StatusTranscriptionError,
	KindModel:         StatusModelError,
	KindSynthesis:     StatusAudioError,
	KindGeneric:       StatusConnectionError,
}

// networkStatusRules classify transport-level failures by message
// substring, independently from the backend detail classification.
var networkStatusRules = []struct {
	substrings []string
	status     string
}{
	{[]string{"connection refused", "no such host", "network is unreachable", "timeout", "deadline exceeded"}, StatusDisconnected},
	{[]string{"transcripción", "Whisper"}, StatusTranscriptionError},
	{[]string{"LLM", "modelo de lenguaje"}, StatusModelError},
	{[]string{"TTS", "síntesis"}, StatusAudioError},
}

// ClassifyNetworkStatus maps a transport error message to a status
// indicator string.
func ClassifyNetworkStatus(message string) string {
	for _, rule := range networkStatusRules {
		for _, s := range rule.substrings {
			if strings.Contains(message, s) {
				return rule.status
			}
		}
	}
	return StatusConnectionError
}
