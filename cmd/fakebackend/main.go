// Command fakebackend is a development stub of the remote voice
// backend. It accepts the client's multipart request and answers with
// canned Base64 headers and a short synthesized tone, so the full
// pipeline can be exercised without the real speech stack.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcavoice/orbe/internal/audio"
)

var failMode = flag.String("fail", "", "always fail with this error kind: vocabulary, transcription, model, synthesis, empty")

var failDetails = map[string]string{
	"vocabulary":    "Token 'karaoke' is out of vocabulary",
	"transcription": "Whisper transcription error: could not process audio",
	"model":         "LLM generation failed",
	"synthesis":     "TTS engine returned no audio",
}

func processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	language := r.FormValue("language")

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	seconds, _ := audio.GetWAVDuration(audioData)
	log.Printf("voice request: session_id=%q language=%q filename=%q bytes=%d seconds=%.2f",
		sessionID, language, header.Filename, len(audioData), seconds)

	if detail, ok := failDetails[*failMode]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": detail})
		log.Printf("scripted failure sent: %s", *failMode)
		return
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
		log.Printf("new conversation: %s", sessionID)
	}

	// Simulate the speech stack doing work
	time.Sleep(200 * time.Millisecond)

	b64 := base64.StdEncoding.EncodeToString
	w.Header().Set("X-Session-ID", b64([]byte(sessionID)))
	w.Header().Set("X-Transcribed-Text", b64([]byte("Hola, esto es una prueba de transcripción")))
	w.Header().Set("X-Response-Text", b64([]byte("Buenas, aquí tienes una respuesta de prueba")))
	w.Header().Set("X-Latency-STT", "0.12")
	w.Header().Set("X-Latency-LLM", "0.45")
	w.Header().Set("X-Latency-TTS", "0.08")
	w.Header().Set("X-Latency-Total", "0.65")
	w.Header().Set("Content-Type", "audio/wav")

	if *failMode == "empty" {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Write(toneWAV())
	log.Printf("voice response sent: session_id=%s", sessionID)
}

func conversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/conversation/")
	if id == "" {
		http.Error(w, "Conversation id required", http.StatusBadRequest)
		return
	}

	log.Printf("conversation cleared: %s", id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"cleared": id})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// toneWAV generates half a second of a 440 Hz tone at 16 kHz.
func toneWAV() []byte {
	const (
		rate      = 16000
		freq      = 440.0
		amplitude = 0.37
	)

	samples := make([]int16, rate/2)
	for i := range samples {
		samples[i] = audio.ClampSample(amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}

	data, err := audio.EncodeWAV(samples, rate, 1)
	if err != nil {
		log.Fatalf("failed to encode tone: %v", err)
	}
	return data
}

func main() {
	port := flag.Int("port", 8000, "listen port")
	flag.Parse()

	http.HandleFunc("/api/voice/process", processHandler)
	http.HandleFunc("/api/conversation/", conversationHandler)
	http.HandleFunc("/api/health", healthHandler)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("fake voice backend listening on %s", addr)
	if *failMode != "" {
		log.Printf("failure mode active: %s", *failMode)
	}

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("server failed to start:", err)
	}
}
