// Package backend implements the HTTP client for the remote
// voice-processing service: the multipart voice exchange, conversation
// lifecycle management, and the liveness probe. Response text arrives
// in Base64-encoded headers and is decoded here.
package backend
