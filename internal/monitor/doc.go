// Package monitor provides local HTTP endpoints for observing the
// client: session state, conversation history, configuration, and
// Prometheus metrics.
package monitor
