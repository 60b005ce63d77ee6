// Package presentation serializes on-screen message display. Messages
// of any type share one FIFO queue; a single loop reveals the live
// message character by character, fades it out, and retires it to
// history before the next one appears.
package presentation
