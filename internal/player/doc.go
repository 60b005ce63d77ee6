// Package player plays response audio and drives the speaking state
// and output amplitude level while doing so.
package player
