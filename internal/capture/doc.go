// Package capture owns the microphone lifecycle: requesting the device,
// collecting fragments while a turn is recording, and finalizing them
// into a single blob. The device stream is opened once and reused
// across turns until explicitly released.
package capture
