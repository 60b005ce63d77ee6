// Package conversation defines the turn model shared by the session
// controller and the presentation queue.
package conversation
