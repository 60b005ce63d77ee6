// Package session orchestrates one voice turn end to end and owns the
// conversation identifier. It classifies backend errors against known
// message patterns and applies the matching recovery policy, including
// clearing corrupted conversation history.
package session
