// Package tui implements the interactive terminal dashboard.
//
// The dashboard shows every outlet on the connected strip and lets the
// user toggle them with the keyboard. It is built with Bubble Tea: the
// model holds the outlet list and cursor, device operations run as
// commands off the update loop, and their results come back as typed
// messages.
//
// The device session is not safe for concurrent use, so only one
// device operation is ever in flight; key presses while busy are
// dropped and a spinner shows the pending call.
package tui
