// Package powerstrip is the client facade for a Kasa HS300 smart power
// strip: connect to a device, inspect and switch its outlets, and read
// per-outlet energy metering.
//
// A Strip is one device session. Connect issues the first system info
// query (with a one-shot TCP/UDP fallback), learns the device identity,
// and populates the outlet registry exactly once; RefreshStatus updates
// outlet state, names and on-times in place but never changes the count
// or order. Outlets are addressed by 1-based slot number - the only
// stable address across renames - or by their device-reported name.
//
// Switching commands update the in-memory outlet state optimistically on
// acknowledgment; call RefreshStatus to observe out-of-band changes made
// through the vendor app or the physical buttons.
//
// # Concurrency
//
// One Strip serves one logical caller. Every operation is a blocking
// request/reply exchange over a fresh socket, bounded by the session
// timeout. Callers sharing a Strip across goroutines must serialize
// access themselves (the HTTP server does this with a mutex); separate
// Strips are fully independent.
//
// # Errors
//
// Every failure is a *DeviceError with a Type from the taxonomy in this
// package: connection failures (with timeout/refused/DNS subtypes),
// unexpected device replies, unknown selectors, and invalid input caught
// before any network call. Failed operations never corrupt the session's
// previously-known outlet state.
package powerstrip
