// Package logging provides the shared zap logger for kasactl.
//
// Logging is silent by default so CLI output stays clean. Set the
// KASACTL_LOG_LEVEL environment variable (debug, info, warn, error) to
// enable console logging, or call Initialize with an explicit level (the
// serve command does this from its --log-level flag).
//
// At debug level the transport layer dumps every payload it sends and
// receives in hex and ASCII via LogRawBytes, which is the fastest way to
// diagnose framing or cipher problems against a real strip.
package logging
