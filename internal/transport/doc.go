// Package transport moves obfuscated protocol payloads between this
// process and a Kasa power strip over TCP or UDP.
//
// Both transports use device port 9999. TCP frames are a 4-byte
// big-endian length prefix followed by the obfuscated body; UDP carries
// the obfuscated body as a single datagram with no prefix. A fresh
// socket is opened and closed for every request - the device tolerates
// no more than a handful of concurrent connections, and a per-request
// socket keeps session state trivial.
//
// Send and SendVia never retry. SendWithFallback tries the preferred
// transport and then the other one exactly once; it exists for the
// read-only system info query, where a blind retry is harmless. State
// changing commands must go through Send so a lost acknowledgment is
// surfaced instead of silently retried into a double toggle.
package transport
