// Package server exposes a connected power strip over a small HTTP API.
//
// The API is intended for home automation glue: a long-running process
// owns the device session and other tools talk JSON to it instead of
// speaking the device protocol themselves. Endpoints live under /api;
// a WebSocket at /ws pushes the outlet status on a fixed poll interval.
//
// The device session is not safe for concurrent use, so every handler
// takes the server mutex before touching it. Requests therefore
// serialize against each other and against the status poller; with a
// 2 second device timeout this is well within interactive latency.
package server
