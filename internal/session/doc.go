// Package session owns one end-to-end logging run against a Monome
// Grid serial connection.
//
// Ownership boundary:
// - transport lifecycle (open, guaranteed close on every exit path)
// - best-effort initialization handshake (fire and forget)
// - poll/read/render loop and the three display modes
// - optional plain-text log sink with per-line flush
//
// One read chunk is one decode unit. Messages split across reads, or
// packed back-to-back into one read, are not reassembled: the decoder
// classifies the chunk head and anything else renders as raw hex.
package session
