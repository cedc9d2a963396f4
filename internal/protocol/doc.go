// Package protocol owns the wire contract the codec is written against.
//
// Ownership boundary:
// - wire: status codes, type bytes, length encodings, byte cursor and writer
// - frame: stream framing that carries encoded messages and their protocol version
package protocol
