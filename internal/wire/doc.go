// Package wire implements the chunk framing codec for the Nailgun protocol.
//
// Every message on the wire is a chunk:
//
//	+-----------------+-----------+--------------------+
//	| length (4B BE)  | type (1B) | payload (length B) |
//	+-----------------+-----------+--------------------+
//
// The length field counts payload bytes only. Type bytes are single ASCII
// characters; the domain package holds the enumeration.
//
// Encoding and decoding are pure stream transforms. The codec knows nothing
// about chunk ordering or session semantics; it only guarantees that whole
// chunks go out in single writes and that truncation is always detected on
// the way in.
package wire
