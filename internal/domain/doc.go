// Package domain contains the core protocol entities and value objects for
// the Nailgun client.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (sockets, terminals, logging) and
// contains only wire-protocol facts and pure logic.
//
// # Entities
//
//   - [Chunk]: One length-prefixed, typed unit of the wire protocol
//   - [ChunkType]: The closed set of chunk type bytes
//   - [Address]: A parsed server address (local socket, named pipe, or TCP)
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on protocol rules and invariants
//   - Testable without mocks or external systems
package domain
