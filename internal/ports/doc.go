// Package ports defines the interfaces (ports) that connect the session
// engine to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// protocol engine needs from external systems without specifying how those
// needs are fulfilled.
//
// # Port Interfaces
//
//   - [Transport]: The byte-stream connection carrying the protocol
//   - [Dialer]: Establishes transports from parsed addresses
//   - [Supervisor]: Reports liveness of an externally managed server process
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The session engine (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// mechanisms (unix sockets, named pipes, TCP, zerolog, etc.).
//
// This separation enables:
//   - Testing session logic against in-memory transports
//   - Swapping transport families without touching the codec or session
//   - Clear boundaries and dependency direction
package ports
