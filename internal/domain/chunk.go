package domain

import (
	"fmt"
	"time"
)

// Protocol constants fixed by the reference server implementation.
// Changing any of these breaks interoperability.
const (
	// HeaderSize is the size of a chunk header on the wire: a 4-byte
	// big-endian payload length followed by a 1-byte chunk type.
	HeaderSize = 5

	// StdinBlockSize is the maximum payload size of a single stdin chunk.
	StdinBlockSize = 2048

	// DefaultHeartbeatInterval is how often the client emits heartbeat
	// chunks while its input stream is still open.
	DefaultHeartbeatInterval = 500 * time.Millisecond

	// DefaultPort is the TCP port reference servers listen on.
	DefaultPort = 2113
)

// ChunkType identifies the kind of payload carried by one protocol chunk.
// The set is closed: values are single ASCII bytes fixed by the wire
// protocol.
type ChunkType byte

const (
	// ChunkArgument carries one command-line argument, client to server.
	ChunkArgument ChunkType = 'A'

	// ChunkEnvironment carries one NAME=VALUE environment pair.
	ChunkEnvironment ChunkType = 'E'

	// ChunkWorkingDir carries the working directory for the command.
	ChunkWorkingDir ChunkType = 'D'

	// ChunkCommand names the remote entry point. It is the last chunk of
	// the startup sequence; the server may start executing as soon as it
	// arrives.
	ChunkCommand ChunkType = 'C'

	// ChunkStdin carries a block of the caller's standard input.
	ChunkStdin ChunkType = '0'

	// ChunkStdinEOF marks the end of the caller's standard input.
	ChunkStdinEOF ChunkType = '.'

	// ChunkStdout carries a block of the command's standard output.
	ChunkStdout ChunkType = '1'

	// ChunkStderr carries a block of the command's standard error.
	ChunkStderr ChunkType = '2'

	// ChunkExit carries the command's exit code and ends the session.
	ChunkExit ChunkType = 'X'

	// ChunkSendInput is a server-to-client request for more standard
	// input.
	ChunkSendInput ChunkType = 'S'

	// ChunkHeartbeat is a periodic client liveness signal.
	ChunkHeartbeat ChunkType = 'H'
)

// Known reports whether t is part of the protocol's chunk enumeration.
func (t ChunkType) Known() bool {
	switch t {
	case ChunkArgument, ChunkEnvironment, ChunkWorkingDir, ChunkCommand,
		ChunkStdin, ChunkStdinEOF, ChunkStdout, ChunkStderr,
		ChunkExit, ChunkSendInput, ChunkHeartbeat:
		return true
	default:
		return false
	}
}

// ClientBound reports whether t is a chunk type a server may send to a
// client. Any other type arriving on the inbound stream is a protocol
// violation in strict mode.
func (t ChunkType) ClientBound() bool {
	switch t {
	case ChunkStdout, ChunkStderr, ChunkExit, ChunkSendInput:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the chunk type.
func (t ChunkType) String() string {
	switch t {
	case ChunkArgument:
		return "Argument"
	case ChunkEnvironment:
		return "Environment"
	case ChunkWorkingDir:
		return "WorkingDir"
	case ChunkCommand:
		return "Command"
	case ChunkStdin:
		return "Stdin"
	case ChunkStdinEOF:
		return "StdinEOF"
	case ChunkStdout:
		return "Stdout"
	case ChunkStderr:
		return "Stderr"
	case ChunkExit:
		return "Exit"
	case ChunkSendInput:
		return "SendInput"
	case ChunkHeartbeat:
		return "Heartbeat"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(t))
	}
}

// Chunk is one length-prefixed, typed unit of the wire protocol.
type Chunk struct {
	// Type determines how Payload is interpreted.
	Type ChunkType

	// Payload is UTF-8 text for request chunks, raw bytes for the
	// stdin/stdout/stderr streams, and an encoded integer for exit.
	Payload []byte
}
