package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// LocalPrefix marks an address string as a local transport: a filesystem
// domain socket on POSIX systems or a named pipe on Windows.
const LocalPrefix = "local:"

// AddressFamily selects the transport family for a server address.
type AddressFamily int

const (
	// FamilyLocal is a domain socket path or named pipe name.
	FamilyLocal AddressFamily = iota

	// FamilyTCP is a host and port on a trusted network.
	FamilyTCP
)

// String returns a human-readable name for the address family.
func (f AddressFamily) String() string {
	switch f {
	case FamilyLocal:
		return "local"
	case FamilyTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// Address is a parsed server address.
type Address struct {
	Family AddressFamily

	// Path is the socket path (POSIX) or pipe name (Windows) for
	// FamilyLocal.
	Path string

	// Host and Port identify the server for FamilyTCP.
	Host string
	Port int
}

// ParseAddress parses an address string.
//
// Accepted forms:
//
//	local:<path>   domain socket at <path>, or named pipe <path> on Windows
//	<host>:<port>  TCP connection
//	<host>         TCP connection on the default port
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	if rest, ok := strings.CutPrefix(s, LocalPrefix); ok {
		if rest == "" {
			return Address{}, fmt.Errorf("%w: %q has no transport path", ErrInvalidAddress, s)
		}
		return Address{Family: FamilyLocal, Path: rest}, nil
	}

	host, portStr, hasPort := strings.Cut(s, ":")
	if host == "" {
		return Address{}, fmt.Errorf("%w: %q has no host", ErrInvalidAddress, s)
	}
	if !hasPort {
		return Address{Family: FamilyTCP, Host: host, Port: DefaultPort}, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Address{}, fmt.Errorf("%w: %q has an invalid port", ErrInvalidAddress, s)
	}
	return Address{Family: FamilyTCP, Host: host, Port: port}, nil
}

// String renders the address in the form ParseAddress accepts.
func (a Address) String() string {
	if a.Family == FamilyLocal {
		return LocalPrefix + a.Path
	}
	return a.Host + ":" + strconv.Itoa(a.Port)
}
