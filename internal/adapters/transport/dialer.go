// Package transport implements ports.Dialer over the address families the
// protocol supports: unix domain sockets, Windows named pipes, and TCP.
//
// The codec and session layers stay transport-agnostic; everything
// platform-specific lives here behind build tags.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// NetDialer implements ports.Dialer using the operating system's native
// transports.
type NetDialer struct{}

// NewNetDialer creates a dialer.
func NewNetDialer() *NetDialer {
	return &NetDialer{}
}

// Dial connects to addr, selecting the concrete transport from the address
// family. Connection failures carry domain.ErrConnection.
func (d *NetDialer) Dial(ctx context.Context, addr domain.Address) (ports.Transport, error) {
	switch addr.Family {
	case domain.FamilyLocal:
		conn, err := dialLocal(ctx, addr.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrConnection, addr, err)
		}
		return conn, nil

	case domain.FamilyTCP:
		var nd net.Dialer
		conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(addr.Host, strconv.Itoa(addr.Port)))
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrConnection, addr, err)
		}
		return conn, nil

	default:
		return nil, fmt.Errorf("%w: unsupported address family %s", domain.ErrInvalidAddress, addr.Family)
	}
}

// Ensure NetDialer implements ports.Dialer.
var _ ports.Dialer = (*NetDialer)(nil)
