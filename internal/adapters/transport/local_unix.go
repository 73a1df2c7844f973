//go:build !windows

package transport

import (
	"context"
	"net"

	"github.com/tkroman/nailgun/internal/domain"
)

// dialLocal connects to the unix domain socket at path.
func dialLocal(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}

// ReadyFile returns the filesystem object whose existence signals that addr
// is accepting connections, and whether the family has one. A unix socket
// appears in the filesystem when the server binds it, so local addresses
// can be awaited by watching for the socket file.
func ReadyFile(addr domain.Address) (string, bool) {
	if addr.Family == domain.FamilyLocal {
		return addr.Path, true
	}
	return "", false
}
