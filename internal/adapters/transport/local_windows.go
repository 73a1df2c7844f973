//go:build windows

package transport

import (
	"context"
	"net"
	"strings"

	winio "github.com/Microsoft/go-winio"

	"github.com/tkroman/nailgun/internal/domain"
)

const pipePrefix = `\\.\pipe\`

// dialLocal connects to the named pipe with the given name. Bare names are
// placed under the standard pipe namespace.
func dialLocal(ctx context.Context, name string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, pipePath(name))
}

func pipePath(name string) string {
	if strings.HasPrefix(name, pipePrefix) {
		return name
	}
	return pipePrefix + name
}

// ReadyFile reports that no watchable filesystem object exists for any
// family on Windows. The pipe namespace is not a watchable directory, so
// readiness is probed by dialing instead.
func ReadyFile(addr domain.Address) (string, bool) {
	return "", false
}
