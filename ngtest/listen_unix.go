//go:build !windows

package ngtest

import (
	"net"
	"os"
	"path/filepath"

	"github.com/tkroman/nailgun/internal/domain"
)

// listenLocal listens on a domain socket in a fresh private directory.
// The short socket name keeps the path under the platform limit.
func listenLocal() (net.Listener, string, func(), error) {
	dir, err := os.MkdirTemp("", "ngtest")
	if err != nil {
		return nil, "", nil, err
	}
	path := filepath.Join(dir, "ng.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	return ln, domain.LocalPrefix + path, cleanup, nil
}
