//go:build windows

package ngtest

import (
	"net"

	winio "github.com/Microsoft/go-winio"
	"github.com/google/uuid"

	"github.com/tkroman/nailgun/internal/domain"
)

// listenLocal listens on a uniquely named pipe.
func listenLocal() (net.Listener, string, func(), error) {
	name := `\\.\pipe\ngtest-` + uuid.NewString()
	ln, err := winio.ListenPipe(name, nil)
	if err != nil {
		return nil, "", nil, err
	}
	return ln, domain.LocalPrefix + name, nil, nil
}
