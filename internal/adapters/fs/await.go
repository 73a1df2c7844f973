// Package fs provides filesystem-based readiness detection for local
// transports. A unix socket appears as a filesystem object when the server
// binds it, so "the server is accepting connections" can be observed by
// waiting for its socket file to exist.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tkroman/nailgun/internal/domain"
	"github.com/tkroman/nailgun/internal/ports"
)

// AwaitReady blocks until the filesystem object at path exists, the timeout
// elapses, the supervisor reports the server process dead, or ctx is done.
//
// A directory watch is placed on the parent so socket creation is seen
// immediately; a jittered poll runs alongside it for platforms and
// filesystems where watch events are unreliable. sup may be nil when no
// process supervisor is attached.
func AwaitReady(ctx context.Context, path string, timeout time.Duration, sup ports.Supervisor, logger ports.Logger) error {
	path = filepath.Clean(path)

	if exists(path) {
		return nil
	}
	if sup != nil && !sup.Alive() {
		return fmt.Errorf("%w: server process is not alive", domain.ErrNotReady)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var events chan fsnotify.Event
	var watchErrs chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("filesystem watcher unavailable, polling only", ports.Err(err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			logger.Debug("directory watch failed, polling only",
				ports.String("dir", filepath.Dir(path)),
				ports.Err(err),
			)
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	// The watch was established after the first check; close the race
	// where the socket appeared in between.
	if exists(path) {
		return nil
	}

	retry := newBackoff(pollInitial, pollMax)
	poll := time.NewTimer(retry.Next())
	defer poll.Stop()

	logger.Debug("waiting for server transport",
		ports.String("path", path),
		ports.Duration("timeout", timeout),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-deadline.C:
			return fmt.Errorf("%w: %s did not appear within %s", domain.ErrNotReady, path, timeout)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if exists(path) {
				return nil
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Debug("filesystem watch error", ports.Err(err))

		case <-poll.C:
			if exists(path) {
				return nil
			}
			if sup != nil && !sup.Alive() {
				return fmt.Errorf("%w: server process is not alive", domain.ErrNotReady)
			}
			poll.Reset(retry.Next())
		}
	}
}

// exists checks if a filesystem object exists at the given path.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
