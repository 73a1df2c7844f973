package nailgun

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
)

// sessionEnv builds the NAME=VALUE pairs sent with a request: the client
// process's environment, the protocol's client-populated entries, and the
// caller's overrides. Names are unique, later sources winning; servers
// treat entry order as irrelevant, so pairs are sorted for determinism.
func sessionEnv(overrides map[string]string, stdin io.Reader, stdout, stderr io.Writer) []string {
	merged := make(map[string]string)
	for _, pair := range os.Environ() {
		if name, value, ok := strings.Cut(pair, "="); ok {
			merged[name] = value
		}
	}

	// Reference servers consult these to render paths and decide whether
	// the remote command talks to a terminal.
	merged["NAILGUN_FILESEPARATOR"] = string(os.PathSeparator)
	merged["NAILGUN_PATHSEPARATOR"] = string(os.PathListSeparator)
	merged["NAILGUN_TTY_0"] = ttyFlag(stdin)
	merged["NAILGUN_TTY_1"] = ttyFlag(stdout)
	merged["NAILGUN_TTY_2"] = ttyFlag(stderr)

	for name, value := range overrides {
		merged[name] = value
	}

	pairs := make([]string, 0, len(merged))
	for name, value := range merged {
		pairs = append(pairs, name+"="+value)
	}
	sort.Strings(pairs)
	return pairs
}

// ttyFlag reports "1" when the stream is an interactive terminal and "0"
// otherwise. Only streams backed by a file descriptor can be terminals.
func ttyFlag(stream any) string {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return "0"
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return "1"
	}
	return "0"
}
