package domain

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// ParseExitCode parses the payload of an exit chunk.
//
// Reference servers send the code as decimal ASCII, optionally with
// trailing whitespace. A 4-byte big-endian two's-complement integer is
// also accepted. Anything else is a protocol violation.
func ParseExitCode(payload []byte) (int, error) {
	if s := strings.TrimSpace(string(payload)); s != "" {
		if code, err := strconv.Atoi(s); err == nil {
			return code, nil
		}
	}
	if len(payload) == 4 {
		return int(int32(binary.BigEndian.Uint32(payload))), nil
	}
	return 0, fmt.Errorf("%w: unparseable exit payload %q", ErrProtocol, payload)
}
