package domain

import (
	"errors"
	"testing"
)

func TestParseExitCode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    int
		wantErr bool
	}{
		{"zero", []byte("0"), 0, false},
		{"positive", []byte("10"), 10, false},
		{"negative", []byte("-1"), -1, false},
		{"large", []byte("255"), 255, false},
		{"trailing newline", []byte("42\n"), 42, false},
		{"surrounding whitespace", []byte(" 7 "), 7, false},
		{"binary big-endian", []byte{0, 0, 0, 10}, 10, false},
		{"binary zero", []byte{0, 0, 0, 0}, 0, false},
		{"binary negative", []byte{0xFF, 0xFF, 0xFF, 0xFF}, -1, false},
		{"four ascii digits stay decimal", []byte("1234"), 1234, false},
		{"four garbage bytes parse as binary", []byte("exit"), 0x65786974, false},
		{"empty", nil, 0, true},
		{"garbage", []byte("crash"), 0, true},
		{"whitespace only", []byte("  \n"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExitCode(tt.payload)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseExitCode(%q) = %d, want error", tt.payload, got)
				}
				if !errors.Is(err, ErrProtocol) {
					t.Errorf("ParseExitCode(%q) error = %v, want ErrProtocol", tt.payload, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseExitCode(%q) error = %v", tt.payload, err)
			}
			if got != tt.want {
				t.Errorf("ParseExitCode(%q) = %d, want %d", tt.payload, got, tt.want)
			}
		})
	}
}
