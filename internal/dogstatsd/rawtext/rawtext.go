// Package rawtext frames a plain newline-delimited DogStatsD text stream,
// the fallback container when neither replay nor pcap magic is detected.
package rawtext

import (
	"bufio"
	"io"
	"strings"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/packet"
)

// maxLineSize bounds a single line's length; the DogStatsD wire spec caps
// a single datagram at 8192 bytes and raw-text input is expected to
// respect the same bound.
const maxLineSize = 8192

// Framer yields one Packet per non-empty input line.
type Framer struct {
	scanner *bufio.Scanner
}

// Open wraps r for line-at-a-time reading. Unlike the other two framers,
// raw text has no header to validate, so Open cannot fail.
func Open(r io.Reader) *Framer {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, maxLineSize), maxLineSize)
	return &Framer{scanner: s}
}

// Next returns the next non-empty trimmed line as a Packet, or io.EOF.
// Transport is always UDP (a sentinel value; raw text carries no real
// transport information) and Timestamp is always zero.
func (f *Framer) Next() (packet.Packet, error) {
	for f.scanner.Scan() {
		line := strings.TrimRight(f.scanner.Text(), "\r")
		if line == "" {
			continue
		}
		return packet.Packet{
			Payload:   []byte(line),
			Timestamp: 0,
			Transport: packet.UDP,
		}, nil
	}
	if err := f.scanner.Err(); err != nil {
		return packet.Packet{}, err
	}
	return packet.Packet{}, io.EOF
}
