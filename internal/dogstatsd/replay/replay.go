// Package replay decodes the proprietary replay capture format: an 8-byte
// versioned file header followed by length-prefixed UnixDogstatsdMsg
// protobuf records, terminated by a zero-length sentinel.
package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/packet"
	"github.com/scottopell/dogstatsd-utils/pkg/unixdogstatsdmsg"
)

// datadogHeader is the 8-byte replay file header prefix, before the
// version byte is XOR'd in at datadogHeader[versionIndex].
var datadogHeader = [8]byte{0xD4, 0x74, 0xD0, 0x60, 0xF0, 0x00, 0x00, 0x00}

const versionIndex = 4

// SupportedVersion is the only replay file format version this reader
// understands.
const SupportedVersion byte = 3

// maxMsgSize bounds a single record's length prefix, guarding against a
// corrupt length field requesting an enormous allocation.
const maxMsgSize = 8192

// ErrNotAReplayFile is returned by Open when the stream's header does not
// match the replay magic.
var ErrNotAReplayFile = fmt.Errorf("replay: not a replay file")

// UnsupportedVersionError is returned by Open when the header magic
// matches but the version byte names a version this reader cannot decode.
// Open still consumes the 8 header bytes in this case.
type UnsupportedVersionError struct {
	Version byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("replay: unsupported replay version %d", e.Version)
}

// MalformedRecordError wraps a record-level decode failure (bad length
// prefix, truncated record, bad protobuf encoding).
type MalformedRecordError struct {
	Cause error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("replay: malformed record: %v", e.Cause)
}

func (e *MalformedRecordError) Unwrap() error { return e.Cause }

// Framer reads successive Packets from a replay-formatted stream.
type Framer struct {
	r       *bufio.Reader
	drained bool
}

// Open validates the 8-byte replay header and returns a Framer positioned
// at the first length-prefixed record. It consumes exactly 8 bytes on
// success, and also on UnsupportedVersionError (the header is still valid
// replay framing, just an unhandled version).
func Open(r io.Reader) (*Framer, error) {
	br := bufio.NewReaderSize(r, maxMsgSize)

	header := make([]byte, 8)
	n, err := io.ReadFull(br, header)
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, ErrNotAReplayFile
		}
		return nil, pkgerrors.Wrap(io.ErrUnexpectedEOF, "replay: short read on header")
	}

	for i := 0; i < 4; i++ {
		if header[i] != datadogHeader[i] {
			return nil, ErrNotAReplayFile
		}
	}

	version := header[versionIndex] ^ 0xF0
	if version != SupportedVersion {
		return nil, &UnsupportedVersionError{Version: version}
	}

	return &Framer{r: br}, nil
}

// Next returns the next decoded Packet, io.EOF once the sentinel has been
// read, or a MalformedRecordError on a corrupt stream.
func (f *Framer) Next() (packet.Packet, error) {
	if f.drained {
		return packet.Packet{}, io.EOF
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(f.r, lenBuf[:]); err != nil {
		return packet.Packet{}, &MalformedRecordError{Cause: fmt.Errorf("reading record length: %w", err)}
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])

	if length == 0 {
		f.drained = true
		return packet.Packet{}, io.EOF
	}
	if length > maxMsgSize {
		return packet.Packet{}, &MalformedRecordError{Cause: fmt.Errorf("record length %d exceeds max %d", length, maxMsgSize)}
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return packet.Packet{}, &MalformedRecordError{Cause: fmt.Errorf("reading record body: %w", err)}
	}

	msg, err := unixdogstatsdmsg.Decode(buf)
	if err != nil {
		return packet.Packet{}, &MalformedRecordError{Cause: err}
	}

	return packet.Packet{
		Payload:   msg.Payload,
		Timestamp: time.Duration(msg.Timestamp) * time.Nanosecond,
		Transport: packet.UnixDatagram,
	}, nil
}
