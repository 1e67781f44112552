// Package unixdogstatsdmsg decodes the UnixDogstatsdMsg protobuf record
// embedded in every replay-file entry. No .proto file ships with this
// module, so the message is decoded directly against
// google.golang.org/protobuf's low-level wire primitives instead of through
// generated bindings.
package unixdogstatsdmsg

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Msg mirrors the UnixDogstatsdMsg protobuf message:
//
//	timestamp:      int64 = 1  (nanoseconds since epoch)
//	payload_size:   int32 = 2
//	payload:        bytes = 3
//	pid:            int32 = 4
//	ancillary:      bytes = 5
//	ancillary_size: int32 = 6
type Msg struct {
	Timestamp      int64
	PayloadSize    int32
	Payload        []byte
	PID            int32
	Ancillary      []byte
	AncillarySize  int32
}

// Decode parses a single proto3-encoded UnixDogstatsdMsg record. Unknown
// field numbers are skipped, matching proto3's forward-compatibility rule.
func Decode(b []byte) (Msg, error) {
	var m Msg
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case 1: // timestamp
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid timestamp varint: %w", protowire.ParseError(n))
			}
			m.Timestamp = int64(v)
			b = b[n:]
		case 2: // payload_size
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid payload_size varint: %w", protowire.ParseError(n))
			}
			m.PayloadSize = int32(v)
			b = b[n:]
		case 3: // payload
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid payload bytes: %w", protowire.ParseError(n))
			}
			m.Payload = append([]byte(nil), v...)
			b = b[n:]
		case 4: // pid
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid pid varint: %w", protowire.ParseError(n))
			}
			m.PID = int32(v)
			b = b[n:]
		case 5: // ancillary
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid ancillary bytes: %w", protowire.ParseError(n))
			}
			m.Ancillary = append([]byte(nil), v...)
			b = b[n:]
		case 6: // ancillary_size
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid ancillary_size varint: %w", protowire.ParseError(n))
			}
			m.AncillarySize = int32(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Msg{}, fmt.Errorf("unixdogstatsdmsg: invalid unknown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}
