// Package pcapframe walks a libpcap "classic" capture file down through
// the link layer, IPv4, and UDP to extract DogStatsD datagram payloads.
//
// The outer file/record framing (24-byte global header, 16-byte per-record
// header, byte-order detection) is handled by gopacket/pcapgo, which
// already understands both the standard and byte-swapped magic numbers.
// The link-layer -> IPv4 -> UDP walk below the captured frame bytes is
// hand-written against the exact layouts this toolkit accepts, since
// gopacket/layers' generic decoding doesn't enforce "reject anything but
// Ethernet/LINUX_SLL2".
package pcapframe

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/packet"
	"github.com/scottopell/dogstatsd-utils/internal/logging"
)

// LinuxSLL2 is the datalink type for the Linux "cooked capture" v2 format
// (DLT_LINUX_SLL2), not yet named in every gopacket/layers release.
const LinuxSLL2 = layers.LinkType(276)

const (
	ethernetHeaderLen = 14
	sll2HeaderLen     = 20
	ipv4ProtoUDP      = 17
	etherTypeIPv4     = 0x0800
)

// BadPcapHeaderError wraps a failure to parse the pcap global header.
type BadPcapHeaderError struct {
	Cause error
}

func (e *BadPcapHeaderError) Error() string { return fmt.Sprintf("pcapframe: bad pcap header: %v", e.Cause) }
func (e *BadPcapHeaderError) Unwrap() error { return e.Cause }

// UnsupportedDatalinkTypeError is returned by Open when the capture's
// link-layer type is not one this toolkit can walk.
type UnsupportedDatalinkTypeError struct {
	Raw layers.LinkType
}

func (e *UnsupportedDatalinkTypeError) Error() string {
	return fmt.Sprintf("pcapframe: unsupported datalink type %d", e.Raw)
}

// MalformedRecordError is returned by Next when the next pcap record
// cannot be read (for example a truncated record header or body). Frames
// that are read but don't decode cleanly at some layer are skipped inside
// Next and never produce this error.
type MalformedRecordError struct {
	Cause error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("pcapframe: malformed record: %v", e.Cause)
}
func (e *MalformedRecordError) Unwrap() error { return e.Cause }

// Framer reads successive UDP/IPv4 payloads out of a pcap capture.
type Framer struct {
	r        *pcapgo.Reader
	linkType layers.LinkType
}

// Open parses the pcap global header and validates the capture's datalink
// type. Only ETHERNET and LINUX_SLL2 captures are accepted.
func Open(r io.Reader) (*Framer, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, &BadPcapHeaderError{Cause: err}
	}

	lt := pr.LinkType()
	if lt != layers.LinkTypeEthernet && lt != LinuxSLL2 {
		return nil, &UnsupportedDatalinkTypeError{Raw: lt}
	}

	return &Framer{r: pr, linkType: lt}, nil
}

// Next decodes the next captured frame down to its UDP payload, skipping
// (and logging) any frame that isn't IPv4/UDP or fails to decode at any
// layer, until it finds one or reaches end of stream.
func (f *Framer) Next() (packet.Packet, error) {
	for {
		data, ci, err := f.r.ReadPacketData()
		if err == io.EOF {
			return packet.Packet{}, io.EOF
		}
		if err != nil {
			return packet.Packet{}, &MalformedRecordError{Cause: err}
		}

		payload, ok := f.extractUDPPayload(data)
		if !ok {
			logging.L().Debugw("pcapframe: skipping non-ipv4/udp frame", "captureLen", len(data))
			continue
		}

		return packet.Packet{
			Payload:   payload,
			Timestamp: time.Duration(ci.Timestamp.UnixNano()) * time.Nanosecond,
			Transport: packet.UDP,
		}, nil
	}
}

// extractUDPPayload walks link layer -> IPv4 -> UDP and returns the UDP
// payload bytes, or false if the frame isn't a well-formed IPv4/UDP
// datagram on a supported link type.
func (f *Framer) extractUDPPayload(frame []byte) ([]byte, bool) {
	var l3 []byte

	switch f.linkType {
	case layers.LinkTypeEthernet:
		if len(frame) < ethernetHeaderLen {
			return nil, false
		}
		etherType := binary.BigEndian.Uint16(frame[12:14])
		if etherType != etherTypeIPv4 {
			return nil, false
		}
		l3 = frame[ethernetHeaderLen:]
	case LinuxSLL2:
		if len(frame) < sll2HeaderLen {
			return nil, false
		}
		// SLL2 cooked-capture header: protocol type is the first 2 bytes.
		protoType := binary.BigEndian.Uint16(frame[0:2])
		if protoType != etherTypeIPv4 {
			return nil, false
		}
		l3 = frame[sll2HeaderLen:]
	default:
		return nil, false
	}

	return extractUDPFromIPv4(l3)
}

// extractUDPFromIPv4 parses an IPv4 header (variable-length, IHL-encoded)
// and, if the next-protocol is UDP, the fixed 8-byte UDP header that
// follows, returning the UDP payload.
func extractUDPFromIPv4(b []byte) ([]byte, bool) {
	if len(b) < 20 {
		return nil, false
	}
	versionIHL := b[0]
	if versionIHL>>4 != 4 {
		return nil, false
	}
	ihl := int(versionIHL&0x0F) * 4
	if ihl < 20 || len(b) < ihl {
		return nil, false
	}
	protocol := b[9]
	if protocol != ipv4ProtoUDP {
		return nil, false
	}

	udp := b[ihl:]
	const udpHeaderLen = 8
	if len(udp) < udpHeaderLen {
		return nil, false
	}
	return udp[udpHeaderLen:], true
}
