// Package packet defines the Packet type shared by every container framer
// (replay, pcap, raw-text) and the unified reader that composes them.
package packet

import "time"

// Transport identifies the socket kind a Packet was originally received on.
type Transport int

const (
	UDP Transport = iota
	UnixDatagram
)

func (t Transport) String() string {
	if t == UnixDatagram {
		return "unixgram"
	}
	return "udp"
}

// Packet is one datagram payload read from a container, with its
// originating timestamp and transport. Payload is borrowed from the
// framer's internal buffer and is only valid until the framer's next read.
type Packet struct {
	Payload   []byte
	Timestamp time.Duration
	Transport Transport
}
