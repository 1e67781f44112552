// Package reader composes the compression probe, container classifier,
// and three container framers behind one sequential read_msg-style
// interface, and maintains per-stream Analytics for packetized containers.
package reader

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/klauspost/compress/zstd"

	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/container"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/packet"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/pcapframe"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/rawtext"
	"github.com/scottopell/dogstatsd-utils/internal/dogstatsd/replay"
)

// framer is the small closed interface the three container framers
// satisfy. The reader holds exactly one concrete implementation, selected
// once at Open time, giving monomorphic dispatch on the hot path without
// Go sum types.
type framer interface {
	Next() (packet.Packet, error)
}

// Analytics tracks stream-level statistics for packetized containers
// (replay, pcap). Raw-text streams carry no packet framing, so Analytics
// is unavailable for them.
type Analytics struct {
	TotalPackets      uint64
	TotalBytes        uint64
	TotalMessages     uint64
	EarliestTimestamp time.Duration
	LatestTimestamp   time.Duration
	MessageLength     *ddsketch.DDSketch
	TransportType     packet.Transport

	haveFirst bool
}

func newAnalytics() *Analytics {
	sketch, _ := ddsketch.NewDefaultDDSketch(0.01)
	return &Analytics{MessageLength: sketch}
}

func (a *Analytics) observe(p packet.Packet) {
	a.TotalPackets++
	a.TotalBytes += uint64(len(p.Payload))
	if a.MessageLength != nil {
		_ = a.MessageLength.Add(float64(len(p.Payload)))
	}
	if !a.haveFirst {
		a.EarliestTimestamp = p.Timestamp
		a.LatestTimestamp = p.Timestamp
		a.haveFirst = true
	}
	if p.Timestamp < a.EarliestTimestamp {
		a.EarliestTimestamp = p.Timestamp
	}
	if p.Timestamp > a.LatestTimestamp {
		a.LatestTimestamp = p.Timestamp
	}
	a.TransportType = p.Transport
}

// Reader is the unified, format-autodetecting DogStatsD packet reader.
type Reader struct {
	f         framer
	pending   []string
	analytics *Analytics // nil for raw-text streams
	closer    io.Closer  // non-nil when we own a decompressor to close
}

// Open peeks the beginning of r, transparently unwraps a Zstandard frame
// if present, classifies the (possibly unwrapped) container, and
// instantiates the matching framer.
func Open(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 8192)

	peeked, err := br.Peek(8)
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	var head4 [4]byte
	copy(head4[:], peeked[:4])

	var (
		rd     io.Reader = br
		closer io.Closer
	)
	if container.IsZstd(head4) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		closer = ioCloserFunc(func() error {
			zr.Close()
			return nil
		})
		rd = zr
		br = bufio.NewReaderSize(rd, 8192)
		peeked, err = br.Peek(8)
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		rd = br
	}

	var peek8 [8]byte
	copy(peek8[:], peeked)
	kind := container.Classify(peek8)

	var fr framer
	var analytics *Analytics
	switch kind {
	case container.Replay:
		fr, err = replay.Open(rd)
		if err != nil {
			return nil, err
		}
		analytics = newAnalytics()
	case container.Pcap:
		fr, err = pcapframe.Open(rd)
		if err != nil {
			return nil, err
		}
		analytics = newAnalytics()
	default:
		fr = rawtext.Open(rd)
	}

	return &Reader{f: fr, analytics: analytics, closer: closer}, nil
}

type ioCloserFunc func() error

func (f ioCloserFunc) Close() error { return f() }

// Close releases the underlying decompressor, if one was created.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadMsg pops the next DogStatsD line into dst, returning (1, nil) on
// success or (0, nil) at end of stream.
func (r *Reader) ReadMsg(dst *string) (int, error) {
	for {
		if len(r.pending) > 0 {
			*dst = r.pending[0]
			r.pending = r.pending[1:]
			if r.analytics != nil {
				r.analytics.TotalMessages++
			}
			return 1, nil
		}

		p, err := r.f.Next()
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}

		if r.analytics != nil {
			r.analytics.observe(p)
		}

		r.pending = splitLines(p.Payload)
		// An empty datagram yields no lines; loop to fetch the next packet.
	}
}

// splitLines splits a packet payload on '\n' into trimmed, non-empty
// lines. This is component G, folded into the reader since no container
// framer needs it independently.
func splitLines(payload []byte) []string {
	raw := strings.Split(string(payload), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// Analytics returns a snapshot of the stream-level analytics, or
// (nil, false) for raw-text streams.
func (r *Reader) Analytics() (*Analytics, bool) {
	if r.analytics == nil {
		return nil, false
	}
	snap := *r.analytics
	return &snap, true
}
