package replay

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func encodeRecord(payload []byte, ts int64) []byte {
	var body []byte
	body = protowire.AppendTag(body, 1, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(ts))
	body = protowire.AppendTag(body, 2, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(len(payload)))
	body = protowire.AppendTag(body, 3, protowire.BytesType)
	body = protowire.AppendBytes(body, payload)

	var out []byte
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	out = append(out, lenBuf[:]...)
	out = append(out, body...)
	return out
}

func buildReplayFile(version byte, records ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xD4, 0x74, 0xD0, 0x60, version ^ 0xF0, 0x00, 0x00, 0x00})
	for _, r := range records {
		buf.Write(r)
	}
	buf.Write([]byte{0, 0, 0, 0}) // sentinel
	return buf.Bytes()
}

const expectedLine = "statsd.example.time.micros:2.39283|d|@1.000000|#environment:dev|c:2a25f7fc8fbf573d62053d7263dd2d440c07b6ab4d2b107e50b0d4df1f2ee15f"

func TestReplayDecodesTwoMessages(t *testing.T) {
	rec1 := encodeRecord([]byte(expectedLine), 1692823177480253700)
	rec2 := encodeRecord([]byte(expectedLine), 1692823178271749279)
	data := buildReplayFile(SupportedVersion, rec1, rec2)

	f, err := Open(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	p1, err := f.Next()
	if err != nil {
		t.Fatalf("Next (1): %v", err)
	}
	if string(p1.Payload) != expectedLine {
		t.Errorf("packet 1 payload = %q, want %q", p1.Payload, expectedLine)
	}

	p2, err := f.Next()
	if err != nil {
		t.Fatalf("Next (2): %v", err)
	}
	if string(p2.Payload) != expectedLine {
		t.Errorf("packet 2 payload = %q, want %q", p2.Payload, expectedLine)
	}

	if _, err := f.Next(); err != io.EOF {
		t.Fatalf("Next (3) = %v, want io.EOF", err)
	}
	// Stops at the sentinel for good: subsequent reads stay EOF.
	if _, err := f.Next(); err != io.EOF {
		t.Fatalf("Next (4) = %v, want io.EOF", err)
	}
}

func TestOpenRejectsNonReplayBytes(t *testing.T) {
	if _, err := Open(bytes.NewReader([]byte("my.metric:1|g\n"))); err != ErrNotAReplayFile {
		t.Fatalf("Open = %v, want ErrNotAReplayFile", err)
	}
}

func TestOpenRejectsAllWhitespace(t *testing.T) {
	if _, err := Open(bytes.NewReader(bytes.Repeat([]byte{' '}, 16))); err != ErrNotAReplayFile {
		t.Fatalf("Open = %v, want ErrNotAReplayFile", err)
	}
}

func TestOpenUnsupportedVersionReportsVersion(t *testing.T) {
	data := buildReplayFile(99)

	_, err := Open(bytes.NewReader(data))
	var uv *UnsupportedVersionError
	if err == nil {
		t.Fatalf("Open = nil, want UnsupportedVersionError")
	}
	if ok := errorsAs(err, &uv); !ok {
		t.Fatalf("Open err = %v, want *UnsupportedVersionError", err)
	}
	if uv.Version != 99 {
		t.Errorf("Version = %d, want 99", uv.Version)
	}
}

func errorsAs(err error, target **UnsupportedVersionError) bool {
	if e, ok := err.(*UnsupportedVersionError); ok {
		*target = e
		return true
	}
	return false
}
