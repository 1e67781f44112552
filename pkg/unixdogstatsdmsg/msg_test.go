package unixdogstatsdmsg

import (
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func encode(m Msg) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Timestamp))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PayloadSize))
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Payload)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.PID))
	b = protowire.AppendTag(b, 5, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Ancillary)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.AncillarySize))
	return b
}

func TestDecodeRoundTrip(t *testing.T) {
	want := Msg{
		Timestamp:     1692823177480253700,
		PayloadSize:   131,
		Payload:       []byte("statsd.example.time.micros:2.39283|d|@1.000000|#environment:dev"),
		PID:           4242,
		Ancillary:     []byte{},
		AncillarySize: 0,
	}

	got, err := Decode(encode(want))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Timestamp != want.Timestamp {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, want.Timestamp)
	}
	if got.PayloadSize != want.PayloadSize {
		t.Errorf("PayloadSize = %d, want %d", got.PayloadSize, want.PayloadSize)
	}
	if string(got.Payload) != string(want.Payload) {
		t.Errorf("Payload = %q, want %q", got.Payload, want.Payload)
	}
	if got.PID != want.PID {
		t.Errorf("PID = %d, want %d", got.PID, want.PID)
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b := encode(Msg{Timestamp: 1, PayloadSize: 0, Payload: []byte("x")})
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Timestamp != 1 {
		t.Errorf("Timestamp = %d, want 1", got.Timestamp)
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, Msg{}) {
		t.Errorf("got %+v, want zero value", got)
	}
}
