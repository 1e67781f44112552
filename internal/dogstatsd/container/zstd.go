// Package container detects and unwraps the outer container format of a
// DogStatsD traffic capture: an optional Zstandard frame, then one of
// replay, pcap, or raw text.
package container

// zstdMagic is the little-endian on-disk encoding of the Zstandard frame
// magic number (0xFD2FB528).
// https://github.com/facebook/zstd/blob/dev/doc/zstd_compression_format.md#zstandard-frames
var zstdMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

// IsZstd reports whether peek begins with the Zstandard frame magic. It
// never consumes the bytes it is given; callers are expected to have
// peeked, not read, them.
func IsZstd(peek [4]byte) bool {
	return peek == zstdMagic
}
