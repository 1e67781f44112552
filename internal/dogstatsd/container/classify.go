package container

// Kind identifies which of the three supported containers a stream is.
type Kind int

const (
	RawText Kind = iota
	Replay
	Pcap
)

func (k Kind) String() string {
	switch k {
	case Replay:
		return "replay"
	case Pcap:
		return "pcap"
	default:
		return "raw-text"
	}
}

// replayMagic is the 4-byte prefix of every replay file header, before the
// version byte XOR.
var replayMagic = [4]byte{0xD4, 0x74, 0xD0, 0x60}

// SupportedReplayVersion is the only replay file version this toolkit can
// decode.
const SupportedReplayVersion = 3

var (
	pcapMagic        = [4]byte{0xA1, 0xB2, 0xC3, 0xD4}
	pcapMagicSwapped = [4]byte{0xD4, 0xC3, 0xB2, 0xA1}
)

// Classify inspects an 8-byte peek of a stream and decides which container
// framer should be used to read it. It never consumes bytes and never
// returns an error: an unsupported replay version or unusable pcap
// datalink is rejected by the downstream framer, not here.
func Classify(peek [8]byte) Kind {
	var head4 [4]byte
	copy(head4[:], peek[:4])

	if head4 == replayMagic && peek[4]^0xF0 == SupportedReplayVersion {
		return Replay
	}
	if head4 == pcapMagic || head4 == pcapMagicSwapped {
		return Pcap
	}
	return RawText
}
