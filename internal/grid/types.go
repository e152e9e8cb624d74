package grid

// Opcodes observed across Monome Grid firmware revisions. Two
// numbering dialects are in active use for key events: the documented
// 0x00/0x01 pair and the 0x20/0x21 pair.
const (
	OpKeyUp         byte = 0x00
	OpKeyDown       byte = 0x01
	OpGridSize      byte = 0x03
	OpGridSizeQuery byte = 0x05
	OpAltKeyUp      byte = 0x20
	OpAltKeyDown    byte = 0x21
)

// Emphasis is a symbolic display hint attached to a classification.
// It carries no protocol meaning; color resolution happens at the
// rendering boundary only.
type Emphasis int

const (
	EmphasisNone Emphasis = iota
	EmphasisKeyUp
	EmphasisKeyDown
	EmphasisSystem
	EmphasisDevice
	EmphasisGrid
)

func (e Emphasis) String() string {
	switch e {
	case EmphasisKeyUp:
		return "key_up"
	case EmphasisKeyDown:
		return "key_down"
	case EmphasisSystem:
		return "system"
	case EmphasisDevice:
		return "device"
	case EmphasisGrid:
		return "grid"
	default:
		return "none"
	}
}

// Message is the decode result for one read chunk.
type Message struct {
	RawHex      string
	Opcode      byte
	Description string
	Emphasis    Emphasis
}
