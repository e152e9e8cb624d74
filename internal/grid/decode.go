package grid

import (
	"fmt"
	"strings"

	"github.com/danmuck/gridtap/internal/hexdump"
)

// match is one satisfied classification rule.
type match struct {
	description string
	emphasis    Emphasis
}

type rule func(data []byte) (match, bool)

// rules is evaluated top to bottom; the first satisfied rule wins.
// The order is load-bearing: opcode ranges overlap between the two key
// event dialects and the system responses, so later rules are shadowed
// for some inputs. Known shadowing, kept on purpose:
//   - the system query response rule never fires (the key-up rule
//     matches every 0x00 chunk of length >= 3 first)
//   - the device ID rule only fires for exactly two bytes (the
//     key-down rule takes every longer 0x01 chunk)
var rules = []rule{
	func(data []byte) (match, bool) { // key up, documented dialect
		if data[0] == OpKeyUp && len(data) >= 3 {
			return match{fmt.Sprintf("Key UP at (%d, %d)", data[1], data[2]), EmphasisKeyUp}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // key down, documented dialect
		if data[0] == OpKeyDown && len(data) >= 3 {
			return match{fmt.Sprintf("Key DOWN at (%d, %d)", data[1], data[2]), EmphasisKeyDown}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // key up, alternate dialect
		if data[0] == OpAltKeyUp && len(data) >= 3 {
			return match{fmt.Sprintf("Key UP at (%d, %d) [Alt code]", data[1], data[2]), EmphasisKeyUp}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // key down, alternate dialect
		if data[0] == OpAltKeyDown && len(data) >= 3 {
			return match{fmt.Sprintf("Key DOWN at (%d, %d) [Alt code]", data[1], data[2]), EmphasisKeyDown}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // system query response (shadowed by key up)
		if data[0] == OpKeyUp && len(data) >= 3 && data[1] <= 15 {
			return match{fmt.Sprintf("System Query Response: Section %d, Count %d", data[1], data[2]), EmphasisSystem}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // device ID response
		if data[0] == OpKeyDown && len(data) > 1 {
			return match{fmt.Sprintf("Device ID: %s", deviceID(data[1:])), EmphasisDevice}, true
		}
		return match{}, false
	},
	func(data []byte) (match, bool) { // grid size response
		if data[0] == OpGridSize && len(data) >= 3 {
			return match{fmt.Sprintf("Grid Size: %dx%d", data[1], data[2]), EmphasisGrid}, true
		}
		return match{}, false
	},
}

// Decode classifies one read chunk against the Monome command set.
// ok is false only for an empty chunk. RawHex and Opcode are always
// populated; an unclassified chunk keeps Description "Unknown" and
// EmphasisNone.
func Decode(data []byte) (Message, bool) {
	if len(data) == 0 {
		return Message{}, false
	}
	msg := Message{
		RawHex:      hexdump.Hex(data),
		Opcode:      data[0],
		Description: "Unknown",
		Emphasis:    EmphasisNone,
	}
	for _, r := range rules {
		if m, ok := r(data); ok {
			msg.Description = m.description
			msg.Emphasis = m.emphasis
			break
		}
	}
	return msg, true
}

// deviceID interprets payload bytes as ASCII, dropping anything beyond
// 0x7F and trimming surrounding whitespace.
func deviceID(payload []byte) string {
	var b strings.Builder
	for _, c := range payload {
		if c <= 0x7F {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
