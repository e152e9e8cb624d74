package hexdump

import (
	"fmt"
	"strings"
)

// Dump renders data as space-joined uppercase hex pairs plus a
// printable-ASCII shadow of the same byte count. Bytes outside
// [0x20, 0x7E] shadow as '.'.
func Dump(data []byte) (string, string) {
	if len(data) == 0 {
		return "", ""
	}
	var hexOut strings.Builder
	var asciiOut strings.Builder
	for i, b := range data {
		if i > 0 {
			hexOut.WriteByte(' ')
		}
		fmt.Fprintf(&hexOut, "%02X", b)
		if b >= 0x20 && b <= 0x7E {
			asciiOut.WriteByte(b)
		} else {
			asciiOut.WriteByte('.')
		}
	}
	return hexOut.String(), asciiOut.String()
}

// Hex returns only the hex half of Dump.
func Hex(data []byte) string {
	h, _ := Dump(data)
	return h
}
