package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/danmuck/gridtap/internal/grid"
)

// Theme resolves symbolic emphasis tags to terminal styles. Color
// values live here and nowhere else; the decoder only ever names the
// emphasis class.
type Theme struct {
	KeyUp   lipgloss.Style
	KeyDown lipgloss.Style
	System  lipgloss.Style
	Device  lipgloss.Style
	Grid    lipgloss.Style
}

// DefaultTheme matches the classic logger palette: cyan key-up,
// magenta key-down, blue system, green device, yellow grid size.
func DefaultTheme() Theme {
	return Theme{
		KeyUp:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		KeyDown: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		System:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Device:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Grid:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// PlainTheme applies no styling at all; used for log sinks and tests.
func PlainTheme() Theme {
	return Theme{}
}

// Apply styles s according to the emphasis tag. EmphasisNone and
// unstyled themes pass s through unchanged.
func (t Theme) Apply(e grid.Emphasis, s string) string {
	switch e {
	case grid.EmphasisKeyUp:
		return t.KeyUp.Render(s)
	case grid.EmphasisKeyDown:
		return t.KeyDown.Render(s)
	case grid.EmphasisSystem:
		return t.System.Render(s)
	case grid.EmphasisDevice:
		return t.Device.Render(s)
	case grid.EmphasisGrid:
		return t.Grid.Render(s)
	default:
		return s
	}
}

// HexLine renders one chunk in hex display mode.
func HexLine(ts, hex, ascii string) string {
	return fmt.Sprintf("[%s] HEX: %s | ASCII: %s", ts, hex, ascii)
}

// InterpretLine renders one decoded message, returning the plain form
// for log sinks and the styled form for the console.
func (t Theme) InterpretLine(ts string, msg grid.Message) (plain string, styled string) {
	plain = fmt.Sprintf("[%s] %s [%s]", ts, msg.Description, msg.RawHex)
	styled = fmt.Sprintf("[%s] %s [%s]", ts, t.Apply(msg.Emphasis, msg.Description), msg.RawHex)
	return plain, styled
}

// RawFallbackLine renders an undecodable chunk as hex only.
func RawFallbackLine(ts, hex string) string {
	return fmt.Sprintf("[%s] Raw data: %s", ts, hex)
}

// RawLine renders the chunk's unprocessed byte representation.
func RawLine(ts string, data []byte) string {
	return fmt.Sprintf("[%s] %q", ts, data)
}
