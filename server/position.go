package server

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// offsetOf converts an LSP position, whose character counts UTF-16 code
// units, to a byte offset in text. Positions past the end of a line clamp
// to the line end, and positions past the last line to len(text).
func offsetOf(text string, pos protocol.Position) int {
	off := 0
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}
		off += nl + 1
	}
	for units := int(pos.Character); units > 0 && off < len(text); {
		r, w := utf8.DecodeRuneInString(text[off:])
		if r == '\n' {
			break
		}
		units -= utf16.RuneLen(r)
		off += w
	}
	return off
}

// positionOf converts a byte offset in text to an LSP position.
func positionOf(text string, off int) protocol.Position {
	off = min(max(off, 0), len(text))
	start := strings.LastIndexByte(text[:off], '\n') + 1
	units := 0
	for _, r := range text[start:off] {
		units += utf16.RuneLen(r)
	}
	return protocol.Position{
		Line:      protocol.UInteger(strings.Count(text[:off], "\n")),
		Character: protocol.UInteger(units),
	}
}
