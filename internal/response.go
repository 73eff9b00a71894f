package internal

import "strings"

// decodeLatin1 maps every byte to the rune of the same value, so arbitrary
// response bytes never fail to decode.
func decodeLatin1(b []byte) string {
	rs := make([]rune, len(b))
	for i, c := range b {
		rs[i] = rune(c)
	}
	return string(rs)
}

// parseResponse isolates the header block (everything before the first
// blank line) and its first line, the status line. A truncated response
// with no terminator yields the whole text as the header block.
func parseResponse(raw []byte) (headerBlock, statusLine string) {
	text := decodeLatin1(raw)
	headerBlock, _, _ = strings.Cut(text, "\r\n\r\n")
	statusLine, _, _ = strings.Cut(headerBlock, "\r\n")
	return headerBlock, statusLine
}
