package parser

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// single-byte encodings understood by the fallback chain
var charmaps = map[string]encoding.Encoding{
	"latin-1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp1251":       charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"cp437":        charmap.CodePage437,
}

// decodeText turns raw file bytes into UTF-8 text. The preferred encoding is
// tried first, then each fallback in order; when none applies the bytes are
// decoded as UTF-8 with invalid sequences replaced by U+FFFD.
func decodeText(data []byte, preferred string, fallbacks []string, logger *slog.Logger) string {
	names := append([]string{preferred}, fallbacks...)
	for _, name := range names {
		if text, ok := decodeAs(data, name); ok {
			return normalizeNewlines(text)
		}
		logger.Debug("decoding failed, trying next encoding", "encoding", name)
	}

	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		// the replacing decoder does not fail on bad input
		out = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}
	return normalizeNewlines(string(bytes.TrimPrefix(out, utf8BOM)))
}

func decodeAs(data []byte, name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", false
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), true
	}

	enc, ok := charmaps[key]
	if !ok {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
