package csvimport

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DecodeText turns uploaded file bytes into UTF-8 text. A byte order mark
// selects UTF-8 or UTF-16. Without one the bytes are taken as UTF-8 when
// valid and as Windows-1258, the code page older Excel builds export
// Vietnamese CSVs in, otherwise.
func DecodeText(raw []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		out = raw
	}
	if utf8.Valid(out) {
		return string(out)
	}

	legacy, _, err := transform.Bytes(transform.Chain(charmap.Windows1258.NewDecoder(), norm.NFC), out)
	if err != nil {
		return strings.ToValidUTF8(string(out), "\uFFFD")
	}
	return string(legacy)
}
