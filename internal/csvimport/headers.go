package csvimport

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dStroke = strings.NewReplacer("đ", "d", "Đ", "D")

// Simplify folds a header for comparison: diacritics stripped, whitespace
// removed, lowercased. "Tên Cư Dân" and "ten cu dan" both become "tencudan".
func Simplify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = dStroke.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ColumnBinding ties a file column index to a canonical field key.
type ColumnBinding struct {
	Index int
	Key   string
}

// HeaderMapping is ordered by file column index.
type HeaderMapping []ColumnBinding

func (m HeaderMapping) Keys() []string {
	keys := make([]string, len(m))
	for i, b := range m {
		keys[i] = b.Key
	}
	return keys
}

func lookupTable(k Kind) map[string]string {
	table := make(map[string]string)
	for _, c := range Columns(k) {
		table[Simplify(c.Key)] = c.Key
		table[Simplify(c.Label)] = c.Key
		for _, alias := range c.Aliases {
			table[Simplify(alias)] = c.Key
		}
	}
	return table
}

// MapHeaders matches file headers against the keys, labels and aliases of
// the schema of k. Unknown columns are ignored and the first column matching
// a key wins. When a required column is absent the mapping is nil and the
// structural error is returned.
func MapHeaders(k Kind, headers []string) (HeaderMapping, *ValidationError) {
	table := lookupTable(k)
	used := make(map[string]bool)

	var mapping HeaderMapping
	for i, h := range headers {
		key, ok := table[Simplify(h)]
		if !ok || used[key] {
			continue
		}
		used[key] = true
		mapping = append(mapping, ColumnBinding{Index: i, Key: key})
	}

	var missing []string
	for _, c := range Columns(k) {
		if c.Required && !used[c.Key] {
			missing = append(missing, c.Label)
		}
	}
	if len(missing) > 0 {
		verr := structural(fmt.Sprintf("Thiếu cột bắt buộc: %s. Các cột bắt buộc: %s",
			strings.Join(missing, ", "), strings.Join(RequiredLabels(k), ", ")))
		return nil, &verr
	}
	return mapping, nil
}
