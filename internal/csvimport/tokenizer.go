package csvimport

import (
	"strings"
)

const bom = "\ufeff"

// DetectDelimiter picks ';' only when it strictly outnumbers ',' in the
// header line.
func DetectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// SplitLine splits one line on delim. Double quotes group a field, a doubled
// quote inside a quoted field is a literal quote, and every field is trimmed.
func SplitLine(line string, delim rune) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}

// Tokenize splits text into non-blank lines and tokenizes each of them with
// the delimiter detected on the first one.
func Tokenize(text string) (rune, [][]string) {
	text = strings.TrimPrefix(text, bom)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ',', nil
	}

	delim := DetectDelimiter(lines[0])
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, SplitLine(line, delim))
	}
	return delim, records
}
