package csvimport

// CsvRow maps canonical field keys to raw string values.
type CsvRow map[string]string

// Result is the outcome of parsing one file. Rows and Errors are always
// populated together; a structural error leaves Rows empty.
type Result struct {
	Kind      Kind              `json:"kind" yaml:"kind"`
	Delimiter string            `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Columns   []string          `json:"columns" yaml:"columns"`
	Rows      []CsvRow          `json:"rows" yaml:"rows"`
	Errors    []ValidationError `json:"errors" yaml:"errors"`
	Skipped   int               `json:"skipped" yaml:"skipped"`
}

func (r *Result) HasStructuralError() bool {
	for _, e := range r.Errors {
		if e.IsStructural() {
			return true
		}
	}
	return false
}

// Parse runs the whole pipeline over CSV text.
func Parse(k Kind, text string) *Result {
	delim, records := Tokenize(text)
	res := ParseRecords(k, records)
	if len(records) > 0 {
		res.Delimiter = string(delim)
	}
	return res
}

// ParseRecords reconciles the header record and validates the data records.
// records[0] is the header.
func ParseRecords(k Kind, records [][]string) *Result {
	res := &Result{
		Kind:    k,
		Columns: []string{},
		Rows:    []CsvRow{},
		Errors:  []ValidationError{},
	}
	if len(records) == 0 {
		res.Errors = append(res.Errors, structural("Tệp rỗng hoặc không có dòng tiêu đề"))
		return res
	}

	mapping, herr := MapHeaders(k, records[0])
	if herr != nil {
		res.Errors = append(res.Errors, *herr)
		return res
	}
	res.Columns = mapping.Keys()

	for _, tokens := range records[1:] {
		// A line carrying less than half of the mapped columns is treated as
		// corrupt and dropped without an error.
		if len(tokens)*2 < len(mapping) {
			res.Skipped++
			continue
		}

		row := make(CsvRow, len(mapping))
		for _, b := range mapping {
			if b.Index < len(tokens) {
				row[b.Key] = tokens[b.Index]
			} else {
				row[b.Key] = ""
			}
		}

		index := len(res.Rows)
		res.Rows = append(res.Rows, row)
		res.Errors = append(res.Errors, ValidateRow(k, index, row)...)
	}
	return res
}
