package csvimport

import (
	"fmt"
	"sort"
)

// ServerIndexOffset converts backend row numbers to local row indices: the
// backend counts spreadsheet rows from 1 and includes the header row.
const ServerIndexOffset = 2

// Reconciliation is the unified error view after a submission.
type Reconciliation struct {
	Errors       []ValidationError
	Unattributed []string
}

// Reconcile merges server row errors into the local error list. A server
// error replaces a local error on the same row and field, since the server
// is authoritative. Errors whose index does not land on a local row are
// returned as unattributed messages instead of being dropped.
func Reconcile(k Kind, rows []CsvRow, local []ValidationError, resp *ImportResponse) Reconciliation {
	out := Reconciliation{Errors: []ValidationError{}}
	if resp == nil {
		out.Errors = append(out.Errors, local...)
		return out
	}

	type slot struct {
		row   int
		field string
	}
	var server []ValidationError
	covered := make(map[slot]bool)
	seen := make(map[string]bool)

	for _, se := range resp.Errors {
		field, msg := DescribeServerError(se)
		index := se.Index - ServerIndexOffset
		if index < 0 || index >= len(rows) {
			out.Unattributed = append(out.Unattributed, fmt.Sprintf("Dòng %d: %s", se.Index, msg))
			continue
		}

		msg = fmt.Sprintf("%s: %s", RowLabel(k, index, rows[index]), msg)
		dedupe := fmt.Sprintf("%d|%s|%s", index, se.ErrorCode, msg)
		if seen[dedupe] {
			continue
		}
		seen[dedupe] = true

		if field != "" {
			covered[slot{index, field}] = true
		}
		server = append(server, ValidationError{
			RowIndex: index,
			Field:    field,
			Message:  msg,
			Code:     se.ErrorCode,
			Source:   SourceServer,
		})
	}

	for _, le := range local {
		if le.Field != "" && covered[slot{le.RowIndex, le.Field}] {
			continue
		}
		out.Errors = append(out.Errors, le)
	}
	out.Errors = append(out.Errors, server...)
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].RowIndex < out.Errors[j].RowIndex
	})
	return out
}
