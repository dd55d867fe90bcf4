package facility

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diagnosis/checkin-console/internal/csvimport"
)

var _ csvimport.Importer = (*Client)(nil)

// ImportRows submits one batch of rows to the kind's import endpoint as
// {"residents": [...]} or {"staff": [...]}.
func (c *Client) ImportRows(ctx context.Context, kind csvimport.Kind, rows []csvimport.CsvRow) (*csvimport.ImportResponse, error) {
	path := fmt.Sprintf("/%s/import", kind.PluralKey())
	body := map[string][]csvimport.CsvRow{kind.PluralKey(): rows}

	env, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		// A rejected batch may still list its row failures.
		var resp csvimport.ImportResponse
		if env != nil && decodeData(env, &resp) == nil && len(resp.Errors) > 0 {
			return &resp, nil
		}
		return nil, err
	}

	var resp csvimport.ImportResponse
	if err := decodeData(env, &resp); err != nil {
		return nil, fmt.Errorf("import %s: %w", kind, err)
	}
	return &resp, nil
}
