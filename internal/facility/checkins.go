package facility

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-querystring/query"

	"github.com/diagnosis/checkin-console/internal/checkout"
)

var _ checkout.Checkouter = (*Client)(nil)

// ListOptions filters the active check-in list.
type ListOptions struct {
	Search  string `url:"search,omitempty"`
	Service string `url:"serviceName,omitempty"`
	Page    int    `url:"page,omitempty"`
	Limit   int    `url:"limit,omitempty"`
	Status  string `url:"status,omitempty"`
}

func (c *Client) ListActiveCheckIns(ctx context.Context, opts ListOptions) ([]checkout.CheckInRecord, error) {
	if opts.Status == "" {
		opts.Status = "active"
	}
	values, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list options: %w", err)
	}

	env, err := c.do(ctx, http.MethodGet, "/checkins?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	records := []checkout.CheckInRecord{}
	if err := decodeData(env, &records); err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return records, nil
}

func (c *Client) GetCheckIn(ctx context.Context, id int64) (*checkout.CheckInRecord, error) {
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/checkins/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var rec checkout.CheckInRecord
	if err := decodeData(env, &rec); err != nil {
		return nil, fmt.Errorf("get check-in %d: %w", id, err)
	}
	return &rec, nil
}

func (c *Client) CheckoutAll(ctx context.Context, recordID int64) error {
	body := map[string]int64{"checkinId": recordID}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/checkins/%d/checkout", recordID), body)
	return err
}

func (c *Client) CheckoutSelected(ctx context.Context, recordID int64, guests []string) error {
	body := map[string][]string{"guestsToCheckout": guests}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/checkins/%d/partial-checkout", recordID), body)
	return err
}
