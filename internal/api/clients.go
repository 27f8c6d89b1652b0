package api

import (
	"context"
	"net/http"
)

// ListClients fetches every client visible to token, in server order.
func (c *Client) ListClients(ctx context.Context, token string) ([]ClientRecord, error) {
	req, resp, err := c.doRequest(ctx, http.MethodGet, clientPath, token, nil, "")
	if err != nil {
		return nil, err
	}

	var records []ClientRecord
	if err := c.parseResponse(ctx, req, clientPath, resp, &records); err != nil {
		return nil, err
	}

	if records == nil {
		records = []ClientRecord{}
	}
	return records, nil
}
