package efactura

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// Download retrieves a message archive (a zip containing the invoice XML
// and the ANAF signature) by its download id. The API signals errors with
// a JSON body instead of the zip payload.
func (c *Client) Download(ctx context.Context, downloadID string) ([]byte, error) {
	query := url.Values{}
	query.Set("id", strings.TrimSpace(downloadID))

	body, status, err := c.get(ctx, "/descarcare", query)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}

	// A JSON body in place of the archive carries the error envelope.
	var envelope struct {
		Error string `json:"eroare"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return nil, &APIError{StatusCode: status, Message: envelope.Error}
	}

	return body, nil
}
