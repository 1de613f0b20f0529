package efactura

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// MessageFilter narrows a message listing by message kind.
type MessageFilter string

const (
	FilterErrors        MessageFilter = "E" // validation errors
	FilterSent          MessageFilter = "T" // invoices sent by the CIF
	FilterReceived      MessageFilter = "P" // invoices received by the CIF
	FilterBuyerMessages MessageFilter = "R" // buyer-issued messages
)

// messageCreatedAtLayout is the timestamp format of data_creare.
const messageCreatedAtLayout = "200601021504"

// Message is one entry of an SPV message listing.
type Message struct {
	ID          string `json:"id"`
	UploadIndex string `json:"id_solicitare"`
	CIF         string `json:"cif"`
	CreatedAt   string `json:"data_creare"`
	Type        string `json:"tip"`
	Details     string `json:"detalii"`
}

// CreatedTime parses the CreatedAt stamp (yyyyMMddHHmm, Romanian local time).
func (m Message) CreatedTime() (time.Time, error) {
	return time.Parse(messageCreatedAtLayout, m.CreatedAt)
}

// MessagesResponse is the JSON body of the plain message listing.
type MessagesResponse struct {
	Error    string    `json:"eroare"`
	Title    string    `json:"titlu"`
	Serial   string    `json:"serial"`
	CUI      string    `json:"cui"`
	Messages []Message `json:"mesaje"`
}

// MessagesPageResponse is the JSON body of the paginated message listing.
type MessagesPageResponse struct {
	MessagesResponse
	RecordsInPage int64 `json:"numar_inregistrari_in_pagina"`
	RecordsTotal  int64 `json:"numar_total_inregistrari"`
	PagesTotal    int64 `json:"numar_total_pagini"`
	CurrentPage   int64 `json:"index_pagina_curenta"`
}

// ListMessages returns the messages for a CIF over the trailing number of
// days (1 to 60, per the API contract). An empty filter returns all kinds.
func (c *Client) ListMessages(ctx context.Context, cif string, days int, filter MessageFilter) (*MessagesResponse, error) {
	query := url.Values{}
	query.Set("cif", cif)
	query.Set("zile", strconv.Itoa(days))
	if filter != "" {
		query.Set("filtru", string(filter))
	}

	body, status, err := c.get(ctx, "/listaMesajeFactura", query)
	if err != nil {
		return nil, err
	}

	var resp MessagesResponse
	if err := decodeJSON(body, status, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{StatusCode: status, Message: resp.Error}
	}
	return &resp, nil
}

// ListMessagesPaginated returns one page of messages for a CIF between two
// instants (millisecond epoch bounds, per the API contract).
func (c *Client) ListMessagesPaginated(ctx context.Context, cif string, startTime, endTime time.Time, page int64, filter MessageFilter) (*MessagesPageResponse, error) {
	query := url.Values{}
	query.Set("cif", cif)
	query.Set("startTime", strconv.FormatInt(startTime.UnixMilli(), 10))
	query.Set("endTime", strconv.FormatInt(endTime.UnixMilli(), 10))
	query.Set("pagina", strconv.FormatInt(page, 10))
	if filter != "" {
		query.Set("filtru", string(filter))
	}

	body, status, err := c.get(ctx, "/listaMesajePaginatieFactura", query)
	if err != nil {
		return nil, err
	}

	var resp MessagesPageResponse
	if err := decodeJSON(body, status, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{StatusCode: status, Message: resp.Error}
	}
	return &resp, nil
}
