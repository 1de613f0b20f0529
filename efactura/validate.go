package efactura

import (
	"context"
	"strings"
)

// ValidateResponse is the verdict of the standalone XML validation endpoint.
type ValidateResponse struct {
	State    string            `json:"stare"`
	TraceID  string            `json:"trace_id"`
	Messages []ValidateMessage `json:"Messages"`
}

// ValidateMessage is one validation finding.
type ValidateMessage struct {
	Message string `json:"message"`
}

// Valid reports whether the document passed validation.
func (r *ValidateResponse) Valid() bool {
	return strings.EqualFold(r.State, "ok")
}

// ValidateXML checks a document against the ANAF validation rules without
// submitting it. The endpoint is public and needs no bearer token.
func (c *Client) ValidateXML(ctx context.Context, invoiceXML []byte, standard UploadStandard) (*ValidateResponse, error) {
	if standard == "" {
		standard = StandardUBL
	}

	body, status, err := c.postPublicXML(ctx, "/validare/"+string(standard), invoiceXML)
	if err != nil {
		return nil, err
	}

	var resp ValidateResponse
	if err := decodeJSON(body, status, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// XMLToPDF renders a document to PDF through the public conversion
// endpoint. With noValidate set the document is rendered without being
// validated first.
func (c *Client) XMLToPDF(ctx context.Context, invoiceXML []byte, standard UploadStandard, noValidate bool) ([]byte, error) {
	if standard == "" {
		standard = StandardUBL
	}

	path := "/transformare/" + string(standard)
	if noValidate {
		path += "/DA"
	}

	body, status, err := c.postPublicXML(ctx, path, invoiceXML)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}

	// A JSON error envelope in place of the PDF means the input failed
	// validation.
	if len(body) > 0 && body[0] == '{' {
		var verdict ValidateResponse
		if err := decodeJSON(body, status, &verdict); err == nil && !verdict.Valid() {
			msgs := make([]string, 0, len(verdict.Messages))
			for _, m := range verdict.Messages {
				msgs = append(msgs, m.Message)
			}
			return nil, &APIError{StatusCode: status, Message: strings.Join(msgs, "; ")}
		}
	}

	return body, nil
}
