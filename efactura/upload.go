package efactura

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"
)

// UploadStandard selects the document standard declared on upload.
type UploadStandard string

const (
	StandardUBL  UploadStandard = "UBL"  // UBL 2.1 invoice
	StandardCN   UploadStandard = "CN"   // UBL 2.1 credit note
	StandardRASP UploadStandard = "RASP" // ANAF RASP envelope
)

// UploadOptions carries the optional upload flags.
type UploadOptions struct {
	// Standard defaults to StandardUBL when empty.
	Standard UploadStandard

	// Extern marks an invoice issued to a foreign (non-Romanian) buyer.
	Extern bool

	// SelfInvoice marks a buyer-issued (autofactura) document.
	SelfInvoice bool
}

// UploadResponse is the <header> element returned by the upload endpoint.
type UploadResponse struct {
	XMLName         xml.Name      `xml:"header"`
	ResponseDate    string        `xml:"dateResponse,attr"`
	ExecutionStatus int           `xml:"ExecutionStatus,attr"`
	UploadIndex     string        `xml:"index_incarcare,attr"`
	Errors          []UploadError `xml:"Errors"`
}

// UploadError is one validation failure reported in an upload response.
type UploadError struct {
	ErrorMessage string `xml:"errorMessage,attr"`
}

// Accepted reports whether the document entered processing. A rejected
// upload has ExecutionStatus 1 and one or more Errors.
func (r *UploadResponse) Accepted() bool {
	return r.ExecutionStatus == 0 && r.UploadIndex != ""
}

// Upload submits an invoice document for the given CIF and returns the
// upload index used to poll processing status. The document itself is the
// raw UBL XML, typically produced with the ubl package.
func (c *Client) Upload(ctx context.Context, invoiceXML []byte, cif string, opts UploadOptions) (*UploadResponse, error) {
	standard := opts.Standard
	if standard == "" {
		standard = StandardUBL
	}

	query := url.Values{}
	query.Set("standard", string(standard))
	query.Set("cif", cif)
	if opts.Extern {
		query.Set("extern", "DA")
	}
	if opts.SelfInvoice {
		query.Set("autofactura", "DA")
	}

	body, status, err := c.postXML(ctx, "/upload", query, invoiceXML)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := decodeXMLHeader(body, status, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadState is the processing status of an uploaded document.
type UploadState string

const (
	UploadStateOk         UploadState = "ok"
	UploadStateNok        UploadState = "nok"
	UploadStateProcessing UploadState = "in prelucrare"
	UploadStateInvalidXML UploadState = "XML cu erori nepreluat de sistem"
)

// UploadStateResponse is the <header> element returned by the status
// endpoint. When processing finished, DownloadID identifies the response
// archive retrievable with Download.
type UploadStateResponse struct {
	XMLName    xml.Name      `xml:"header"`
	State      UploadState   `xml:"stare,attr"`
	DownloadID string        `xml:"id_descarcare,attr"`
	Errors     []UploadError `xml:"Errors"`
}

// GetUploadState polls the processing status for an upload index.
func (c *Client) GetUploadState(ctx context.Context, uploadIndex string) (*UploadStateResponse, error) {
	query := url.Values{}
	query.Set("id_incarcare", strings.TrimSpace(uploadIndex))

	body, status, err := c.get(ctx, "/stareMesaj", query)
	if err != nil {
		return nil, err
	}

	var resp UploadStateResponse
	if err := decodeXMLHeader(body, status, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
