// Package ubl models the UBL 2.1 invoice document accepted by the ANAF
// e-Factura platform (CIUS-RO customization of EN 16931). The model covers
// the elements the platform requires plus the common optional ones;
// serialization is plain encoding/xml with namespace-qualified fields, so
// Marshal and Unmarshal are symmetric.
package ubl

import (
	"encoding/xml"
	"time"

	"github.com/pkg/errors"
)

// Namespace URIs of the UBL invoice schema.
const (
	NSInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NSCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NSCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
)

// CIUSRO is the CustomizationID required by the Romanian CIUS.
const CIUSRO = "urn:cen.eu:en16931:2017#compliant#urn:efactura.mfinante.ro:CIUS-RO:1.0.1"

// UBLVersion is the supported UBL schema version.
const UBLVersion = "2.1"

const dateLayout = "2006-01-02"

// Date is a UBL date (xs:date, no time component).
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(d.Format(dateLayout), start)
}

func (d *Date) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := dec.DecodeElement(&raw, &start); err != nil {
		return err
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return errors.Wrapf(err, "[Date.UnmarshalXML] parsing %q", raw)
	}
	d.Time = parsed
	return nil
}

// Amount is a currency-qualified monetary value.
type Amount struct {
	Value      float64 `xml:",chardata"`
	CurrencyID string  `xml:"currencyID,attr"`
}

// Quantity is a unit-qualified quantity. Unit codes follow UN/ECE
// Recommendation 20 (e.g. "C62" for piece, "H87" for unit).
type Quantity struct {
	Value    float64 `xml:",chardata"`
	UnitCode string  `xml:"unitCode,attr"`
}

// Marshal serializes an invoice to a standalone XML document with the
// UTF-8 declaration the platform expects.
func Marshal(inv *Invoice) ([]byte, error) {
	body, err := xml.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "[ubl.Marshal] encoding invoice")
	}
	return append([]byte(xml.Header), body...), nil
}

// Unmarshal parses an invoice document, for example one extracted from a
// downloaded message archive.
func Unmarshal(data []byte) (*Invoice, error) {
	var inv Invoice
	if err := xml.Unmarshal(data, &inv); err != nil {
		return nil, errors.Wrap(err, "[ubl.Unmarshal] decoding invoice")
	}
	return &inv, nil
}
