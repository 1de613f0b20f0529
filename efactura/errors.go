package efactura

import "fmt"

// APIError is returned when the invoice API answers with a non-2xx status
// or an error envelope inside a 2xx body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("efactura API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("efactura API error: status %d: %s", e.StatusCode, e.Message)
}
