package auth

// Endpoint holds the identity provider URLs used for the authorization
// code flow. The ANAF provider uses the same endpoints for both the test
// and the production invoice environments; only the invoice API base URL
// differs between them.
type Endpoint struct {
	AuthorizeURL string
	TokenURL     string
}

// DefaultEndpoint is the ANAF identity provider. Exchanging a code against
// it requires the request to originate from a session established with the
// user's enrolled digital certificate.
var DefaultEndpoint = Endpoint{
	AuthorizeURL: "https://logincert.anaf.ro/anaf-oauth2/v1/authorize",
	TokenURL:     "https://logincert.anaf.ro/anaf-oauth2/v1/token",
}
