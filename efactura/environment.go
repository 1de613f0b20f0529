package efactura

// Environment selects the ANAF invoice API environment. It changes base
// URLs only; the identity provider endpoints are shared between the two.
type Environment string

const (
	// EnvironmentTest is the sandbox invoice API. Documents uploaded there
	// are validated but have no fiscal effect.
	EnvironmentTest Environment = "test"

	// EnvironmentProduction is the live SPV invoice API.
	EnvironmentProduction Environment = "prod"
)

const (
	apiBaseTest = "https://api.anaf.ro/test/FCTEL/rest"
	apiBaseProd = "https://api.anaf.ro/prod/FCTEL/rest"

	// The validation and PDF conversion endpoints live on ANAF's public
	// web-services host and require no bearer token.
	publicBaseTest = "https://webservicesp.anaf.ro/test/FCTEL/rest"
	publicBaseProd = "https://webservicesp.anaf.ro/prod/FCTEL/rest"
)

// APIBaseURL returns the authorized invoice API base for the environment.
// Unknown values fall back to the test environment.
func (e Environment) APIBaseURL() string {
	if e == EnvironmentProduction {
		return apiBaseProd
	}
	return apiBaseTest
}

// PublicBaseURL returns the unauthenticated web-services base for the
// environment.
func (e Environment) PublicBaseURL() string {
	if e == EnvironmentProduction {
		return publicBaseProd
	}
	return publicBaseTest
}
