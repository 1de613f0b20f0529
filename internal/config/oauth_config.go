package config

import "time"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScope() string
	GetEnvironment() string
	GetRequestTimeout() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetClientID() string {
	return GetEnv("EFACTURA_CLIENT_ID", "")
}

func (OAuth) GetClientSecret() string {
	return GetEnv("EFACTURA_CLIENT_SECRET", "")
}

func (OAuth) GetRedirectURL() string {
	return GetEnv("EFACTURA_REDIRECT_URL", "http://localhost:8080/oauth/callback")
}

func (OAuth) GetScope() string {
	return GetEnv("EFACTURA_SCOPE", "")
}

// GetEnvironment selects the invoice API environment, "test" or "prod".
func (OAuth) GetEnvironment() string {
	return GetEnv("EFACTURA_ENV", "test")
}

func (OAuth) GetRequestTimeout() time.Duration {
	seconds := GetEnv("EFACTURA_TIMEOUT_SECONDS", "")
	if seconds == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(seconds + "s")
	if err != nil {
		return 30 * time.Second
	}
	return d
}
