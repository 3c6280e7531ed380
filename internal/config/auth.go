package config

import (
	"os"
	"sync"
)

type AuthConfig struct {
	// IntrospectURL is the identity provider endpoint used to validate
	// bearer session tokens. When empty the auth middleware is disabled.
	IntrospectURL string
	APIKey        string
}

var (
	authConfig *AuthConfig
	authOnce   sync.Once
)

func LoadAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		authConfig = &AuthConfig{
			IntrospectURL: os.Getenv("AUTH_INTROSPECT_URL"),
			APIKey:        os.Getenv("AUTH_API_KEY"),
		}
	})
	return authConfig
}
