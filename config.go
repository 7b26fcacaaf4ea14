package authcore

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Default token lifetimes, used when the stored configuration does not
// override them.
const (
	DefaultLoginTokenLifetime = 14 * 24 * time.Hour
	DefaultAgentTokenLifetime = 7 * 24 * time.Hour
	DefaultDevTokenLifetime   = 90 * 24 * time.Hour
	DefaultServTokenLifetime  = 100_000 * 24 * time.Hour
)

// DefaultTokenLifetime returns the built-in lifetime for a token type.
func DefaultTokenLifetime(t TokenType) time.Duration {
	switch t {
	case TokenAgent:
		return DefaultAgentTokenLifetime
	case TokenDev:
		return DefaultDevTokenLifetime
	case TokenServ:
		return DefaultServTokenLifetime
	default:
		return DefaultLoginTokenLifetime
	}
}

// AuthConfig is the storage-backed core configuration. Nil / absent values
// mean "use the default".
type AuthConfig struct {
	LoginAllowed   *bool
	TokenLifetimes map[TokenType]time.Duration
}

// IsLoginAllowed resolves the login flag, defaulting to false: a fresh
// deployment must be explicitly opened for non-root logins.
func (c AuthConfig) IsLoginAllowed() bool {
	return c.LoginAllowed != nil && *c.LoginAllowed
}

// TokenLifetime resolves the configured lifetime for a token type.
func (c AuthConfig) TokenLifetime(t TokenType) time.Duration {
	if lt, ok := c.TokenLifetimes[t]; ok && lt > 0 {
		return lt
	}
	return DefaultTokenLifetime(t)
}

// ExternalConfig is configuration owned by an outer layer (UI, transport)
// but persisted alongside the core config. The core treats it as an opaque
// key/value map.
type ExternalConfig interface {
	ToMap() map[string]string
}

// ExternalConfigMapper converts the stored key/value map into a typed
// external config. Mapping failure is distinct from storage failure.
type ExternalConfigMapper[T ExternalConfig] func(map[string]string) (T, error)

// AuthConfigSet pairs the core configuration with a mapped external config.
type AuthConfigSet[T ExternalConfig] struct {
	Config   AuthConfig
	External T
}

// AuthConfigUpdate describes a configuration change. With overwrite, the
// update replaces current values; without, only keys absent from the stored
// configuration are written.
type AuthConfigUpdate struct {
	LoginAllowed   *bool
	TokenLifetimes map[TokenType]time.Duration
	External       map[string]string
}

// GetExternalConfig loads the configuration and applies the mapper. Mapper
// failure surfaces as ErrConfigMapping; storage failure as ErrStorage.
func GetExternalConfig[T ExternalConfig](
	ctx context.Context,
	a *Auth,
	mapper ExternalConfigMapper[T],
) (*AuthConfigSet[T], error) {
	var zero *AuthConfigSet[T]
	if mapper == nil {
		return zero, missingParameter("mapper")
	}
	cfg, external, err := a.storage.GetConfig(ctx)
	if err != nil {
		return zero, err
	}
	mapped, err := mapper(external)
	if err != nil {
		return zero, errors.Wrap(err, errors.CategoryBadInput, "external config mapping failed").
			WithTextCode(TextCodeConfigMapping).
			WithCode(errors.CodeBadRequest)
	}
	return &AuthConfigSet[T]{Config: cfg, External: mapped}, nil
}
