package auth

import (
	"fmt"
	"sync"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

// AuthCreator builds a handler from its config section
type AuthCreator func(*config.Auth) (Handler, error)

// AuthRegistry maps auth types to creators
type AuthRegistry struct {
	creators map[config.AuthType]AuthCreator
	mutex    sync.RWMutex
}

// NewAuthRegistry creates a registry with the built-in handlers
func NewAuthRegistry() *AuthRegistry {
	registry := &AuthRegistry{
		creators: make(map[config.AuthType]AuthCreator),
	}

	registry.Register(config.AuthTypeBasic, createBasicAuth)
	registry.Register(config.AuthTypeAPIKey, createAPIKeyAuth)
	registry.Register(config.AuthTypeBearer, createBearerAuth)
	registry.Register(config.AuthTypeOAuth2, createOAuth2Auth)
	return registry
}

// Register adds or replaces a creator
func (r *AuthRegistry) Register(authType config.AuthType, creator AuthCreator) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.creators[authType] = creator
}

// Create builds the handler for authConfig. A nil config means no auth.
func (r *AuthRegistry) Create(authConfig *config.Auth) (Handler, error) {
	if authConfig == nil {
		return nil, nil
	}

	r.mutex.RLock()
	creator, exists := r.creators[authConfig.Type]
	r.mutex.RUnlock()

	if !exists {
		return nil, errors.WrapError(
			fmt.Errorf("unsupported auth type: %s", authConfig.Type),
			errors.ErrConfiguration,
			"invalid auth type",
		)
	}

	return creator(authConfig)
}

var defaultRegistry = NewAuthRegistry()

// CreateHandler builds a handler using the built-in registry
func CreateHandler(authConfig *config.Auth) (Handler, error) {
	return defaultRegistry.Create(authConfig)
}
