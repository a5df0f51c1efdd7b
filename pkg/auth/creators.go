package auth

import (
	"fmt"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

func createBasicAuth(authConfig *config.Auth) (Handler, error) {
	if authConfig.Basic == nil {
		return nil, missingSection("basic")
	}
	return NewBasicAuth(authConfig.Basic.Username, authConfig.Basic.Password), nil
}

func createAPIKeyAuth(authConfig *config.Auth) (Handler, error) {
	if authConfig.APIKey == nil {
		return nil, missingSection("api_key")
	}
	return NewAPIKeyAuth(
		authConfig.APIKey.Header,
		authConfig.APIKey.QueryParam,
		authConfig.APIKey.Value,
	), nil
}

func createBearerAuth(authConfig *config.Auth) (Handler, error) {
	if authConfig.Bearer == nil {
		return nil, missingSection("bearer")
	}
	return NewBearerAuth(authConfig.Bearer.Token), nil
}

func createOAuth2Auth(authConfig *config.Auth) (Handler, error) {
	o := authConfig.OAuth2
	if o == nil {
		return nil, missingSection("oauth2")
	}
	h, err := NewOAuth2Auth(o.TokenURL, o.ClientID, o.ClientSecret, o.Scope, o.ExtraParams, o.RefreshBefore)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "create OAuth2 auth")
	}
	return h, nil
}

func missingSection(name string) error {
	return errors.WrapError(
		fmt.Errorf("%s configuration is required", name),
		errors.ErrConfiguration,
		"create "+name+" auth",
	)
}
