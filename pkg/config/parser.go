package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/saturnines/nexus-source/pkg/errors"
)

type ValidationError struct {
	Field   string
	Message string
}

type Validator interface {
	Validate(config *Plugin) []ValidationError
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultValueSetter Handles the interface for setting default values
type DefaultValueSetter interface {
	SetDefaults(config *Plugin)
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// DotEnvExpander expands variables from .env files first, then the process environment.
type DotEnvExpander struct {
	Files []string
}

// Expand expands ${VAR} references. Missing .env files are ignored.
func (e *DotEnvExpander) Expand(data []byte) []byte {
	vars := map[string]string{}
	for _, f := range e.Files {
		m, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	expanded := os.Expand(string(data), func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
	return []byte(expanded)
}

// PluginLoader loads Plugin configurations
type PluginLoader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewPluginLoader creates a new PluginLoader with the given components
func NewPluginLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *PluginLoader {
	return &PluginLoader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// DefaultLoader returns a loader with env expansion, defaults and every validator.
func DefaultLoader(envFiles ...string) *PluginLoader {
	var expander VariableExpander = &EnvExpander{}
	if len(envFiles) > 0 {
		expander = &DotEnvExpander{Files: envFiles}
	}
	return NewPluginLoader(
		expander,
		&PluginDefaults{},
		&RequiredFieldValidator{},
		&EndpointValidator{},
		&RetryValidator{},
		&HTTPValidator{},
		&AuthValidator{},
	)
}

// Load a plugin config from a YAML file
func (l *PluginLoader) Load(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses a yaml config
func (l *PluginLoader) Parse(data []byte) (*Plugin, error) {
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var plugin Plugin
	if err := yaml.Unmarshal(data, &plugin); err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "failed to parse YAML")
	}

	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&plugin)
	}

	var result *multierror.Error
	for _, validator := range l.validators {
		for _, verr := range validator.Validate(&plugin) {
			result = multierror.Append(result, verr)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.WrapError(err, errors.ErrValidation, "invalid plugin config")
	}

	return &plugin, nil
}

// Save writes p as YAML to path
func Save(path string, p *Plugin) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// PluginDefaults implements DefaultValueSetter for Plugin
type PluginDefaults struct{}

// SetDefaults sets default values for Plugin
func (d *PluginDefaults) SetDefaults(p *Plugin) {
	if p.Manifest.Version == 0 {
		p.Manifest.Version = 1
	}
	if p.GraphQL.Path == "" {
		p.GraphQL.Path = DefaultGraphQLPath
	}
	if p.HTTP.TimeoutSeconds == 0 {
		p.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if p.Retry.Retries == nil {
		r := DefaultRetries
		p.Retry.Retries = &r
	}
	if p.Retry.DelayMS == nil {
		d := DefaultRetryDelayMS
		p.Retry.DelayMS = &d
	}
	// A single endpoint is selected implicitly
	if p.Endpoints.Selected == "" && len(p.Endpoints.URLs) == 1 {
		for name := range p.Endpoints.URLs {
			p.Endpoints.Selected = name
		}
	}
	if p.HTTP.RateLimit != nil && p.HTTP.RateLimit.Burst == 0 {
		p.HTTP.RateLimit.Burst = 1
	}
}

// RequiredFieldValidator validates required fields
type RequiredFieldValidator struct{}

// Validate checks that all required fields are present
func (v *RequiredFieldValidator) Validate(p *Plugin) []ValidationError {
	var errs []ValidationError

	if p.Manifest.ID == "" {
		errs = append(errs, ValidationError{Field: "manifest.id", Message: "is required"})
	}
	if p.Manifest.Name == "" {
		errs = append(errs, ValidationError{Field: "manifest.name", Message: "is required"})
	}
	if len(p.Endpoints.URLs) == 0 {
		errs = append(errs, ValidationError{Field: "endpoints.urls", Message: "at least one endpoint is required"})
	}

	return errs
}

// EndpointValidator checks the endpoint table
type EndpointValidator struct{}

// Validate checks that the selection exists and every URL is absolute
func (v *EndpointValidator) Validate(p *Plugin) []ValidationError {
	var errs []ValidationError

	if p.Endpoints.Selected != "" {
		if _, ok := p.Endpoints.URLs[p.Endpoints.Selected]; !ok {
			errs = append(errs, ValidationError{
				Field:   "endpoints.selected",
				Message: fmt.Sprintf("references undefined endpoint: %s", p.Endpoints.Selected),
			})
		}
	}

	for name, raw := range p.Endpoints.URLs {
		if !isAbsoluteHTTP(raw) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("endpoints.urls.%s", name),
				Message: "must be an absolute http(s) URL",
			})
		}
	}

	return errs
}

// RetryValidator checks the retry policy
type RetryValidator struct{}

// Validate checks retries and delay are non-negative
func (v *RetryValidator) Validate(p *Plugin) []ValidationError {
	var errs []ValidationError
	if p.Retry.Retries != nil && *p.Retry.Retries < 0 {
		errs = append(errs, ValidationError{Field: "retry.retries", Message: "must not be negative"})
	}
	if p.Retry.DelayMS != nil && *p.Retry.DelayMS < 0 {
		errs = append(errs, ValidationError{Field: "retry.delay_ms", Message: "must not be negative"})
	}
	return errs
}

// HTTPValidator checks transport settings
type HTTPValidator struct{}

// Validate checks timeout and rate limit values
func (v *HTTPValidator) Validate(p *Plugin) []ValidationError {
	var errs []ValidationError
	if p.HTTP.TimeoutSeconds < 0 {
		errs = append(errs, ValidationError{Field: "http.timeout_seconds", Message: "must not be negative"})
	}
	if rl := p.HTTP.RateLimit; rl != nil {
		if rl.RequestsPerSecond <= 0 {
			errs = append(errs, ValidationError{Field: "http.rate_limit.requests_per_second", Message: "must be positive"})
		}
		if rl.Burst < 0 {
			errs = append(errs, ValidationError{Field: "http.rate_limit.burst", Message: "must not be negative"})
		}
	}
	return errs
}

// AuthValidator handles authentication validation
type AuthValidator struct{}

// Validate checks that authentication configuration is valid
func (v *AuthValidator) Validate(p *Plugin) []ValidationError {
	var errs []ValidationError

	if p.Auth == nil {
		return errs
	}

	switch p.Auth.Type {
	case AuthTypeBasic:
		if p.Auth.Basic == nil {
			errs = append(errs, ValidationError{Field: "auth.basic", Message: "is required for basic auth"})
		} else if p.Auth.Basic.Username == "" {
			errs = append(errs, ValidationError{Field: "auth.basic.username", Message: "is required for basic auth"})
		}
	case AuthTypeAPIKey:
		if p.Auth.APIKey == nil {
			errs = append(errs, ValidationError{Field: "auth.api_key", Message: "is required for api_key auth"})
		} else {
			if p.Auth.APIKey.Value == "" {
				errs = append(errs, ValidationError{Field: "auth.api_key.value", Message: "is required for api_key auth"})
			}
			if p.Auth.APIKey.Header == "" && p.Auth.APIKey.QueryParam == "" {
				errs = append(errs, ValidationError{Field: "auth.api_key", Message: "either header or query_param must be specified for api_key auth"})
			}
		}
	case AuthTypeBearer:
		if p.Auth.Bearer == nil || p.Auth.Bearer.Token == "" {
			errs = append(errs, ValidationError{Field: "auth.bearer.token", Message: "is required for bearer auth"})
		}
	case AuthTypeOAuth2:
		if p.Auth.OAuth2 == nil {
			errs = append(errs, ValidationError{Field: "auth.oauth2", Message: "is required for oauth2 auth"})
		} else {
			if p.Auth.OAuth2.TokenURL == "" {
				errs = append(errs, ValidationError{Field: "auth.oauth2.token_url", Message: "is required for oauth2 auth"})
			}
			if p.Auth.OAuth2.ClientID == "" {
				errs = append(errs, ValidationError{Field: "auth.oauth2.client_id", Message: "is required for oauth2 auth"})
			}
			if p.Auth.OAuth2.ClientSecret == "" {
				errs = append(errs, ValidationError{Field: "auth.oauth2.client_secret", Message: "is required for oauth2 auth"})
			}
		}
	default:
		errs = append(errs, ValidationError{Field: "auth.type", Message: fmt.Sprintf("unknown auth type: %s", p.Auth.Type)})
	}

	return errs
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
