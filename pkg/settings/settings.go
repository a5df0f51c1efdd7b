package settings

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

// BaseURLResolver returns the currently selected endpoint, or "" when none is configured.
type BaseURLResolver interface {
	BaseURL() string
}

// Static resolves to a fixed base URL.
type Static string

func (s Static) BaseURL() string { return string(s) }

// ResolverFunc adapts a function into a BaseURLResolver.
type ResolverFunc func() string

func (f ResolverFunc) BaseURL() string { return f() }

// PluginResolver resolves the base URL from a plugin config's endpoint table.
// The selection can be switched at runtime.
type PluginResolver struct {
	mu       sync.RWMutex
	urls     map[string]string
	selected string
}

// NewPluginResolver snapshots the endpoints of p.
func NewPluginResolver(p *config.Plugin) *PluginResolver {
	r := &PluginResolver{urls: make(map[string]string)}
	if p == nil {
		return r
	}
	for name, u := range p.Endpoints.URLs {
		r.urls[name] = u
	}
	r.selected = p.Endpoints.Selected
	return r
}

// BaseURL returns the selected endpoint URL.
func (r *PluginResolver) BaseURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.urls[r.selected]
}

// Selected returns the name of the selected endpoint.
func (r *PluginResolver) Selected() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// Select switches the active endpoint.
func (r *PluginResolver) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.urls[name]; !ok {
		return errors.Config(fmt.Sprintf("unknown endpoint %q", name))
	}
	r.selected = name
	return nil
}

// Resolve turns endpoint into a request URL. Absolute URLs pass through
// unchanged; anything else is joined to the resolver's base URL.
func Resolve(r BaseURLResolver, endpoint string) (string, error) {
	if IsAbsolute(endpoint) {
		return endpoint, nil
	}
	base := ""
	if r != nil {
		base = r.BaseURL()
	}
	if base == "" {
		return "", errors.Config("base URL is not configured")
	}
	return Join(base, endpoint), nil
}

// Join joins a base URL and a relative path with exactly one slash between them.
func Join(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "?") {
		return strings.TrimRight(base, "/") + path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsAbsolute reports whether raw carries a scheme and host.
func IsAbsolute(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
