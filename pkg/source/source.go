// Package source implements the content-source plugin surface for a GraphQL
// video platform: feeds, search, channels, video details and comments.
package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/auth"
	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/core"
	"github.com/saturnines/nexus-source/pkg/errors"
	"github.com/saturnines/nexus-source/pkg/logging"
	"github.com/saturnines/nexus-source/pkg/pagination"
	"github.com/saturnines/nexus-source/pkg/settings"
	"github.com/saturnines/nexus-source/pkg/transport"
	"github.com/saturnines/nexus-source/pkg/transport/graphql"
	"github.com/saturnines/nexus-source/pkg/transport/rest"
)

// ErrNotEnabled is returned by every call made before Enable or after Disable
var ErrNotEnabled = errors.Config("source is not enabled")

// Source is the method contract the host drives
type Source interface {
	Enable(ctx context.Context, cfg *config.Plugin) error
	Disable()

	GetHome(ctx context.Context) (pagination.Pager[Video], error)
	Search(ctx context.Context, query string) (pagination.Pager[Video], error)
	SearchChannels(ctx context.Context, query string) (pagination.Pager[Channel], error)

	IsChannelURL(u string) bool
	GetChannel(ctx context.Context, channelURL string) (*Channel, error)
	GetChannelContents(ctx context.Context, channelURL string) (pagination.Pager[Video], error)

	IsContentDetailsURL(u string) bool
	GetContentDetails(ctx context.Context, contentURL string) (*VideoDetails, error)
	GetComments(ctx context.Context, contentURL string) (pagination.Pager[Comment], error)
}

var _ Source = (*Platform)(nil)

// Option configures a Platform
type Option func(*Platform)

// WithTransport replaces the HTTP transport built from the config
func WithTransport(t transport.Transport) Option {
	return func(p *Platform) { p.transport = t }
}

// WithLogger sets the logger. Otherwise one is built from the config's logging section.
func WithLogger(l *zap.Logger) Option {
	return func(p *Platform) { p.logger = l }
}

// WithAuthState authenticates requests with a user session instead of the
// config's auth section. An expired state is refreshed on Enable when r is set.
func WithAuthState(s auth.State, r auth.Refresher) Option {
	return func(p *Platform) {
		p.state = s
		p.refresher = r
	}
}

// Platform is a Source backed by the platform's GraphQL API and public HTML pages
type Platform struct {
	transport transport.Transport
	logger    *zap.Logger
	state     auth.State
	refresher auth.Refresher

	mu       sync.RWMutex
	enabled  bool
	resolver *settings.PluginResolver
	api      *core.Client
	gql      *graphql.Client
	m        *mapper
}

// New creates a disabled Platform
func New(opts ...Option) *Platform {
	p := &Platform{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enable wires the HTTP stack from cfg. Calling it again replaces the previous wiring.
func (p *Platform) Enable(ctx context.Context, cfg *config.Plugin) error {
	if cfg == nil {
		return errors.Config("plugin config is required")
	}

	logger := p.logger
	if logger == nil {
		l, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
		if err != nil {
			return errors.WrapError(err, errors.ErrConfiguration, "create logger")
		}
		logger = l
	}
	logger = logger.With(zap.String("source", cfg.Manifest.Name))

	useAuth := cfg.Auth != nil
	t := p.transport
	if t == nil {
		opts := []rest.Option{rest.WithLogger(logger)}
		if p.state.Token != "" || p.refresher != nil {
			state, err := p.session(ctx)
			if err != nil {
				return err
			}
			opts = append(opts, rest.WithAuthHandler(auth.NewStateAuth(state)))
			useAuth = true
		}
		ht, err := rest.NewFromConfig(cfg, nil, opts...)
		if err != nil {
			return err
		}
		t = ht
	}

	resolver := settings.NewPluginResolver(cfg)
	retries, delay := cfg.RetryPolicy()
	exec := core.NewExecutor(t,
		core.WithDefaultHeaders(cfg.DefaultHeaders()),
		core.WithLogger(logger),
	)
	api := core.NewClient(exec,
		core.WithBaseURL(resolver),
		core.WithRetryPolicy(retries, delay),
		core.WithAuthByDefault(useAuth),
	)
	gql := graphql.NewClient(api,
		graphql.WithEndpoint(cfg.GraphQL.Path),
		graphql.WithLogger(logger),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
	p.resolver = resolver
	p.api = api
	p.gql = gql
	p.m = &mapper{
		platform: cfg.Manifest.Name,
		pluginID: cfg.Manifest.ID,
		base:     resolver,
		logger:   logger,
	}
	logger.Info("source enabled", zap.String("endpoint", resolver.Selected()))
	return nil
}

func (p *Platform) session(ctx context.Context) (auth.State, error) {
	if p.state.Valid(time.Now()) || p.refresher == nil {
		return p.state, nil
	}
	state, err := p.state.Refresh(ctx, p.refresher)
	if err != nil {
		return state, errors.WrapError(err, errors.ErrAuthentication, "refresh session")
	}
	p.state = state
	return state, nil
}

// Disable drops the HTTP stack and the session
func (p *Platform) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
	p.api = nil
	p.gql = nil
	p.resolver = nil
	p.m = nil
	p.state = p.state.Clear()
}

// AuthState returns the current session
func (p *Platform) AuthState() auth.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SelectEndpoint switches the base URL to another configured endpoint
func (p *Platform) SelectEndpoint(name string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return ErrNotEnabled
	}
	return p.resolver.Select(name)
}

func (p *Platform) clients() (*core.Client, *graphql.Client, *mapper, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return nil, nil, nil, ErrNotEnabled
	}
	return p.api, p.gql, p.m, nil
}

func (p *Platform) GetHome(ctx context.Context) (pagination.Pager[Video], error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	return pager(graphql.NewCursorPager(ctx, gql, videoConnection(opHomeFeed, nil, "feed", m)))
}

// Search returns an empty pager for a blank query
func (p *Platform) Search(ctx context.Context, query string) (pagination.Pager[Video], error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return pagination.Empty[Video](), nil
	}
	vars := map[string]any{"query": query}
	return pager(graphql.NewCursorPager(ctx, gql, videoConnection(opSearchVideos, vars, "searchVideos", m)))
}

func (p *Platform) SearchChannels(ctx context.Context, query string) (pagination.Pager[Channel], error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return pagination.Empty[Channel](), nil
	}
	return pager(graphql.NewCursorPager(ctx, gql, graphql.Connection[Channel]{
		Query:           opSearchChannels.query(map[string]any{"query": query, "first": pageSize}),
		ItemsPath:       "searchChannels.edges",
		EndCursorPath:   "searchChannels.pageInfo.endCursor",
		HasNextPagePath: "searchChannels.pageInfo.hasNextPage",
		MapItem:         m.channel,
	}))
}

func (p *Platform) IsChannelURL(u string) bool {
	_, ok := p.channelSlug(u)
	return ok
}

// GetChannel scrapes the channel's public page
func (p *Platform) GetChannel(ctx context.Context, channelURL string) (*Channel, error) {
	api, _, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	slug, ok := p.channelSlug(channelURL)
	if !ok {
		return nil, errors.WrapError(fmt.Errorf("%q", channelURL), errors.ErrValidation, "not a channel URL")
	}

	res, err := api.GetHTML(ctx, m.channelURL(slug))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Document == nil {
		return nil, errors.API(m.channelURL(slug), "empty channel page")
	}
	return m.channelPage(slug, res.Document), nil
}

func (p *Platform) GetChannelContents(ctx context.Context, channelURL string) (pagination.Pager[Video], error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	slug, ok := p.channelSlug(channelURL)
	if !ok {
		return nil, errors.WrapError(fmt.Errorf("%q", channelURL), errors.ErrValidation, "not a channel URL")
	}
	vars := map[string]any{"slug": slug}
	return pager(graphql.NewCursorPager(ctx, gql, videoConnection(opChannelVideos, vars, "channel.videos", m)))
}

func (p *Platform) IsContentDetailsURL(u string) bool {
	_, ok := p.videoID(u)
	return ok
}

func (p *Platform) GetContentDetails(ctx context.Context, contentURL string) (*VideoDetails, error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	id, ok := p.videoID(contentURL)
	if !ok {
		return nil, errors.WrapError(fmt.Errorf("%q", contentURL), errors.ErrValidation, "not a video URL")
	}

	data, err := gql.Persisted(ctx, opVideo.query(map[string]any{"id": id}))
	if err != nil {
		return nil, err
	}
	node, ok := core.ExtractField(data, "video")
	if !ok || node == nil {
		return nil, errors.API(contentURL, "video not found")
	}
	details, ok := m.details(node)
	if !ok {
		return nil, errors.API(contentURL, "video has no id")
	}
	return &details, nil
}

func (p *Platform) GetComments(ctx context.Context, contentURL string) (pagination.Pager[Comment], error) {
	_, gql, m, err := p.clients()
	if err != nil {
		return nil, err
	}
	id, ok := p.videoID(contentURL)
	if !ok {
		return nil, errors.WrapError(fmt.Errorf("%q", contentURL), errors.ErrValidation, "not a video URL")
	}
	return pager(graphql.NewCursorPager(ctx, gql, graphql.Connection[Comment]{
		Query:           opComments.query(map[string]any{"id": id, "first": pageSize}),
		ItemsPath:       "video.comments.edges",
		EndCursorPath:   "video.comments.pageInfo.endCursor",
		HasNextPagePath: "video.comments.pageInfo.hasNextPage",
		MapItem:         m.comment(m.videoURL(id)),
	}))
}

func videoConnection(op operation, vars map[string]any, root string, m *mapper) graphql.Connection[Video] {
	all := map[string]any{"first": pageSize}
	for k, v := range vars {
		all[k] = v
	}
	return graphql.Connection[Video]{
		Query:           op.query(all),
		ItemsPath:       root + ".edges",
		EndCursorPath:   root + ".pageInfo.endCursor",
		HasNextPagePath: root + ".pageInfo.hasNextPage",
		MapItem:         m.video,
	}
}

// sameSite parses raw and reports whether it points at the selected endpoint's host
func (p *Platform) sameSite(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, false
	}

	p.mu.RLock()
	resolver := p.resolver
	p.mu.RUnlock()
	if resolver == nil {
		return nil, false
	}
	base, err := url.Parse(resolver.BaseURL())
	if err != nil {
		return nil, false
	}
	return u, strings.TrimPrefix(u.Host, "www.") == strings.TrimPrefix(base.Host, "www.")
}

// channelSlug accepts /c/<slug> and /@<slug>
func (p *Platform) channelSlug(raw string) (string, bool) {
	u, ok := p.sameSite(raw)
	if !ok {
		return "", false
	}
	segs := pathSegments(u.Path)
	switch {
	case len(segs) == 2 && segs[0] == "c":
		return segs[1], true
	case len(segs) == 1 && strings.HasPrefix(segs[0], "@") && len(segs[0]) > 1:
		return segs[0][1:], true
	}
	return "", false
}

// videoID accepts /v/<id> and /watch?v=<id>
func (p *Platform) videoID(raw string) (string, bool) {
	u, ok := p.sameSite(raw)
	if !ok {
		return "", false
	}
	segs := pathSegments(u.Path)
	switch {
	case len(segs) == 2 && segs[0] == "v":
		return segs[1], true
	case len(segs) == 1 && segs[0] == "watch":
		id := u.Query().Get("v")
		return id, id != ""
	}
	return "", false
}

func pathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// pager keeps a failed first fetch from leaking a typed nil into the interface
func pager[T any](p *pagination.CursorPager[T], err error) (pagination.Pager[T], error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
