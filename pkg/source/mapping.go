package source

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/core"
	"github.com/saturnines/nexus-source/pkg/settings"
	"github.com/saturnines/nexus-source/pkg/transform"
)

var transforms = transform.NewRegistry()

var (
	asString   = transforms.Must("string", nil)
	asInt      = transforms.Must("int", nil)
	asBool     = transforms.Must("bool", nil)
	asUnix     = transforms.Must("unix", nil)
	asDuration = transforms.Must("duration", nil)
)

var authorFields = []core.Field{
	{Name: "author_id", Path: "id", Transform: asString},
	{Name: "author_slug", Path: "slug", Default: ""},
	{Name: "author_name", Path: "displayName", Default: ""},
	{Name: "author_avatar", Path: "avatarUrl", Default: ""},
	{Name: "author_followers", Path: "followerCount", Transform: asInt, Default: 0},
}

var videoMapper = &core.Mapper{Fields: append([]core.Field{
	{Name: "id", Path: "id", Transform: asString},
	{Name: "title", Path: "title", Default: ""},
	{Name: "thumbnail", Path: "thumbnailUrl", Default: ""},
	{Name: "duration", Path: "duration", Transform: asDuration, Default: 0},
	{Name: "views", Path: "viewCount", Transform: asInt, Default: 0},
	{Name: "published", Path: "publishedAt", Transform: asUnix, Default: int64(0)},
	{Name: "live", Path: "isLive", Transform: asBool, Default: false},
	{Name: "description", Path: "description", Default: ""},
	{Name: "likes", Path: "likeCount", Transform: asInt, Default: 0},
	{Name: "stream", Path: "streamUrl", Default: ""},
}, prefixed("channel.", authorFields)...)}

var channelMapper = &core.Mapper{Fields: append([]core.Field{
	{Name: "banner", Path: "bannerUrl", Default: ""},
	{Name: "description", Path: "description", Default: ""},
}, authorFields...)}

var commentMapper = &core.Mapper{Fields: append([]core.Field{
	{Name: "body", Path: "body", Default: ""},
	{Name: "created", Path: "createdAt", Transform: asUnix, Default: int64(0)},
	{Name: "likes", Path: "likeCount", Transform: asInt, Default: 0},
	{Name: "replies", Path: "replyCount", Transform: asInt, Default: 0},
}, prefixed("author.", authorFields)...)}

func prefixed(prefix string, fields []core.Field) []core.Field {
	out := make([]core.Field, len(fields))
	for i, f := range fields {
		f.Path = prefix + f.Path
		out[i] = f
	}
	return out
}

// mapper turns GraphQL nodes into model values
type mapper struct {
	platform string
	pluginID string
	base     settings.BaseURLResolver
	logger   *zap.Logger
}

func (m *mapper) id(value string) PlatformID {
	return PlatformID{Platform: m.platform, Value: value, PluginID: m.pluginID}
}

func (m *mapper) link(path string) string {
	u, err := settings.Resolve(m.base, path)
	if err != nil {
		return path
	}
	return u
}

func (m *mapper) videoURL(id string) string     { return m.link("/v/" + url.PathEscape(id)) }
func (m *mapper) channelURL(slug string) string { return m.link("/c/" + url.PathEscape(slug)) }

func (m *mapper) author(fields map[string]any) Author {
	slug := str(fields["author_slug"])
	a := Author{
		ID:          m.id(str(fields["author_id"])),
		Name:        str(fields["author_name"]),
		Thumbnail:   str(fields["author_avatar"]),
		Subscribers: int64(num(fields["author_followers"])),
	}
	if slug != "" {
		a.URL = m.channelURL(slug)
	}
	return a
}

func (m *mapper) details(node any) (VideoDetails, bool) {
	fields, err := videoMapper.Map(node)
	if err != nil {
		m.logger.Warn("skipping video", zap.Error(err))
		return VideoDetails{}, false
	}
	id := str(fields["id"])
	if id == "" {
		return VideoDetails{}, false
	}

	v := Video{
		ID:         m.id(id),
		Name:       str(fields["title"]),
		Author:     m.author(fields),
		UploadDate: int64(num(fields["published"])),
		Duration:   num(fields["duration"]),
		ViewCount:  int64(num(fields["views"])),
		URL:        m.videoURL(id),
		IsLive:     fields["live"] == true,
	}
	if thumb := str(fields["thumbnail"]); thumb != "" {
		v.Thumbnails = []Thumbnail{{URL: thumb}}
	}
	return VideoDetails{
		Video:       v,
		Description: str(fields["description"]),
		Rating:      int64(num(fields["likes"])),
		StreamURL:   str(fields["stream"]),
	}, true
}

func (m *mapper) video(edge any) (Video, bool) {
	d, ok := m.details(node(edge))
	return d.Video, ok
}

func (m *mapper) channel(edge any) (Channel, bool) {
	fields, err := channelMapper.Map(node(edge))
	if err != nil {
		m.logger.Warn("skipping channel", zap.Error(err))
		return Channel{}, false
	}
	a := m.author(fields)
	if a.ID.Value == "" {
		return Channel{}, false
	}
	return Channel{
		ID:          a.ID,
		Name:        a.Name,
		Thumbnail:   a.Thumbnail,
		Banner:      str(fields["banner"]),
		Subscribers: a.Subscribers,
		Description: str(fields["description"]),
		URL:         a.URL,
	}, true
}

func (m *mapper) comment(contextURL string) func(edge any) (Comment, bool) {
	return func(edge any) (Comment, bool) {
		fields, err := commentMapper.Map(node(edge))
		if err != nil {
			m.logger.Warn("skipping comment", zap.Error(err))
			return Comment{}, false
		}
		return Comment{
			ContextURL: contextURL,
			Author:     m.author(fields),
			Message:    strings.TrimSpace(str(fields["body"])),
			Rating:     int64(num(fields["likes"])),
			Date:       int64(num(fields["created"])),
			ReplyCount: num(fields["replies"]),
		}, true
	}
}

// node unwraps a connection edge. Plain nodes pass through.
func node(edge any) any {
	if n, ok := core.ExtractField(edge, "node"); ok {
		return n
	}
	return edge
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

// channelPage reads the Open Graph tags and the header markup of a channel page
func (m *mapper) channelPage(slug string, doc *goquery.Document) *Channel {
	meta := func(property string) string {
		v, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
		return strings.TrimSpace(v)
	}

	ch := &Channel{
		ID:          m.id(slug),
		Name:        meta("og:title"),
		Thumbnail:   meta("og:image"),
		Description: meta("og:description"),
		URL:         m.channelURL(slug),
		Links:       make(map[string]string),
	}
	if id, ok := doc.Find("[data-channel-id]").First().Attr("data-channel-id"); ok && id != "" {
		ch.ID = m.id(id)
	}
	if ch.Name == "" {
		ch.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if src, ok := doc.Find(".channel-banner img").First().Attr("src"); ok {
		ch.Banner = src
	}
	if raw, ok := doc.Find("[data-follower-count]").First().Attr("data-follower-count"); ok {
		if n, err := asInt.Transform(raw); err == nil {
			ch.Subscribers = int64(num(n))
		}
	}
	doc.Find("a.channel-link").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		name := strings.TrimSpace(s.Text())
		if ok && name != "" {
			ch.Links[name] = href
		}
	})
	return ch
}
