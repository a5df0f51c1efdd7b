package source

// PlatformID identifies an object on the platform. PluginID ties it back to the plugin manifest.
type PlatformID struct {
	Platform string
	Value    string
	PluginID string
}

// Thumbnail is one rendition of a preview image
type Thumbnail struct {
	URL     string
	Quality int // pixel height, 0 when unknown
}

// Author is the channel a video or comment belongs to
type Author struct {
	ID          PlatformID
	Name        string
	URL         string
	Thumbnail   string
	Subscribers int64
}

// Video is a feed entry. Dates are Unix seconds.
type Video struct {
	ID         PlatformID
	Name       string
	Thumbnails []Thumbnail
	Author     Author
	UploadDate int64
	Duration   int // seconds
	ViewCount  int64
	URL        string
	IsLive     bool
}

// VideoDetails is a Video with the fields only the details page carries
type VideoDetails struct {
	Video
	Description string
	Rating      int64 // likes
	StreamURL   string
}

type Channel struct {
	ID          PlatformID
	Name        string
	Thumbnail   string
	Banner      string
	Subscribers int64
	Description string
	URL         string
	Links       map[string]string
}

type Comment struct {
	ContextURL string // the video the comment was made on
	Author     Author
	Message    string
	Rating     int64
	Date       int64
	ReplyCount int
}
