package source

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/saturnines/nexus-source/pkg/transport/graphql"
)

// operation is a persisted query known to the platform by the hash of its document
type operation struct {
	Name     string
	Document string
	Hash     string
}

func persisted(name, document string) operation {
	sum := sha256.Sum256([]byte(document))
	return operation{Name: name, Document: document, Hash: hex.EncodeToString(sum[:])}
}

func (o operation) query(vars map[string]any) graphql.PersistedQuery {
	return graphql.PersistedQuery{
		OperationName: o.Name,
		SHA256Hash:    o.Hash,
		Variables:     vars,
		Document:      o.Document,
	}
}

const pageSize = 20

const videoFragment = `fragment VideoFields on Video {
  id title thumbnailUrl duration viewCount publishedAt isLive
  channel { id slug displayName avatarUrl followerCount }
}`

const channelFragment = `fragment ChannelFields on Channel {
  id slug displayName avatarUrl bannerUrl followerCount description
}`

var (
	opHomeFeed = persisted("HomeFeed", `query HomeFeed($first: Int!, $cursor: String) {
  feed(first: $first, after: $cursor) {
    edges { node { ...VideoFields } }
    pageInfo { endCursor hasNextPage }
  }
}
`+videoFragment)

	opSearchVideos = persisted("SearchVideos", `query SearchVideos($query: String!, $first: Int!, $cursor: String) {
  searchVideos(query: $query, first: $first, after: $cursor) {
    edges { node { ...VideoFields } }
    pageInfo { endCursor hasNextPage }
  }
}
`+videoFragment)

	opSearchChannels = persisted("SearchChannels", `query SearchChannels($query: String!, $first: Int!, $cursor: String) {
  searchChannels(query: $query, first: $first, after: $cursor) {
    edges { node { ...ChannelFields } }
    pageInfo { endCursor hasNextPage }
  }
}
`+channelFragment)

	opChannelVideos = persisted("ChannelVideos", `query ChannelVideos($slug: String!, $first: Int!, $cursor: String) {
  channel(slug: $slug) {
    videos(first: $first, after: $cursor) {
      edges { node { ...VideoFields } }
      pageInfo { endCursor hasNextPage }
    }
  }
}
`+videoFragment)

	opVideo = persisted("Video", `query Video($id: ID!) {
  video(id: $id) { ...VideoFields description likeCount streamUrl }
}
`+videoFragment)

	opComments = persisted("VideoComments", `query VideoComments($id: ID!, $first: Int!, $cursor: String) {
  video(id: $id) {
    comments(first: $first, after: $cursor) {
      edges { node {
        id body createdAt likeCount replyCount
        author { id slug displayName avatarUrl }
      } }
      pageInfo { endCursor hasNextPage }
    }
  }
}`)
)
