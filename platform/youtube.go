package platform

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

const youtubeOEmbed = "https://www.youtube.com/oembed"

var youtubePattern = regexp.MustCompile(
	`(?i)^(?:https?://)?(?:www\.|m\.|music\.)?` +
		`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|v/|e/|shorts/|live/)|youtube-nocookie\.com/embed/|youtu\.be/)` +
		`([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

type YouTube struct {
	prober *OEmbedProber
}

// NewYouTube builds the YouTube descriptor. An empty endpoint uses the public
// oEmbed service.
func NewYouTube(client *http.Client, endpoint string) *YouTube {
	if endpoint == "" {
		endpoint = youtubeOEmbed
	}
	return &YouTube{prober: NewOEmbedProber(client, endpoint)}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) ExtractID(rawURL string) (string, bool) {
	m := youtubePattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (y *YouTube) ConstructURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func (y *YouTube) IsValidReference(ctx context.Context, rawURL string) (bool, error) {
	if _, ok := y.ExtractID(rawURL); !ok {
		return false, nil
	}
	return y.prober.Probe(ctx, rawURL)
}
