package platform

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

const vimeoOEmbed = "https://vimeo.com/api/oembed.json"

var vimeoPattern = regexp.MustCompile(
	`(?i)^(?:https?://)?(?:www\.|player\.)?vimeo\.com/` +
		`(?:video/|channels/[^/]+/|groups/[^/]+/videos/)?` +
		`([0-9]{6,12})(?:[^0-9]|$)`,
)

type Vimeo struct {
	prober *OEmbedProber
}

func NewVimeo(client *http.Client, endpoint string) *Vimeo {
	if endpoint == "" {
		endpoint = vimeoOEmbed
	}
	return &Vimeo{prober: NewOEmbedProber(client, endpoint)}
}

func (v *Vimeo) Name() string { return "vimeo" }

func (v *Vimeo) ExtractID(rawURL string) (string, bool) {
	m := vimeoPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (v *Vimeo) ConstructURL(id string) string {
	return "https://vimeo.com/" + id
}

func (v *Vimeo) IsValidReference(ctx context.Context, rawURL string) (bool, error) {
	if _, ok := v.ExtractID(rawURL); !ok {
		return false, nil
	}
	return v.prober.Probe(ctx, rawURL)
}
