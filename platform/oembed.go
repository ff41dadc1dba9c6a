package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// OEmbedProber checks existence through a provider's oEmbed endpoint.
type OEmbedProber struct {
	client   *http.Client
	endpoint string
}

func NewOEmbedProber(client *http.Client, endpoint string) *OEmbedProber {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &OEmbedProber{client: client, endpoint: endpoint}
}

// Probe reports true on 200 and false on the statuses providers use for
// private, removed or unknown videos. Anything else is an error.
func (p *OEmbedProber) Probe(ctx context.Context, videoURL string) (bool, error) {
	target := p.endpoint + "?format=json&url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
