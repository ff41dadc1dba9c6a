package platform

import (
	"net/http"
)

// NewDefault returns a registry with every built-in platform, YouTube first.
func NewDefault(client *http.Client, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	for _, d := range []Descriptor{
		NewYouTube(client, ""),
		NewVimeo(client, ""),
	} {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}
