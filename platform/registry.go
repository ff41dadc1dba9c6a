// Package platform translates free-form video references into canonical
// resource keys through an ordered table of per-platform descriptors.
package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/internal/domain"
)

var tracer = otel.Tracer("platform")

const (
	defaultProbeTimeout = 3 * time.Second
	defaultCacheTTL     = 10 * time.Minute
)

// Descriptor recognizes, validates and constructs URLs for one video source.
// ExtractID(ConstructURL(id)) must return id for every well-formed id.
type Descriptor interface {
	Name() string
	ExtractID(rawURL string) (string, bool)
	ConstructURL(id string) string
	// IsValidReference may go to the network. An error means the check could
	// not be completed, not that the video is missing.
	IsValidReference(ctx context.Context, rawURL string) (bool, error)
}

// Query is the raw input of a resolution: either URL, or Platform with ID.
type Query struct {
	URL      string
	Platform string
	ID       string
}

// Registry resolves inputs against descriptors in registration order; the
// first registered descriptor that matches and validates wins. Register every
// descriptor before the registry is shared between goroutines.
type Registry struct {
	order        []Descriptor
	byName       map[string]Descriptor
	probeTimeout time.Duration
	positive     *cache.Cache
}

type Option func(*Registry)

// WithProbeTimeout bounds each existence check.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// WithCacheTTL sets how long a positive existence check is remembered.
// Negative results are never cached.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.positive = cache.New(d, d+5*time.Minute)
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName:       map[string]Descriptor{},
		probeTimeout: defaultProbeTimeout,
		positive:     cache.New(defaultCacheTTL, 15*time.Minute),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Register(d Descriptor) error {
	name := strings.ToLower(d.Name())
	if name == "" {
		return fmt.Errorf("platform: empty descriptor name")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("platform: name %q must not contain ':'", name)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("platform: %q already registered", name)
	}
	r.byName[name] = d
	r.order = append(r.order, d)
	return nil
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names lists platforms in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, d := range r.order {
		names = append(names, strings.ToLower(d.Name()))
	}
	return names
}

// URL returns the canonical watch URL for key, or "" for unknown platforms.
func (r *Registry) URL(key tubesage.ResourceKey) string {
	d, ok := r.Lookup(key.Platform)
	if !ok {
		return ""
	}
	return d.ConstructURL(key.VideoID)
}

// Resolve validates that exactly one input form is present, then resolves it.
// The parameter check happens before any network I/O.
func (r *Registry) Resolve(ctx context.Context, q Query) (tubesage.ResourceKey, error) {
	rawURL := strings.TrimSpace(q.URL)
	platform := strings.TrimSpace(q.Platform)
	id := strings.TrimSpace(q.ID)

	if rawURL != "" && (platform != "" || id != "") {
		return tubesage.ResourceKey{}, domain.NewInputError(domain.CodeInvalidParams, "")
	}
	if rawURL == "" && (platform == "" || id == "") {
		return tubesage.ResourceKey{}, domain.NewInputError(domain.CodeInvalidParams, "")
	}

	if rawURL != "" {
		return r.ResolveFromURL(ctx, rawURL)
	}
	return r.ResolveFromPair(ctx, platform, id)
}

func (r *Registry) ResolveFromURL(ctx context.Context, rawURL string) (tubesage.ResourceKey, error) {
	ctx, span := tracer.Start(ctx, "Platform.Registry.ResolveFromURL")
	defer span.End()

	var probeErr error
	for _, d := range r.order {
		id, ok := d.ExtractID(rawURL)
		if !ok {
			continue
		}

		valid, err := r.exists(ctx, d, id)
		if err != nil {
			span.RecordError(err)
			probeErr = err
			continue
		}
		if !valid {
			continue
		}

		name := strings.ToLower(d.Name())
		span.SetAttributes(attribute.String("platform", name), attribute.String("videoId", id))
		return tubesage.ResourceKey{Platform: name, VideoID: id}, nil
	}

	if probeErr != nil {
		return tubesage.ResourceKey{}, probeErr
	}
	return tubesage.ResourceKey{}, domain.NewResolutionError(domain.CodeUnsupportedURL)
}

func (r *Registry) ResolveFromPair(ctx context.Context, platform, id string) (tubesage.ResourceKey, error) {
	ctx, span := tracer.Start(ctx, "Platform.Registry.ResolveFromPair")
	defer span.End()

	d, ok := r.Lookup(platform)
	if !ok {
		return tubesage.ResourceKey{}, domain.NewResolutionError(domain.CodeInvalidPlatform)
	}

	if extracted, ok := d.ExtractID(d.ConstructURL(id)); !ok || extracted != id {
		return tubesage.ResourceKey{}, domain.NewResolutionError(domain.CodeInvalidVideoID)
	}

	valid, err := r.exists(ctx, d, id)
	if err != nil {
		span.RecordError(err)
		return tubesage.ResourceKey{}, err
	}
	if !valid {
		return tubesage.ResourceKey{}, domain.NewResolutionError(domain.CodeInvalidPlatformVideo)
	}

	return tubesage.ResourceKey{Platform: strings.ToLower(d.Name()), VideoID: id}, nil
}

func (r *Registry) exists(ctx context.Context, d Descriptor, id string) (bool, error) {
	name := strings.ToLower(d.Name())
	cacheKey := tubesage.ComposeKey(name, id)
	if _, found := r.positive.Get(cacheKey); found {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	valid, err := d.IsValidReference(ctx, d.ConstructURL(id))
	if err != nil {
		return false, &domain.ProbeError{Platform: name, Err: err}
	}
	if valid {
		r.positive.Set(cacheKey, true, cache.DefaultExpiration)
	}
	return valid, nil
}
