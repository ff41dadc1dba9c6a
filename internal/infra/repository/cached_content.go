package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/tubesage"
)

// contentStore is the subset of ContentRepository the cache wraps.
type contentStore interface {
	Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error)
	Create(ctx context.Context, key tubesage.ResourceKey, content tubesage.Content) (tubesage.Content, error)
}

// CachedContentRepository fronts a content store with memcached. Stored
// contents never change, so entries are only ever added.
type CachedContentRepository struct {
	inner contentStore
	mc    *memcache.Client
	ttl   int32
}

func NewCachedContentRepository(inner contentStore, mc *memcache.Client, ttlSeconds int32) *CachedContentRepository {
	return &CachedContentRepository{inner: inner, mc: mc, ttl: ttlSeconds}
}

func contentCacheKey(key tubesage.ResourceKey, kind tubesage.ContentKind) string {
	h := xxh3.HashString(key.String() + "#" + string(kind))
	return "content:" + strconv.FormatUint(h, 16)
}

func (r *CachedContentRepository) Get(ctx context.Context, key tubesage.ResourceKey, kind tubesage.ContentKind) (tubesage.Content, error) {
	ctx, span := tracer.Start(ctx, "Repository.CachedContent.Get")
	defer span.End()

	cacheKey := contentCacheKey(key, kind)
	item, err := r.mc.Get(cacheKey)
	if err == nil {
		var content tubesage.Content
		if err := json.Unmarshal(item.Value, &content); err == nil && content.Kind == kind {
			return content, nil
		}
	} else if err != memcache.ErrCacheMiss {
		// memcached is best effort; fall through to the store
		span.RecordError(err)
	}

	content, err := r.inner.Get(ctx, key, kind)
	if err != nil {
		return tubesage.Content{}, err
	}
	r.store(cacheKey, content)
	return content, nil
}

func (r *CachedContentRepository) Create(ctx context.Context, key tubesage.ResourceKey, content tubesage.Content) (tubesage.Content, error) {
	ctx, span := tracer.Start(ctx, "Repository.CachedContent.Create")
	defer span.End()

	created, err := r.inner.Create(ctx, key, content)
	if err != nil {
		return tubesage.Content{}, err
	}
	r.store(contentCacheKey(key, created.Kind), created)
	return created, nil
}

func (r *CachedContentRepository) store(cacheKey string, content tubesage.Content) {
	value, err := json.Marshal(content)
	if err != nil {
		return
	}
	r.mc.Set(&memcache.Item{Key: cacheKey, Value: value, Expiration: r.ttl})
}
