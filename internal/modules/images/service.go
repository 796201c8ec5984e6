// README: Destination image service; cache first, then each source in order.
package images

import (
	"context"
	"io"

	"go.uber.org/zap"

	"voyage/internal/observability"
)

type ServiceDeps struct {
	// Sources are tried in order; StaticSource is appended when absent.
	Sources []Source
	Cache   Cache
	// Places serves the photo proxy; nil disables it.
	Places  *PlacesSource
	Logger  *zap.Logger
	Metrics *observability.Collector
}

type Service struct {
	sources []Source
	cache   Cache
	places  *PlacesSource
	logger  *zap.Logger
	metrics *observability.Collector
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sources := append([]Source(nil), deps.Sources...)
	hasStatic := false
	for _, s := range sources {
		if _, ok := s.(StaticSource); ok {
			hasStatic = true
		}
	}
	if !hasStatic {
		sources = append(sources, StaticSource{})
	}
	return &Service{
		sources: sources,
		cache:   deps.Cache,
		places:  deps.Places,
		logger:  logger.Named("images"),
		metrics: deps.Metrics,
	}
}

// Lookup returns between 1 and q.Count image URLs for a destination.
func (s *Service) Lookup(ctx context.Context, q Query) ([]string, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	key := q.cacheKey()
	if s.cache != nil {
		if urls, ok := s.cache.Get(ctx, key); ok && len(urls) > 0 {
			s.metrics.ObserveCacheLookup(true)
			return urls, nil
		}
		s.metrics.ObserveCacheLookup(false)
	}

	for _, src := range s.sources {
		urls, err := src.Search(ctx, q)
		if err != nil {
			s.logger.Warn("image source failed", zap.String("source", src.Name()), zap.String("destination", q.Destination), zap.Error(err))
			continue
		}
		if len(urls) == 0 {
			continue
		}
		if len(urls) > q.Count {
			urls = urls[:q.Count]
		}
		// placeholders are not cached so a recovered provider is used on the next lookup
		if _, static := src.(StaticSource); !static && s.cache != nil {
			s.cache.Set(ctx, key, urls)
		}
		return urls, nil
	}
	// unreachable while StaticSource is last
	return nil, ErrNotFound
}

// PlacePhoto proxies a Google Places photo reference.
func (s *Service) PlacePhoto(ctx context.Context, ref string) (string, io.ReadCloser, error) {
	if s.places == nil {
		return "", nil, ErrNotConfigured
	}
	if ref == "" {
		return "", nil, ErrBadRequest
	}
	return s.places.Photo(ctx, ref)
}
