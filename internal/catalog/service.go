package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	vehiclesKey = "catalog:vehicles"
	dealersKey  = "catalog:dealers"
)

// Service serves reference data for forms and filters, hiding vehicles
// marked unavailable and dealers marked inactive. Reads go through a
// shared redis cache when one is configured; every cache failure
// degrades to a direct backend read.
type Service struct {
	api    API
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewService builds the catalog service. rdb may be nil, which disables
// caching entirely.
func NewService(api API, rdb *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Service {
	return &Service{api: api, rdb: rdb, ttl: ttl, logger: logger}
}

func (s *Service) Vehicles(ctx context.Context, token string) ([]Vehicle, error) {
	if cached, ok := getCached[[]Vehicle](ctx, s, vehiclesKey); ok {
		return cached, nil
	}

	all, err := s.api.Vehicles(ctx, token)
	if err != nil {
		return nil, err
	}

	vehicles := make([]Vehicle, 0, len(all))
	for _, v := range all {
		if v.IsAvailable {
			vehicles = append(vehicles, v)
		}
	}

	s.setCached(ctx, vehiclesKey, vehicles)
	return vehicles, nil
}

func (s *Service) Dealers(ctx context.Context, token string) ([]Dealer, error) {
	if cached, ok := getCached[[]Dealer](ctx, s, dealersKey); ok {
		return cached, nil
	}

	all, err := s.api.Dealers(ctx, token)
	if err != nil {
		return nil, err
	}

	dealers := make([]Dealer, 0, len(all))
	for _, d := range all {
		if d.IsActive {
			dealers = append(dealers, d)
		}
	}

	s.setCached(ctx, dealersKey, dealers)
	return dealers, nil
}

// Invalidate drops both cache keys, for use after backend-side catalog
// changes.
func (s *Service) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, vehiclesKey, dealersKey).Err(); err != nil {
		s.logger.Warnw("catalog cache invalidation failed", "error", err)
	}
}

func getCached[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var out T
	if s.rdb == nil {
		return out, false
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warnw("catalog cache read failed", "key", key, "error", err)
		}
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

func (s *Service) setCached(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warnw("catalog cache write failed", "key", key, "error", err)
	}
}
