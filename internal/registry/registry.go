package registry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"homehub/internal/db"
	"homehub/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "registry:sensors"
	cacheTTL = 5 * time.Minute
)

// Registry resolves a rule's sensor id to its device, sensor key and type
// metadata. Lookups go to a Redis cache first and fall back to Postgres; the
// registry itself owns no mutable state.
type Registry struct {
	db    *db.DB
	redis *redis.Client
}

// New creates a registry. redisClient may be nil, in which case every lookup
// hits the database.
func New(dbConn *db.DB, redisClient *redis.Client) *Registry {
	return &Registry{db: dbConn, redis: redisClient}
}

// SensorsByID returns all sensors keyed by sensor id
func (r *Registry) SensorsByID(ctx context.Context) (map[int64]models.SensorMeta, error) {
	if r.redis != nil {
		raw, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached map[int64]models.SensorMeta
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			log.Printf("REGISTRY: discarding corrupt cache entry: %v", err)
		}
	}

	sensors, err := r.db.GetSensorsWithTypes(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.SensorMeta, len(sensors))
	for _, s := range sensors {
		byID[s.SensorID] = s
	}

	if r.redis != nil {
		if raw, err := json.Marshal(byID); err == nil {
			if err := r.redis.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				log.Printf("REGISTRY: cache write failed: %v", err)
			}
		}
	}
	return byID, nil
}

// Invalidate drops the cached sensor metadata. Called by the management API
// after sensor or sensor-type changes.
func (r *Registry) Invalidate(ctx context.Context) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("REGISTRY: cache invalidation failed: %v", err)
	}
}
