package datablock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/openstats/tablebuilder/pkg/observability"
	"github.com/openstats/tablebuilder/pkg/tablebuilder"
)

// Service serves the built results of saved data block queries, cache first.
type Service interface {
	// GetDataBlockTableResult returns the block's built table, from cache when
	// a valid entry exists and by building (then caching) it otherwise.
	GetDataBlockTableResult(ctx context.Context, id uuid.UUID) (*tablebuilder.TableResult, error)
	// InvalidateDataBlock drops the block's cached result, forcing the next
	// request to rebuild it.
	InvalidateDataBlock(ctx context.Context, id uuid.UUID) error
}

type service struct {
	log       logrus.FieldLogger
	store     Store
	builder   tablebuilder.Service
	redis     *redis.Client
	keyPrefix string
}

// NewService creates the data block cache service. Keys are prefixed with
// keyPrefix so the cache can share a Redis database with other services.
func NewService(log logrus.FieldLogger, store Store, builder tablebuilder.Service, redisClient *redis.Client, keyPrefix string) Service {
	return &service{
		log:       log.WithField("service", "datablock"),
		store:     store,
		builder:   builder,
		redis:     redisClient,
		keyPrefix: keyPrefix,
	}
}

func (s *service) GetDataBlockTableResult(ctx context.Context, id uuid.UUID) (*tablebuilder.TableResult, error) {
	block, err := s.store.DataBlock(ctx, id)
	if err != nil {
		return nil, err
	}

	key := s.keyPrefix + block.CachePath()

	payload, err := s.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		var result tablebuilder.TableResult
		if jsonErr := json.Unmarshal(payload, &result); jsonErr == nil {
			observability.CacheRequestsTotal.WithLabelValues("hit").Inc()

			return &result, nil
		}

		// A corrupt entry would otherwise be served forever, so it is
		// dropped before rebuilding.
		s.log.WithField("key", key).Warn("Dropping corrupt cache entry")
		observability.CacheRequestsTotal.WithLabelValues("corrupt").Inc()

		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			s.log.WithError(delErr).WithField("key", key).Warn("Failed to drop corrupt cache entry")
		}
	case errors.Is(err, redis.Nil):
		observability.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		// The cache being unreachable must not take queries down with it.
		s.log.WithError(err).WithField("key", key).Warn("Cache lookup failed")
		observability.CacheRequestsTotal.WithLabelValues("error").Inc()
	}

	return s.build(ctx, block, key)
}

func (s *service) build(ctx context.Context, block *DataBlock, key string) (*tablebuilder.TableResult, error) {
	result, err := s.builder.Query(ctx, block.Query, tablebuilder.ShapeTableBuilder)
	if err != nil {
		return nil, fmt.Errorf("failed to build data block table: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data block table: %w", err)
	}

	// Persistence is best effort. Entries have no TTL: they stay valid until
	// the block is invalidated by a release amendment.
	if err := s.redis.Set(ctx, key, payload, 0).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache data block table")
		observability.CachePersistFailuresTotal.Inc()
	}

	return result, nil
}

func (s *service) InvalidateDataBlock(ctx context.Context, id uuid.UUID) error {
	block, err := s.store.DataBlock(ctx, id)
	if err != nil {
		return err
	}

	key := s.keyPrefix + block.CachePath()

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate data block cache: %w", err)
	}

	s.log.WithField("key", key).Info("Invalidated data block cache entry")

	return nil
}
