package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/enrollment-service/internal/models"
)

// ParseRedisURL validates a Redis connection URL.
func ParseRedisURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// NewRedisClient connects and pings the cache.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := ParseRedisURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return client, nil
}

// cachedCourseRepository is a read-through cache in front of a CourseRepository.
// Cache failures are logged and the call falls through to the backing store.
type cachedCourseRepository struct {
	next   CourseRepository
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

func NewCachedCourseRepository(next CourseRepository, client redis.UniversalClient, ttl time.Duration, prefix string, logger zerolog.Logger) CourseRepository {
	return &cachedCourseRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

func (r *cachedCourseRepository) key(id string) string {
	return r.prefix + id
}

func (r *cachedCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		var course models.Course
		if err := json.Unmarshal(raw, &course); err == nil {
			return &course, nil
		}
		r.logger.Warn().Str("course_id", id).Msg("Discarding undecodable cached course")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn().Err(err).Str("course_id", id).Msg("Course cache read failed")
	}

	course, err := r.next.GetByID(ctx, id)
	if err != nil || course == nil {
		return course, err
	}

	if body, err := json.Marshal(course); err == nil {
		if err := r.client.Set(ctx, r.key(id), body, r.ttl).Err(); err != nil {
			r.logger.Warn().Err(err).Str("course_id", id).Msg("Course cache write failed")
		}
	}

	return course, nil
}

func (r *cachedCourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	if err := r.next.Upsert(ctx, course); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(course.ID)).Err(); err != nil {
		r.logger.Warn().Err(err).Str("course_id", course.ID).Msg("Course cache invalidation failed")
	}

	return nil
}
