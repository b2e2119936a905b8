package service

import (
	"context"
	"errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"strconv"
	"time"
	"video-tracker/constant"
	"video-tracker/repository"
)

// EnrolmentResolver looks up the enrolment date of a session. It is best
// effort: a nil date with a nil error means the session has none.
type EnrolmentResolver interface {
	ResolveEnrolmentDate(ctx context.Context, sessionID string) (*time.Time, error)
}

const (
	enrolmentKeyPrefix = "vtr:enrolment:"
	enrolmentNone      = "none"
)

type postEnrolmentResolver struct {
	repo  repository.Repository
	cache *redis.Client
	ttl   time.Duration
}

// NewEnrolmentResolver resolves numeric session ids against published posts.
// cache may be nil.
func NewEnrolmentResolver(repo repository.Repository, cache *redis.Client, ttl time.Duration) EnrolmentResolver {
	return &postEnrolmentResolver{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *postEnrolmentResolver) ResolveEnrolmentDate(ctx context.Context, sessionID string) (*time.Time, error) {
	postID, err := strconv.ParseUint(sessionID, 10, 64)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("session_id", sessionID).Msg("session id is not numeric")
		return nil, nil
	}

	if date, ok := r.cached(ctx, sessionID); ok {
		return date, nil
	}

	post, err := r.repo.FindPostById(ctx, postID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var date *time.Time
	if post != nil && post.PostStatus == constant.PostStatusPublish {
		d := post.PostDate
		date = &d
		zerolog.Ctx(ctx).Debug().Str("session_id", sessionID).Time("enrolment_date", d).Msg("found enrolment date")
	} else {
		zerolog.Ctx(ctx).Debug().Str("session_id", sessionID).Msg("no published post for session")
	}

	r.store(ctx, sessionID, date)
	return date, nil
}

func (r *postEnrolmentResolver) cached(ctx context.Context, sessionID string) (*time.Time, bool) {
	if r.cache == nil {
		return nil, false
	}

	val, err := r.cache.Get(ctx, enrolmentKeyPrefix+sessionID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("enrolment cache read failed")
		}
		return nil, false
	}
	if val == enrolmentNone {
		return nil, true
	}

	date, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, false
	}
	return &date, true
}

func (r *postEnrolmentResolver) store(ctx context.Context, sessionID string, date *time.Time) {
	if r.cache == nil {
		return
	}

	val := enrolmentNone
	if date != nil {
		val = date.UTC().Format(time.RFC3339Nano)
	}
	if err := r.cache.Set(ctx, enrolmentKeyPrefix+sessionID, val, r.ttl).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("enrolment cache write failed")
	}
}
