package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
)

// Redis shares pending enrollments across replicas. A begin on any replica
// overwrites the previous pending state.
type Redis struct {
	tracer
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable, ins instrument.Instrumentation) *Redis {
	return &Redis{tracer: tracer{ins: ins}, client: client}
}

func (r *Redis) GetPending(ctx context.Context, accountID int64) (_ *entity.PendingEnrollment, err error) {
	ctx, span := r.startSpan(ctx, "GetPending")
	defer func() { r.endSpan(span, err) }()

	raw, err := r.client.Get(ctx, pendingKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p entity.PendingEnrollment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// SetPending overwrites unconditionally; ttl 0 keeps the key until deleted.
func (r *Redis) SetPending(ctx context.Context, p entity.PendingEnrollment, ttl time.Duration) (err error) {
	ctx, span := r.startSpan(ctx, "SetPending")
	defer func() { r.endSpan(span, err) }()

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, pendingKey(p.AccountID), raw, ttl).Err()
	return err
}

func (r *Redis) DeletePending(ctx context.Context, accountID int64) (err error) {
	ctx, span := r.startSpan(ctx, "DeletePending")
	defer func() { r.endSpan(span, err) }()

	err = r.client.Del(ctx, pendingKey(accountID)).Err()
	return err
}

func (r *Redis) MarkCodeUsed(ctx context.Context, key string, ttl time.Duration) (_ bool, err error) {
	ctx, span := r.startSpan(ctx, "MarkCodeUsed")
	defer func() { r.endSpan(span, err) }()

	return r.client.SetNX(ctx, keyPrefixUsed+key, 1, ttl).Result()
}
