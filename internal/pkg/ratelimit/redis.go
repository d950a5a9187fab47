package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every replica.
type Redis struct {
	client redis.Cmdable
	prefix string
	policy Policy
}

func NewRedis(client redis.Cmdable, prefix string, policy Policy) *Redis {
	return &Redis{client: client, prefix: prefix, policy: policy}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	fk := r.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, fk)
		// NX keeps the window anchored at the first attempt.
		p.ExpireNX(ctx, fk, r.policy.Window)
		ttl = p.PTTL(ctx, fk)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	return r.policy.decide(incr.Val(), ttl.Val()), nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
