package util

import (
	"context"
	"fmt"
	"time"

	"github.com/medcenter/appointment-api/config"
	"github.com/redis/go-redis/v9"
)

// CacheSessionToken stores session:<token> with the session TTL and adds the
// token to the per-user set. Best-effort: no-op when Redis is unavailable.
func CacheSessionToken(actorType string, userID uint, token string, ttl time.Duration) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	if err := rdb.Set(ctx, fmt.Sprintf("session:%s", token), fmt.Sprintf("%s:%d", actorType, userID), ttl).Err(); err != nil {
		return err
	}
	userSetKey := fmt.Sprintf("user_sessions:%s:%d", actorType, userID)
	if err := rdb.SAdd(ctx, userSetKey, token).Err(); err != nil {
		return err
	}
	return rdb.Expire(ctx, userSetKey, ttl).Err()
}

// DropSessionToken removes a single cached session token and its set
// membership. If the per-user set becomes empty it is deleted.
func DropSessionToken(actorType string, userID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	if err := rdb.Del(ctx, fmt.Sprintf("session:%s", token)).Err(); err != nil && err != redis.Nil {
		return err
	}
	userSetKey := fmt.Sprintf("user_sessions:%s:%d", actorType, userID)
	// Atomically remove the token and delete the set if empty.
	script := `
		local removed = redis.call('SREM', KEYS[1], ARGV[1])
		if removed > 0 then
			local count = redis.call('SCARD', KEYS[1])
			if count == 0 then
				redis.call('DEL', KEYS[1])
			end
		end
		return removed
	`
	return rdb.Eval(ctx, script, []string{userSetKey}, token).Err()
}

// InvalidateUserSessions deletes all cached session tokens for the given
// actor. Best-effort; callers may ignore the error.
func InvalidateUserSessions(actorType string, userID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	userSetKey := fmt.Sprintf("user_sessions:%s:%d", actorType, userID)
	members, err := rdb.SMembers(ctx, userSetKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, tok := range members {
		_ = rdb.Del(ctx, fmt.Sprintf("session:%s", tok)).Err()
	}
	return rdb.Del(ctx, userSetKey).Err()
}
