package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/alexanderramin/waypoint/internal/domain"
)

const redisKeyPrefix = "waypoint:"

// DefaultRedisTTL bounds how long a plan or week stays in the hot layer.
const DefaultRedisTTL = 24 * time.Hour

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisPlanCache is a read-through, write-through layer in front of another
// PlanCache. Only complete plans are cached at the plan level; weeks are
// cached individually. Redis failures are logged and the call falls through
// to next, so the hot layer never turns a hit in the backing store into an
// error.
type RedisPlanCache struct {
	next   PlanCache
	rdb    *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ PlanCache = (*RedisPlanCache)(nil)

// NewRedisPlanCache wraps next. A zero ttl uses DefaultRedisTTL.
func NewRedisPlanCache(next PlanCache, rdb *goredis.Client, ttl time.Duration, logger *slog.Logger) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPlanCache{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "redis_plan_cache"),
	}
}

func planKey(ownerID, goal string, tc domain.TimeCommitment, weekCount int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d", goal, tc, weekCount)))
	return redisKeyPrefix + "plan:" + ownerID + ":" + hex.EncodeToString(sum[:])
}

// planAliasKey maps a plan id to its natural-key entry for invalidation.
func planAliasKey(planID string) string {
	return redisKeyPrefix + "plan-id:" + planID
}

func weekKey(planID string, week int) string {
	return fmt.Sprintf("%sweek:%s:%d", redisKeyPrefix, planID, week)
}

func (c *RedisPlanCache) Lookup(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int) (*domain.Plan, error) {
	key := planKey(ownerID, goal, tc, weekCount)
	var cached domain.Plan
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.next.Lookup(ctx, ownerID, goal, tc, weekCount)
	if err != nil || p == nil {
		return p, err
	}
	if p.Complete() {
		c.cachePlan(ctx, key, p)
	}
	return p, nil
}

func (c *RedisPlanCache) LookupWeek(ctx context.Context, planID string, week int) (*domain.Week, error) {
	key := weekKey(planID, week)
	var cached domain.Week
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	w, err := c.next.LookupWeek(ctx, planID, week)
	if err != nil || w == nil {
		return w, err
	}
	c.set(ctx, key, w)
	return w, nil
}

func (c *RedisPlanCache) Store(ctx context.Context, ownerID, goal string, tc domain.TimeCommitment, weekCount int, plan *domain.Plan) (string, error) {
	id, err := c.next.Store(ctx, ownerID, goal, tc, weekCount, plan)
	if err != nil {
		return "", err
	}
	c.invalidatePlan(ctx, id)
	for i := range plan.Weeks {
		c.set(ctx, weekKey(id, plan.Weeks[i].Number), &plan.Weeks[i])
	}
	return id, nil
}

func (c *RedisPlanCache) StoreWeek(ctx context.Context, planID string, week int, w *domain.Week) error {
	if err := c.next.StoreWeek(ctx, planID, week, w); err != nil {
		return err
	}
	c.invalidatePlan(ctx, planID)
	c.set(ctx, weekKey(planID, week), w)
	return nil
}

func (c *RedisPlanCache) GetPlan(ctx context.Context, ownerID, planID string) (*domain.Plan, error) {
	return c.next.GetPlan(ctx, ownerID, planID)
}

func (c *RedisPlanCache) ListPlans(ctx context.Context, ownerID string) ([]*domain.Plan, error) {
	return c.next.ListPlans(ctx, ownerID)
}

func (c *RedisPlanCache) DeletePlan(ctx context.Context, ownerID, planID string) error {
	p, err := c.next.GetPlan(ctx, ownerID, planID)
	if err != nil {
		return err
	}
	if err := c.next.DeletePlan(ctx, ownerID, planID); err != nil {
		return err
	}
	keys := []string{planKey(p.OwnerID, p.Goal, p.TimeCommitment, p.WeekCount), planAliasKey(planID)}
	for n := 1; n <= p.WeekCount; n++ {
		keys = append(keys, weekKey(planID, n))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis invalidate failed", "plan_id", planID, "error", err)
	}
	return nil
}

func (c *RedisPlanCache) SetLastViewedWeek(ctx context.Context, ownerID, planID string, week int) error {
	if err := c.next.SetLastViewedWeek(ctx, ownerID, planID, week); err != nil {
		return err
	}
	c.invalidatePlan(ctx, planID)
	return nil
}

func (c *RedisPlanCache) cachePlan(ctx context.Context, key string, p *domain.Plan) {
	if !c.set(ctx, key, p) {
		return
	}
	if err := c.rdb.Set(ctx, planAliasKey(p.ID), key, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", planAliasKey(p.ID), "error", err)
	}
}

// invalidatePlan drops the plan-level entry for planID, if one was cached.
func (c *RedisPlanCache) invalidatePlan(ctx context.Context, planID string) {
	alias := planAliasKey(planID)
	key, err := c.rdb.Get(ctx, alias).Result()
	if errors.Is(err, goredis.Nil) {
		return
	}
	if err != nil {
		c.logger.Warn("redis get failed", "key", alias, "error", err)
		return
	}
	if err := c.rdb.Del(ctx, key, alias).Err(); err != nil {
		c.logger.Warn("redis invalidate failed", "plan_id", planID, "error", err)
	}
}

// get decodes key into v and reports a hit.
func (c *RedisPlanCache) get(ctx context.Context, key string, v any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("redis get failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("redis entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *RedisPlanCache) set(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("redis entry unencodable", "key", key, "error", err)
		return false
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
		return false
	}
	return true
}
