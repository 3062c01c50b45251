package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

const (
	// Hash field names for per-work metrics keys.
	fieldLikes       = "likes"
	fieldImpressions = "impressions"

	// counterTTL keeps every live key self-cleaning. 48 hours covers a full
	// theme day plus the next day's midnight rollover; anything older is
	// served from snapshots.
	counterTTL = 48 * time.Hour

	dayBucketLayout = "20060102"
)

// CounterStore implements domain.CounterStore over a single Redis client.
// All mutations are single pipelined batches of commutative increments.
type CounterStore struct {
	rdb   *goredis.Client
	clock clockwork.Clock
}

func NewCounterStore(rdb *goredis.Client, clock clockwork.Clock) *CounterStore {
	return &CounterStore{rdb: rdb, clock: clock}
}

func (s *CounterStore) RecordLike(ctx context.Context, themeID, workID uuid.UUID) error {
	return s.adjustLike(ctx, themeID, workID, 1)
}

func (s *CounterStore) RecordUnlike(ctx context.Context, themeID, workID uuid.UUID) error {
	return s.adjustLike(ctx, themeID, workID, -1)
}

func (s *CounterStore) adjustLike(ctx context.Context, themeID, workID uuid.UUID, delta int64) error {
	rk := rankingKey(themeID)
	mk := metricsKey(workID)

	pipe := s.rdb.Pipeline()
	pipe.ZIncrBy(ctx, rk, float64(delta), workID.String())
	pipe.HIncrBy(ctx, mk, fieldLikes, delta)
	pipe.Expire(ctx, rk, counterTTL)
	pipe.Expire(ctx, mk, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to adjust like counters: %w", err)
	}
	return nil
}

// RecordImpression increments the work's impression counter and, when a
// viewer token is present, adds it to today's HyperLogLog bucket. Buckets
// expire after two days so the distinct-viewer estimate bridges midnight
// without unbounded memory.
func (s *CounterStore) RecordImpression(ctx context.Context, themeID, workID uuid.UUID, count int64, viewerToken string) error {
	if count <= 0 {
		return nil
	}
	mk := metricsKey(workID)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, mk, fieldImpressions, count)
	pipe.Expire(ctx, mk, counterTTL)
	if viewerToken != "" {
		vk := viewersKey(workID, s.clock.Now().UTC().Format(dayBucketLayout))
		pipe.PFAdd(ctx, vk, viewerToken)
		pipe.Expire(ctx, vk, counterTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record impression: %w", err)
	}
	return nil
}

// TopWorks returns up to k entries from the theme's ranking set, ordered by
// raw like count descending. Entries whose member is not a valid work ID are
// dropped with a log line rather than failing the pool.
func (s *CounterStore) TopWorks(ctx context.Context, themeID uuid.UUID, k int) ([]domain.WorkCount, error) {
	if k <= 0 {
		return nil, nil
	}

	entries, err := s.rdb.ZRevRangeWithScores(ctx, rankingKey(themeID), 0, int64(k-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranking set: %w", err)
	}

	counts := make([]domain.WorkCount, 0, len(entries))
	for _, z := range entries {
		member, _ := z.Member.(string)
		workID, err := uuid.Parse(member)
		if err != nil {
			slog.Warn("Dropping malformed ranking set member",
				"theme_id", themeID.String(), "member", member)
			continue
		}
		counts = append(counts, domain.WorkCount{WorkID: workID, Likes: int64(z.Score)})
	}
	return counts, nil
}

// MetricsFor batch-fetches live metrics for the given works in one pipeline:
// per work, the likes/impressions hash plus a PFCOUNT over today's and
// yesterday's viewer buckets.
func (s *CounterStore) MetricsFor(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]domain.LiveMetrics, error) {
	if len(workIDs) == 0 {
		return map[uuid.UUID]domain.LiveMetrics{}, nil
	}

	now := s.clock.Now().UTC()
	today := now.Format(dayBucketLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayBucketLayout)

	type workCmds struct {
		counters *goredis.SliceCmd
		viewers  *goredis.IntCmd
	}

	pipe := s.rdb.Pipeline()
	cmds := make(map[uuid.UUID]workCmds, len(workIDs))
	for _, id := range workIDs {
		cmds[id] = workCmds{
			counters: pipe.HMGet(ctx, metricsKey(id), fieldLikes, fieldImpressions),
			viewers:  pipe.PFCount(ctx, viewersKey(id, today), viewersKey(id, yesterday)),
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch live metrics: %w", err)
	}

	result := make(map[uuid.UUID]domain.LiveMetrics, len(workIDs))
	for id, c := range cmds {
		vals := c.counters.Val()
		m := domain.LiveMetrics{
			Likes:         parseCounter(vals, 0),
			Impressions:   parseCounter(vals, 1),
			UniqueViewers: c.viewers.Val(),
		}
		result[id] = m
	}
	return result, nil
}

// RestoreCounters rebuilds a theme's ranking set and per-work like counters
// from durable like counts. Used after live-store data loss; the like table
// can always reconstruct these counters.
func (s *CounterStore) RestoreCounters(ctx context.Context, themeID uuid.UUID, counts []domain.WorkCount) error {
	rk := rankingKey(themeID)

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, rk)
	for _, wc := range counts {
		pipe.ZAdd(ctx, rk, goredis.Z{Score: float64(wc.Likes), Member: wc.WorkID.String()})
		mk := metricsKey(wc.WorkID)
		pipe.HSet(ctx, mk, fieldLikes, wc.Likes)
		pipe.Expire(ctx, mk, counterTTL)
	}
	pipe.Expire(ctx, rk, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to restore counters: %w", err)
	}
	return nil
}

func parseCounter(vals []any, idx int) int64 {
	if idx >= len(vals) || vals[idx] == nil {
		return 0
	}
	raw, ok := vals[idx].(string)
	if !ok {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func rankingKey(themeID uuid.UUID) string {
	return "ranking:" + themeID.String()
}

func metricsKey(workID uuid.UUID) string {
	return "metrics:" + workID.String()
}

func viewersKey(workID uuid.UUID, day string) string {
	return "viewers:" + workID.String() + ":" + day
}
