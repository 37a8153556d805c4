package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"academic-compass/internal/ml/engine"
)

const (
	reportKey = "academic:model_report"
	reportTTL = 10 * time.Minute
)

// ReportCache keeps the latest model report in Redis so dashboard reads do
// not hit the engine on every request. A nil client disables caching.
type ReportCache struct {
	client *redis.Client
}

func NewReportCache(client *redis.Client) *ReportCache {
	return &ReportCache{client: client}
}

func (c *ReportCache) Get(ctx context.Context) (engine.Report, bool) {
	if c == nil || c.client == nil {
		return engine.Report{}, false
	}
	raw, err := c.client.Get(ctx, reportKey).Bytes()
	if err != nil {
		return engine.Report{}, false
	}
	var report engine.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return engine.Report{}, false
	}
	return report, true
}

func (c *ReportCache) Set(ctx context.Context, report engine.Report) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	c.client.Set(ctx, reportKey, raw, reportTTL)
}

// Invalidate drops the cached report; called after every retrain.
func (c *ReportCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, reportKey)
}
