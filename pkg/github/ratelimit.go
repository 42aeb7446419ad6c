package github

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	githublib "github.com/google/go-github/v70/github"
	"github.com/krrrr38/gl2gh/pkg/logger"
)

// LowWaterMark is the remaining call count below which a gate waits for the quota reset.
const LowWaterMark = 5

// Quota is a snapshot of the destination API rate limit.
type Quota struct {
	Remaining int
	Reset     time.Time
}

// QuotaSource reports the current quota.
type QuotaSource interface {
	Quota(ctx context.Context) (Quota, error)
}

// ClientQuota reads the quota of the authenticated client.
type ClientQuota struct {
	client *githublib.Client
}

func (q ClientQuota) Quota(ctx context.Context) (Quota, error) {
	return coreQuota(ctx, q.client)
}

// EndpointQuota reads the rate limit endpoint without credentials.
type EndpointQuota struct {
	client *githublib.Client
}

func (q EndpointQuota) Quota(ctx context.Context) (Quota, error) {
	return coreQuota(ctx, q.client)
}

func coreQuota(ctx context.Context, client *githublib.Client) (Quota, error) {
	limits, _, err := client.RateLimit.Get(ctx)
	if err != nil {
		return Quota{}, fmt.Errorf("failed to get rate limit: %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return Quota{}, fmt.Errorf("rate limit response has no core quota")
	}
	return Quota{Remaining: core.Remaining, Reset: core.Reset.Time}, nil
}

// Gate blocks callers while the quota is nearly exhausted.
type Gate struct {
	name         string
	source       QuotaSource
	lowWaterMark int
}

func NewGate(name string, source QuotaSource) *Gate {
	return &Gate{name: name, source: source, lowWaterMark: LowWaterMark}
}

// Proceed returns nil once a call may be made. When fewer than LowWaterMark calls remain it
// waits until the reset time. A failed quota query denies the call.
func (g *Gate) Proceed(ctx context.Context) error {
	q, err := g.source.Quota(ctx)
	if err != nil {
		return fmt.Errorf("%s rate limit gate: %w", g.name, err)
	}
	if q.Remaining >= g.lowWaterMark {
		return nil
	}

	wait := time.Until(q.Reset)
	if wait <= 0 {
		return nil
	}
	logger.Warn("Rate limit nearly exhausted, sleeping until reset",
		"gate", g.name,
		"remaining", q.Remaining,
		"reset", q.Reset.Format(time.RFC3339),
		"in", humanize.Time(q.Reset))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
