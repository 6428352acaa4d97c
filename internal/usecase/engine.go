package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gitproof/internal/domain"
)

// Engine turns an event window into a single metric per claim type and
// compares it to the threshold. TotalStars and PublicRepos consult the
// ActivitySource directly; the other metrics derive from the window.
type Engine struct {
	Source ActivitySource
	Clock  Clock
}

type metricDeps struct {
	source ActivitySource
	now    time.Time
}

type metric interface {
	compute(ctx context.Context, events []domain.ActivityEvent, deps metricDeps) (int, error)
}

var metricsByClaim = map[domain.ClaimType]metric{
	domain.ClaimYearlyCommits:   yearlyCommitsMetric{},
	domain.ClaimConsecutiveDays: consecutiveDaysMetric{},
	domain.ClaimTotalStars:      totalStarsMetric{},
	domain.ClaimPublicRepos:     publicReposMetric{},
}

// Evaluate returns whether the metric meets the threshold, along with
// the metric value itself. An empty event window yields a zero metric,
// never an error.
func (e *Engine) Evaluate(ctx context.Context, events []domain.ActivityEvent, claim domain.ClaimType, threshold int) (bool, int, error) {
	strategy, ok := metricsByClaim[claim]
	if !ok {
		return false, 0, fmt.Errorf("%w: unknown claim type %q", domain.ErrValidation, claim)
	}
	value, err := strategy.compute(ctx, events, metricDeps{source: e.Source, now: e.now()})
	if err != nil {
		return false, 0, err
	}
	return value >= threshold, value, nil
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

// yearlyCommitsMetric sums commit entries across push events created
// within the last 365 days; the boundary instant is included.
type yearlyCommitsMetric struct{}

func (yearlyCommitsMetric) compute(_ context.Context, events []domain.ActivityEvent, deps metricDeps) (int, error) {
	cutoff := deps.now.Add(-365 * 24 * time.Hour)
	total := 0
	for _, event := range events {
		if event.Kind != "PushEvent" {
			continue
		}
		if event.CreatedAt.Before(cutoff) {
			continue
		}
		total += event.CommitCount()
	}
	return total, nil
}

// consecutiveDaysMetric is the longest run of distinct UTC calendar
// dates each exactly one day after its predecessor.
type consecutiveDaysMetric struct{}

func (consecutiveDaysMetric) compute(_ context.Context, events []domain.ActivityEvent, _ metricDeps) (int, error) {
	seen := make(map[time.Time]struct{}, len(events))
	for _, event := range events {
		year, month, day := event.CreatedAt.UTC().Date()
		seen[time.Date(year, month, day, 0, 0, 0, 0, time.UTC)] = struct{}{}
	}
	if len(seen) == 0 {
		return 0, nil
	}
	dates := make([]time.Time, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, current := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i].Sub(dates[i-1]) == 24*time.Hour {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest, nil
}

// totalStarsMetric recovers the canonical login from the first event's
// actor and sums stargazer counts across the subject's repositories.
// An empty window yields 0 without a platform call.
type totalStarsMetric struct{}

func (totalStarsMetric) compute(ctx context.Context, events []domain.ActivityEvent, deps metricDeps) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	return deps.source.CountTotalStars(ctx, events[0].Actor.Login)
}

type publicReposMetric struct{}

func (publicReposMetric) compute(ctx context.Context, events []domain.ActivityEvent, deps metricDeps) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	return deps.source.CountPublicRepos(ctx, events[0].Actor.Login)
}
