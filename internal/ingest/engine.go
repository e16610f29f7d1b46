// Package ingest implements the Ingestion & Freshness Engine: the
// long-lived background task that crawls the upstream for new messages and
// refreshes stale ones on an age-bucketed schedule.
package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/metrics"
	"github.com/akimon658/twittra/internal/port"
)

const tickInterval = 30 * time.Second

// age-bucketed refresh intervals, spec §4.5.
const (
	hotWindow    = 3 * time.Hour
	warmWindow   = 12 * time.Hour
	candidateAge = 24 * time.Hour

	hotInterval  = 1 * time.Minute
	warmInterval = 10 * time.Minute
	coldInterval = 30 * time.Minute
)

// Engine owns the crawler's background loop.
type Engine struct {
	client   port.UpstreamClient
	repo     port.Repository
	notifier port.Notifier
	clock    func() time.Time
	log      *logrus.Entry

	// upstreamTimeout bounds each individual upstream call inside a tick
	// so a single slow call can't block the loop indefinitely; it does
	// not bound the tick as a whole (spec §5: per-operation suspension
	// points, not a single deadline over the tick).
	upstreamTimeout time.Duration
}

// New builds an Engine. log must not be nil.
func New(client port.UpstreamClient, repo port.Repository, notifier port.Notifier, log *logrus.Entry) *Engine {
	return &Engine{
		client:          client,
		repo:            repo,
		notifier:        notifier,
		clock:           time.Now,
		log:             log,
		upstreamTimeout: 10 * time.Second,
	}
}

// Run loops forever: crawl, sleep 30s, repeat. Errors are logged and never
// terminate the loop. Run returns when ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		if err := e.Crawl(ctx); err != nil {
			e.log.WithError(err).Error("crawl tick failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(tickInterval):
		}
	}
}

// Crawl is one execution of the tick described in spec §4.5.
func (e *Engine) Crawl(ctx context.Context) error {
	tickStart := time.Now()
	defer func() { metrics.CrawlTickDuration.Observe(time.Since(tickStart).Seconds()) }()

	now := e.clock()

	since, ok, err := e.repo.Message.LatestMessageTime(ctx)
	if err != nil {
		return err
	}
	if !ok {
		since = now.Add(-24 * time.Hour)
	}

	token, ok, err := e.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return err
	}
	if !ok {
		e.log.Warn("no valid token found, skipping crawl tick")
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.upstreamTimeout)
	newMessages, err := e.client.SearchSince(fetchCtx, token, since)
	cancel()
	if err != nil {
		return err
	}

	if err := e.repo.Message.SaveBatch(ctx, newMessages, now); err != nil {
		return err
	}

	changed, err := e.refreshCandidates(ctx, token, now)
	if err != nil {
		return err
	}

	for _, message := range changed {
		e.notifier.NotifyMessageUpdated(ctx, message)
	}

	return nil
}

// refreshCandidates implements spec §4.5's per-tick refresh pass.
func (e *Engine) refreshCandidates(ctx context.Context, token domain.Token, now time.Time) ([]domain.Message, error) {
	candidates, err := e.repo.Message.FindSyncCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	var changed []domain.Message
	for _, candidate := range candidates {
		if !shouldRefresh(candidate.CreatedAt, candidate.LastCrawledAt, now) {
			continue
		}
		metrics.CandidatesRefreshed.Inc()

		fetchCtx, cancel := context.WithTimeout(ctx, e.upstreamTimeout)
		updated, err := e.client.GetMessage(fetchCtx, token, candidate.MessageID)
		cancel()
		if err != nil {
			e.log.WithError(err).WithField("message_id", candidate.MessageID).
				Warn("refresh candidate failed, continuing with next")
			continue
		}

		old, ok, err := e.repo.Message.FindByID(ctx, candidate.MessageID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.NoMessageForIDError{ID: candidate.MessageID}
		}

		if err := e.repo.Message.Save(ctx, updated, now); err != nil {
			return nil, err
		}

		if !old.Equal(updated) {
			changed = append(changed, updated)
		}
	}

	return changed, nil
}

// shouldRefresh implements the age-bucketed rate limit of spec §4.5.
func shouldRefresh(createdAt, lastCrawledAt, now time.Time) bool {
	age := now.Sub(createdAt)

	var interval time.Duration
	switch {
	case age < hotWindow:
		interval = hotInterval
	case age < warmWindow:
		interval = warmInterval
	default:
		interval = coldInterval
	}

	return now.Sub(lastCrawledAt) >= interval
}
