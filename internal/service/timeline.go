package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/metrics"
	"github.com/akimon658/twittra/internal/port"
)

const (
	recommendationLimit = 50

	signalUsersLimit    = 20
	signalChannelsLimit = 10
	signalSimilarLimit  = 20

	sourceFetchLimit = 50
)

// source names the fixed merge order the open question in spec §9
// resolves on: (TOP, AUTH, CHAN, SIM) regardless of which goroutine's
// fetch completes first.
type source int

const (
	sourceTop source = iota
	sourceAuth
	sourceChan
	sourceSim
	sourceCount
)

type sourceWeights struct {
	base           float64
	rankMultiplier float64
}

var weightsBySource = [sourceCount]sourceWeights{
	sourceTop:  {base: 5.0, rankMultiplier: 0.10},
	sourceAuth: {base: 5.0, rankMultiplier: 0.15},
	sourceChan: {base: 3.0, rankMultiplier: 0.10},
	sourceSim:  {base: 5.0, rankMultiplier: 0.10},
}

// TimelineService computes the per-user recommended timeline.
type TimelineService struct {
	repo  port.Repository
	clock func() time.Time
	log   *logrus.Entry
}

func NewTimeline(repo port.Repository, log *logrus.Entry) *TimelineService {
	return &TimelineService{repo: repo, clock: time.Now, log: log}
}

// scoredMessage tracks a candidate's accumulated score and the order in
// which it was first seen, so the final sort can break ties by
// insertion-order-of-first-source (stable sort over a slice built in
// (TOP, AUTH, CHAN, SIM) order already achieves this).
type scoredMessage struct {
	item  domain.MessageListItem
	score float64
}

// GetRecommendedMessages is the single public entry point of spec §4.6: it
// fans out three signal queries and four candidate queries concurrently,
// merges them with the weighted scoring table, and returns the top 50 by
// score, descending, ties broken by first-source insertion order.
func (s *TimelineService) GetRecommendedMessages(ctx context.Context, viewerID domain.ID) ([]domain.MessageListItem, error) {
	start := time.Now()
	defer func() { metrics.RecommendationLatency.Observe(time.Since(start).Seconds()) }()

	now := s.clock()

	signals, err := s.collectSignals(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	lists, err := s.fetchCandidates(ctx, viewerID, signals, now)
	if err != nil {
		return nil, err
	}

	merged := merge(lists)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})

	if len(merged) > recommendationLimit {
		merged = merged[:recommendationLimit]
	}

	out := make([]domain.MessageListItem, len(merged))
	for i, m := range merged {
		out[i] = m.item
	}
	return out, nil
}

type signals struct {
	frequentAuthors  []domain.ID
	frequentChannels []domain.ID
	similarUsers     []domain.ID
}

func (s *TimelineService) collectSignals(ctx context.Context, viewerID domain.ID) (signals, error) {
	var (
		wg               sync.WaitGroup
		authorsErr       error
		channelsErr      error
		similarErr       error
		frequentAuthors  []domain.ID
		frequentChannels []domain.ID
		similarUsers     []domain.ID
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		frequentAuthors, authorsErr = s.repo.User.FindFrequentlyStampedUsersBy(ctx, viewerID, signalUsersLimit)
	}()
	go func() {
		defer wg.Done()
		frequentChannels, channelsErr = s.repo.Stamp.FindFrequentlyStampedChannelsBy(ctx, viewerID, signalChannelsLimit)
	}()
	go func() {
		defer wg.Done()
		similarUsers, similarErr = s.repo.User.FindSimilarUsers(ctx, viewerID, signalSimilarLimit)
	}()
	wg.Wait()

	for _, err := range []error{authorsErr, channelsErr, similarErr} {
		if err != nil {
			return signals{}, err
		}
	}

	return signals{
		frequentAuthors:  frequentAuthors,
		frequentChannels: frequentChannels,
		similarUsers:     similarUsers,
	}, nil
}

func (s *TimelineService) fetchCandidates(ctx context.Context, viewerID domain.ID, sig signals, now time.Time) ([sourceCount][]domain.MessageListItem, error) {
	var (
		lists [sourceCount][]domain.MessageListItem
		errs  [sourceCount]error
		wg    sync.WaitGroup
	)

	wg.Add(int(sourceCount))
	go func() {
		defer wg.Done()
		lists[sourceTop], errs[sourceTop] = s.repo.Message.FindTopReactedMessages(ctx, viewerID, sourceFetchLimit, now)
	}()
	go func() {
		defer wg.Done()
		lists[sourceAuth], errs[sourceAuth] = s.repo.Message.FindMessagesByAuthorAllowlist(ctx, sig.frequentAuthors, sourceFetchLimit, viewerID, now)
	}()
	go func() {
		defer wg.Done()
		lists[sourceChan], errs[sourceChan] = s.repo.Message.FindMessagesByChannelAllowlist(ctx, sig.frequentChannels, sourceFetchLimit, viewerID, now)
	}()
	go func() {
		defer wg.Done()
		lists[sourceSim], errs[sourceSim] = s.repo.Message.FindMessagesByAuthorAllowlist(ctx, sig.similarUsers, sourceFetchLimit, viewerID, now)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return lists, err
		}
	}
	return lists, nil
}

// merge applies the per-source, per-rank scoring contribution of spec
// §4.6/§4.7 and sums contributions for messages appearing in multiple
// sources. Sources are traversed in the fixed (TOP, AUTH, CHAN, SIM) order
// so the returned slice's natural order already encodes first-source
// insertion order for the caller's stable sort.
func merge(lists [sourceCount][]domain.MessageListItem) []scoredMessage {
	order := make([]domain.ID, 0)
	byID := make(map[domain.ID]*scoredMessage)

	for src := source(0); src < sourceCount; src++ {
		weights := weightsBySource[src]
		for rank, item := range lists[src] {
			contribution := weights.base
			if bonus := float64(recommendationLimit - rank); bonus > 0 {
				contribution += bonus * weights.rankMultiplier
			}

			existing, ok := byID[item.ID]
			if !ok {
				entry := &scoredMessage{item: item, score: contribution}
				byID[item.ID] = entry
				order = append(order, item.ID)
				continue
			}
			existing.score += contribution
		}
	}

	merged := make([]scoredMessage, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	return merged
}
