package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

// balanceTolerance is the maximum deviation of one author's share from the
// mean share (in points of one) before a distribution counts as skewed.
const balanceTolerance = 0.20

// PublicationCounter reports how many articles each author has published
// for a blog since a point in time, keyed by author id.
type PublicationCounter interface {
	CountPublishedSince(ctx context.Context, blogID string, since time.Time) (map[int64]int, error)
}

// Manager selects publishing identities deterministically. The roster comes
// from an injected provider snapshot per call; any provider failure degrades
// to a fixed single-author fallback instead of aborting the run.
type Manager struct {
	roster   ports.RosterProvider
	counts   PublicationCounter
	fallback map[string]domain.Author
	logger   *slog.Logger
	now      func() time.Time
}

// Option tweaks Manager construction.
type Option func(*Manager)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithFallback registers the per-blog author used when the roster provider fails.
func WithFallback(fallback map[string]domain.Author) Option {
	return func(m *Manager) { m.fallback = fallback }
}

// NewManager wires the rotation manager.
func NewManager(roster ports.RosterProvider, counts PublicationCounter, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		roster: roster,
		counts: counts,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NextAuthor returns the identity for the next article today. The roster is
// capped to the first dailyQuota entries; the first capped author with zero
// publications today wins, otherwise the total published today indexes the
// capped roster round-robin.
func (m *Manager) NextAuthor(ctx context.Context, blogID string, dailyQuota int) (*domain.Author, error) {
	roster, err := m.snapshot(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if dailyQuota > 0 && dailyQuota < len(roster) {
		roster = roster[:dailyQuota]
	}

	counts, err := m.publishedToday(ctx, blogID)
	if err != nil {
		m.warn("publication counts unavailable, using first author", "blog", blogID, "error", err)
		return &roster[0], nil
	}

	total := 0
	for _, author := range roster {
		total += counts[author.ID]
	}
	for i := range roster {
		if counts[roster[i].ID] == 0 {
			return &roster[i], nil
		}
	}

	author := roster[total%len(roster)]
	return &author, nil
}

// RotationalAuthor is a pure function of the calendar day and the article's
// position within it, stable across process restarts.
func (m *Manager) RotationalAuthor(ctx context.Context, blogID string, articleIndex int) (*domain.Author, error) {
	roster, err := m.snapshot(ctx, blogID)
	if err != nil {
		return nil, err
	}

	idx := (dayOrdinal(m.now()) + articleIndex) % len(roster)
	return &roster[idx], nil
}

// AuthorForTopic picks the publishing author for one article. Category
// specialists are preferred when the topic seed lands in the 80% bias window;
// within the eligible subset each author occupies max(1, weight/10) slots of
// a selection pool and the seed indexes the pool. The same topic and roster
// snapshot always yield the same author.
func (m *Manager) AuthorForTopic(ctx context.Context, blogID, category string, topicSeed int64) (*domain.Author, error) {
	roster, err := m.snapshot(ctx, blogID)
	if err != nil {
		return nil, err
	}

	author := pickBySeed(roster, category, topicSeed)
	return &author, nil
}

// AssignAuthor picks the publishing author for one article under the rule's
// daily quota. The roster is capped to the first dailyQuota entries; authors
// with zero publications today form the eligible set so a full quota day
// touches every capped author exactly once. The specialist bias and weighted
// pool then apply within that set, seeded by the topic id.
func (m *Manager) AssignAuthor(ctx context.Context, blogID, category string, topicSeed int64, dailyQuota int) (*domain.Author, error) {
	roster, err := m.snapshot(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if dailyQuota > 0 && dailyQuota < len(roster) {
		roster = roster[:dailyQuota]
	}

	eligible := roster
	counts, err := m.publishedToday(ctx, blogID)
	if err != nil {
		m.warn("publication counts unavailable, assigning without fairness", "blog", blogID, "error", err)
	} else {
		var unpublished []domain.Author
		for _, author := range roster {
			if counts[author.ID] == 0 {
				unpublished = append(unpublished, author)
			}
		}
		if len(unpublished) > 0 {
			eligible = unpublished
		}
	}

	author := pickBySeed(eligible, category, topicSeed)
	return &author, nil
}

// pickBySeed applies the specialist bias window and the weighted selection
// pool to one candidate set.
func pickBySeed(candidates []domain.Author, category string, topicSeed int64) domain.Author {
	eligible := candidates
	if topicSeed%10 < 8 {
		var specialists []domain.Author
		for _, author := range candidates {
			if author.Specializes(category) {
				specialists = append(specialists, author)
			}
		}
		if len(specialists) > 0 {
			eligible = specialists
		}
	}

	var pool []domain.Author
	for _, author := range eligible {
		slots := author.Weight / 10
		if slots < 1 {
			slots = 1
		}
		for i := 0; i < slots; i++ {
			pool = append(pool, author)
		}
	}

	return pool[int(topicSeed%int64(len(pool)))]
}

// Stats summarizes publication distribution over a trailing window.
type Stats struct {
	BlogID    string
	Days      int
	PerAuthor map[int64]int
	Total     int
	Balanced  bool
}

// DistributionStats counts published articles per roster author over the
// trailing window and flags the distribution balanced when no author's share
// deviates from the mean by more than 20 points.
func (m *Manager) DistributionStats(ctx context.Context, blogID string, days int) (Stats, error) {
	roster, err := m.snapshot(ctx, blogID)
	if err != nil {
		return Stats{}, err
	}

	since := m.now().UTC().AddDate(0, 0, -days)
	counts := map[int64]int{}
	if m.counts != nil {
		counts, err = m.counts.CountPublishedSince(ctx, blogID, since)
		if err != nil {
			return Stats{}, fmt.Errorf("count published: %w", err)
		}
	}

	stats := Stats{BlogID: blogID, Days: days, PerAuthor: make(map[int64]int, len(roster))}
	for _, author := range roster {
		stats.PerAuthor[author.ID] = counts[author.ID]
		stats.Total += counts[author.ID]
	}

	stats.Balanced = true
	if stats.Total > 0 {
		mean := 1.0 / float64(len(roster))
		for _, n := range stats.PerAuthor {
			share := float64(n) / float64(stats.Total)
			if share-mean > balanceTolerance || mean-share > balanceTolerance {
				stats.Balanced = false
				break
			}
		}
	}

	return stats, nil
}

// snapshot resolves the roster, falling back to the configured single author
// when the provider fails.
func (m *Manager) snapshot(ctx context.Context, blogID string) ([]domain.Author, error) {
	roster, err := m.roster.Roster(ctx, blogID)
	if err == nil && len(roster) > 0 {
		return roster, nil
	}

	if fallback, ok := m.fallback[blogID]; ok {
		m.warn("roster unavailable, using fallback author", "blog", blogID, "error", err)
		return []domain.Author{fallback}, nil
	}

	if err == nil {
		err = fmt.Errorf("empty roster for blog %s", blogID)
	}
	return nil, fmt.Errorf("resolve roster: %w", err)
}

func (m *Manager) publishedToday(ctx context.Context, blogID string) (map[int64]int, error) {
	if m.counts == nil {
		return map[int64]int{}, nil
	}

	now := m.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return m.counts.CountPublishedSince(ctx, blogID, midnight)
}

func dayOrdinal(t time.Time) int {
	return int(t.UTC().Unix() / (24 * 60 * 60))
}

func (m *Manager) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
