package domain

import "time"

// AutomationRule configures one automation target: which blog to write for,
// which categories are eligible, and how far the pipeline may go on its own.
// Rules are owned by the operator UI; the engine only reads them.
type AutomationRule struct {
	ID                int64
	BlogID            string
	Name              string
	Categories        []string
	AutoPublish       bool
	AutoSocialPost    bool
	AutoApproveTopics bool
	DailyQuota        int
	Active            bool
	CreatedAt         time.Time
}

// MatchesCategory reports whether the rule covers the given category.
// A rule with no categories covers everything.
func (r AutomationRule) MatchesCategory(category string) bool {
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}
