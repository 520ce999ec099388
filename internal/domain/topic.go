package domain

import "time"

// TopicStatus enumerates the lifecycle of a candidate article subject.
type TopicStatus string

const (
	TopicPending    TopicStatus = "pending"
	TopicApproved   TopicStatus = "approved"
	TopicInProgress TopicStatus = "in_progress"
	TopicUsed       TopicStatus = "used"
	TopicRejected   TopicStatus = "rejected"
	TopicError      TopicStatus = "error"
)

// Topic is a candidate article subject. A topic is consumed exactly once:
// the approved→used transition is the reservation point and must be committed
// before content generation starts.
type Topic struct {
	ID        int64
	BlogID    string
	Title     string
	Category  string
	Priority  int
	Status    TopicStatus
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}
