package domain

import "time"

// WorkflowStatus enumerates run-level outcomes.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowPaused    WorkflowStatus = "paused"
)

// Step names one stage of the pipeline.
type Step string

const (
	StepTopicManagement   Step = "topic_management"
	StepTopicSelection    Step = "topic_selection"
	StepContentGeneration Step = "content_generation"
	StepImageAcquisition  Step = "image_acquisition"
	StepPublishing        Step = "publishing"
	StepSocialPosting     Step = "social_posting"
	StepMetricsUpdate     Step = "metrics_update"
)

// WorkflowResult captures everything one run did. It is created at the start
// of Run, finalized exactly once at the end, and never mutated afterwards.
// Serialization must preserve step order and the error list exactly.
type WorkflowResult struct {
	WorkflowID         string         `json:"workflow_id"`
	RuleID             int64          `json:"rule_id"`
	Status             WorkflowStatus `json:"status"`
	StepsCompleted     []Step         `json:"steps_completed"`
	StepsFailed        []Step         `json:"steps_failed"`
	Errors             []string       `json:"errors"`
	ValidationWarnings int            `json:"validation_warnings"`
	RetriesUsed        int            `json:"retries_used"`
	TopicID            int64          `json:"topic_id,omitempty"`
	ArticleID          int64          `json:"article_id,omitempty"`
	WordPressPostID    *int64         `json:"wordpress_post_id,omitempty"`
	SocialPostIDs      []string       `json:"social_post_ids,omitempty"`
	StartedAt          time.Time      `json:"started_at"`
	FinishedAt         time.Time      `json:"finished_at"`
	Elapsed            time.Duration  `json:"elapsed"`
}

// SuccessRatio is the share of attempted steps that completed.
func (r WorkflowResult) SuccessRatio() float64 {
	total := len(r.StepsCompleted) + len(r.StepsFailed)
	if total == 0 {
		return 0
	}
	return float64(len(r.StepsCompleted)) / float64(total)
}

// ContentMetrics is the durable, append-only record of one run.
type ContentMetrics struct {
	ID             int64
	RuleID         int64
	WorkflowID     string
	ExecutionTime  time.Duration
	StepsCompleted int
	Success        bool
	ErrorSummary   string
	CreatedAt      time.Time
}
