package ports

import (
	"context"
	"time"

	"blogpilot/internal/domain"
)

// CompletionRequest carries one AI text-completion call.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// ContentGenerator produces article text from a prompt. Implementations retry
// transient upstream failures internally; a hard error here means the attempt
// is spent.
type ContentGenerator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TopicGenerator proposes fresh article subjects for a blog category.
type TopicGenerator interface {
	GenerateTopics(ctx context.Context, blogID, category string, n int) ([]domain.Topic, error)
}

// ImageSearcher finds candidate images for a query. An empty result is not
// an error.
type ImageSearcher interface {
	Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error)
}

// MediaFetcher downloads image bytes for re-upload to the CMS.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PostRequest is the payload for creating a CMS post.
type PostRequest struct {
	Title           string
	Body            string
	Excerpt         string
	Status          string
	AuthorID        int64
	CategoryIDs     []int64
	TagIDs          []int64
	FeaturedMediaID int64
}

// CMSClient publishes to the external content-management system. All calls
// are remote; any non-2xx response surfaces as an error.
type CMSClient interface {
	FindCategoryID(ctx context.Context, name string) (int64, error)
	CreateOrFindTags(ctx context.Context, names []string) ([]int64, error)
	UploadMedia(ctx context.Context, filename string, data []byte) (int64, error)
	CreatePost(ctx context.Context, req PostRequest) (int64, error)
}

// SocialPoster pushes an announcement to one outbound channel.
type SocialPoster interface {
	Post(ctx context.Context, channel, message string) (string, error)
}

// Notifier delivers diagnostic messages about failed runs.
type Notifier interface {
	NotifyFailure(ctx context.Context, ruleID int64, summary string) error
}

// RuleRepository reads automation rules.
type RuleRepository interface {
	GetRule(ctx context.Context, id int64) (domain.AutomationRule, error)
	ListActiveRules(ctx context.Context) ([]domain.AutomationRule, error)
}

// TopicRepository stores candidate subjects. Claim performs the atomic
// approved→used reservation and reports whether this caller won it.
type TopicRepository interface {
	CountEligible(ctx context.Context, blogID string, categories []string) (int, error)
	ListEligible(ctx context.Context, blogID string, categories []string, limit int) ([]domain.Topic, error)
	Claim(ctx context.Context, topicID int64, at time.Time) (bool, error)
	SaveTopic(ctx context.Context, topic *domain.Topic) error
	SetStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error
}

// ArticleRepository persists generated articles.
type ArticleRepository interface {
	SaveArticle(ctx context.Context, article *domain.Article) error
	MarkPublished(ctx context.Context, articleID, postID int64, at time.Time) error
	CountPublishedSince(ctx context.Context, blogID string, since time.Time) (map[int64]int, error)
}

// MetricsRepository appends run metrics rows.
type MetricsRepository interface {
	SaveMetrics(ctx context.Context, m domain.ContentMetrics) error
}

// RosterProvider returns an immutable snapshot of the publishing roster for
// a blog. Order must be stable between calls.
type RosterProvider interface {
	Roster(ctx context.Context, blogID string) ([]domain.Author, error)
}

// Scheduler controls when workflow runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
