package domain

import "time"

// ArticleStatus enumerates the persisted article lifecycle.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticleReady     ArticleStatus = "ready"
	ArticlePublished ArticleStatus = "published"
	ArticleFailed    ArticleStatus = "failed"
)

// Article is the canonical content record produced by one workflow run.
// The engine owns it for the duration of the run; after publication it is
// only read for metrics and image bookkeeping.
type Article struct {
	ID               int64
	BlogID           string
	TopicID          int64
	AuthorID         int64
	Title            string
	Body             string
	Excerpt          string
	Tags             []string
	Status           ArticleStatus
	WordPressPostID  *int64
	FeaturedImageURL string
	ImageURLs        []string
	CreatedAt        time.Time
	PublishedAt      *time.Time
}

// Author is an external publishing identity. Rosters are provided per blog;
// the engine never creates authors.
type Author struct {
	ID          int64
	Name        string
	Specialties []string
	Weight      int
}

// Specializes reports whether the author declares the category as a specialty.
func (a Author) Specializes(category string) bool {
	for _, s := range a.Specialties {
		if s == category {
			return true
		}
	}
	return false
}

// ImageResult is a single hit from an image-search provider.
type ImageResult struct {
	URL          string
	ThumbnailURL string
	Width        int
	Height       int
	Attribution  string
}
