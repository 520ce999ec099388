package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

// In-memory collaborators mirroring the contracts the engine depends on,
// including the claim-once topic semantics.

type fakeTopics struct {
	topics  map[int64]*domain.Topic
	nextID  int64
	saveErr error
}

func newFakeTopics() *fakeTopics {
	return &fakeTopics{topics: map[int64]*domain.Topic{}}
}

func (f *fakeTopics) seed(t domain.Topic) *domain.Topic {
	f.nextID++
	t.ID = f.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Second)
	}
	f.topics[t.ID] = &t
	return &t
}

func (f *fakeTopics) eligible(blogID string, categories []string) []*domain.Topic {
	var out []*domain.Topic
	for _, t := range f.topics {
		if t.BlogID != blogID || t.Status != domain.TopicApproved || t.Used {
			continue
		}
		if len(categories) > 0 {
			match := false
			for _, c := range categories {
				if c == t.Category {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeTopics) CountEligible(ctx context.Context, blogID string, categories []string) (int, error) {
	return len(f.eligible(blogID, categories)), nil
}

func (f *fakeTopics) ListEligible(ctx context.Context, blogID string, categories []string, limit int) ([]domain.Topic, error) {
	var out []domain.Topic
	for _, t := range f.eligible(blogID, categories) {
		out = append(out, *t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTopics) Claim(ctx context.Context, topicID int64, at time.Time) (bool, error) {
	t, ok := f.topics[topicID]
	if !ok || t.Status != domain.TopicApproved || t.Used {
		return false, nil
	}
	t.Status = domain.TopicUsed
	t.Used = true
	t.UsedAt = &at
	return true, nil
}

func (f *fakeTopics) SaveTopic(ctx context.Context, topic *domain.Topic) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	saved := f.seed(*topic)
	topic.ID = saved.ID
	return nil
}

func (f *fakeTopics) SetStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error {
	if t, ok := f.topics[topicID]; ok {
		t.Status = status
	}
	return nil
}

type fakeArticles struct {
	articles     map[int64]*domain.Article
	nextID       int64
	failSaves    int // fail this many SaveArticle calls before succeeding
	saveAttempts int
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{articles: map[int64]*domain.Article{}}
}

func (f *fakeArticles) SaveArticle(ctx context.Context, article *domain.Article) error {
	f.saveAttempts++
	if f.failSaves > 0 {
		f.failSaves--
		return fmt.Errorf("storage unavailable")
	}
	if article.ID == 0 {
		f.nextID++
		article.ID = f.nextID
		article.CreatedAt = time.Now()
	}
	copied := *article
	f.articles[article.ID] = &copied
	return nil
}

func (f *fakeArticles) MarkPublished(ctx context.Context, articleID, postID int64, at time.Time) error {
	a, ok := f.articles[articleID]
	if !ok {
		return fmt.Errorf("article %d not found", articleID)
	}
	a.Status = domain.ArticlePublished
	a.WordPressPostID = &postID
	a.PublishedAt = &at
	return nil
}

func (f *fakeArticles) CountPublishedSince(ctx context.Context, blogID string, since time.Time) (map[int64]int, error) {
	counts := map[int64]int{}
	for _, a := range f.articles {
		if a.BlogID == blogID && a.Status == domain.ArticlePublished &&
			a.PublishedAt != nil && !a.PublishedAt.Before(since) {
			counts[a.AuthorID]++
		}
	}
	return counts, nil
}

type fakeMetrics struct {
	saved []domain.ContentMetrics
}

func (f *fakeMetrics) SaveMetrics(ctx context.Context, m domain.ContentMetrics) error {
	f.saved = append(f.saved, m)
	return nil
}

type genReply struct {
	text string
	err  error
}

type fakeGenerator struct {
	replies []genReply
	calls   int
}

func (f *fakeGenerator) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	idx := f.calls
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.calls++
	reply := f.replies[idx]
	return reply.text, reply.err
}

type fakeTopicGen struct {
	fail bool
}

func (f *fakeTopicGen) GenerateTopics(ctx context.Context, blogID, category string, n int) ([]domain.Topic, error) {
	if f.fail {
		return nil, fmt.Errorf("upstream unavailable")
	}
	topics := make([]domain.Topic, 0, n)
	for i := 0; i < n; i++ {
		topics = append(topics, domain.Topic{
			BlogID:   blogID,
			Title:    fmt.Sprintf("Generated subject %d for %s readers", i+1, category),
			Category: category,
			Priority: 5,
			Status:   domain.TopicPending,
		})
	}
	return topics, nil
}

type fakeImages struct {
	results []domain.ImageResult
	err     error
}

func (f *fakeImages) Search(ctx context.Context, query string, perPage int, orientation string) ([]domain.ImageResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeMedia struct{}

func (f *fakeMedia) Fetch(ctx context.Context, url string) ([]byte, error) {
	return []byte("jpeg-bytes"), nil
}

type fakeCMS struct {
	categoryID    int64
	categoryErr   error
	tagErr        error
	postID        int64
	createPostErr error
	lastPost      struct {
		authorID        int64
		categoryIDs     []int64
		tagIDs          []int64
		featuredMediaID int64
	}
}

func (f *fakeCMS) FindCategoryID(ctx context.Context, name string) (int64, error) {
	return f.categoryID, f.categoryErr
}

func (f *fakeCMS) CreateOrFindTags(ctx context.Context, names []string) ([]int64, error) {
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	ids := make([]int64, len(names))
	for i := range names {
		ids[i] = int64(100 + i)
	}
	return ids, nil
}

func (f *fakeCMS) UploadMedia(ctx context.Context, filename string, data []byte) (int64, error) {
	return 55, nil
}

func (f *fakeCMS) CreatePost(ctx context.Context, req ports.PostRequest) (int64, error) {
	if f.createPostErr != nil {
		return 0, f.createPostErr
	}
	f.lastPost.authorID = req.AuthorID
	f.lastPost.categoryIDs = req.CategoryIDs
	f.lastPost.tagIDs = req.TagIDs
	f.lastPost.featuredMediaID = req.FeaturedMediaID
	if f.postID == 0 {
		return 777, nil
	}
	return f.postID, nil
}

type fakeSocial struct {
	err    error
	posted []string
}

func (f *fakeSocial) Post(ctx context.Context, channel, message string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := fmt.Sprintf("%s-msg-%d", channel, len(f.posted)+1)
	f.posted = append(f.posted, id)
	return id, nil
}

type fakeNotifier struct {
	notices []string
}

func (f *fakeNotifier) NotifyFailure(ctx context.Context, ruleID int64, summary string) error {
	f.notices = append(f.notices, fmt.Sprintf("rule %d: %s", ruleID, summary))
	return nil
}

// validDraft builds a generator reply that passes every validator rule:
// 3 headings, 9 paragraphs, well over the word and character minimums.
func validDraft() string {
	sentence := "Modern engineering teams ship reliable software by measuring real outcomes in production every single week. "
	paragraph := "<p>" + strings.Repeat(sentence, 7) + "</p>\n"

	var b strings.Builder
	b.WriteString("TITLE: A Practical Guide to Reliable Release Engineering\n")
	b.WriteString("EXCERPT: Learn how disciplined release habits keep production calm while the team keeps moving quickly.\n")
	b.WriteString("BODY:\n")
	b.WriteString(paragraph)
	for block := 0; block < 3; block++ {
		b.WriteString(fmt.Sprintf("<h2>Lesson number %d from the field</h2>\n", block+1))
		b.WriteString(paragraph)
		b.WriteString(paragraph)
	}
	b.WriteString(paragraph)
	b.WriteString(paragraph)
	return b.String()
}

// sloppyDraft builds a candidate that clears the engine's floor checks but
// racks up far more validator issues than the tolerance allows.
func sloppyDraft() string {
	return "TITLE: Short bad title!!!\n" +
		"EXCERPT: tiny\n" +
		"BODY:\n" +
		"<div>" + strings.Repeat("A short body without structure or substance. ", 6) + "</div>"
}
