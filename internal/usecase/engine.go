package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogpilot/internal/domain"
	"blogpilot/internal/metrics"
	"blogpilot/internal/ports"
	"blogpilot/internal/rotation"
	"blogpilot/internal/validator"
)

const (
	defaultMaxRetries     = 2
	defaultGenTimeout     = 180 * time.Second
	defaultMinTopicBuffer = 5
	defaultTopicBatch     = 10
	defaultCategoryID     = 1

	// maxAdvisoryIssues is the validator tolerance inside the retry budget.
	maxAdvisoryIssues = 3
	// minBodyChars is the absolute floor below which a candidate is rejected
	// regardless of what the validator says.
	minBodyChars = 200
	// maxImages caps how many search hits are attached to an article.
	maxImages = 3
	// claimWindow bounds how many eligible topics one run will try to claim.
	claimWindow = 10
)

// Policy tunes the engine's retry and topic thresholds. Zero values pick the
// documented defaults.
type Policy struct {
	MaxRetries        int
	GenerationTimeout time.Duration
	MinTopicBuffer    int
	TopicBatchSize    int
	DefaultCategoryID int64
	SocialChannels    []string
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries == 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.GenerationTimeout == 0 {
		p.GenerationTimeout = defaultGenTimeout
	}
	if p.MinTopicBuffer == 0 {
		p.MinTopicBuffer = defaultMinTopicBuffer
	}
	if p.TopicBatchSize == 0 {
		p.TopicBatchSize = defaultTopicBatch
	}
	if p.DefaultCategoryID == 0 {
		p.DefaultCategoryID = defaultCategoryID
	}
	return p
}

// Deps wires all driven adapters into the workflow engine.
type Deps struct {
	Topics    ports.TopicRepository
	Articles  ports.ArticleRepository
	Metrics   ports.MetricsRepository
	Generator ports.ContentGenerator
	TopicGen  ports.TopicGenerator
	Images    ports.ImageSearcher
	Media     ports.MediaFetcher
	CMS       ports.CMSClient
	Social    ports.SocialPoster
	Notifier  ports.Notifier
	Rotation  *rotation.Manager
	Validator *validator.Validator
	Logger    *slog.Logger
	Policy    Policy
	Clock     func() time.Time
}

// Engine executes one deterministic pipeline per automation rule. It owns
// retry and timeout policy and failure classification; no error or panic
// escapes Run.
type Engine struct {
	topics    ports.TopicRepository
	articles  ports.ArticleRepository
	metrics   ports.MetricsRepository
	generator ports.ContentGenerator
	topicGen  ports.TopicGenerator
	images    ports.ImageSearcher
	media     ports.MediaFetcher
	cms       ports.CMSClient
	social    ports.SocialPoster
	notifier  ports.Notifier
	rotation  *rotation.Manager
	validator *validator.Validator
	logger    *slog.Logger
	policy    Policy
	now       func() time.Time
}

// NewEngine constructs the orchestration component.
func NewEngine(deps Deps) *Engine {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	v := deps.Validator
	if v == nil {
		v = validator.New()
	}
	return &Engine{
		topics:    deps.Topics,
		articles:  deps.Articles,
		metrics:   deps.Metrics,
		generator: deps.Generator,
		topicGen:  deps.TopicGen,
		images:    deps.Images,
		media:     deps.Media,
		cms:       deps.CMS,
		social:    deps.Social,
		notifier:  deps.Notifier,
		rotation:  deps.Rotation,
		validator: v,
		logger:    deps.Logger,
		policy:    deps.Policy.withDefaults(),
		now:       now,
	}
}

// run tracks the mutable state of one pipeline execution.
type run struct {
	rule      domain.AutomationRule
	result    domain.WorkflowResult
	topic     *domain.Topic
	article   *domain.Article
	published bool
}

// stepOutcome classifies one step's result explicitly instead of threading
// errors through control flow.
type stepOutcome struct {
	hard   bool
	reason string
}

var stepOK = stepOutcome{}

func softFail(reason string) stepOutcome { return stepOutcome{reason: reason} }
func hardFail(reason string) stepOutcome { return stepOutcome{hard: true, reason: reason} }

// Run executes the full pipeline for one rule and returns the finalized
// result. The metrics step always executes, even after a hard failure or a
// panic inside a step.
func (e *Engine) Run(ctx context.Context, rule domain.AutomationRule) domain.WorkflowResult {
	start := e.now()
	r := &run{
		rule: rule,
		result: domain.WorkflowResult{
			WorkflowID:     uuid.NewString(),
			RuleID:         rule.ID,
			Status:         domain.WorkflowRunning,
			StepsCompleted: []domain.Step{},
			StepsFailed:    []domain.Step{},
			Errors:         []string{},
			StartedAt:      start,
		},
	}

	e.info("workflow started", "workflow", r.result.WorkflowID, "rule", rule.ID, "blog", rule.BlogID)

	e.executeSteps(ctx, r)
	e.updateMetrics(ctx, r)

	if r.result.Status == domain.WorkflowRunning {
		r.result.Status = domain.WorkflowCompleted
	}
	r.result.FinishedAt = e.now()
	r.result.Elapsed = r.result.FinishedAt.Sub(start)

	metrics.ObserveRun(string(r.result.Status), r.result.Elapsed.Seconds())
	e.info("workflow finished",
		"workflow", r.result.WorkflowID,
		"status", r.result.Status,
		"steps", len(r.result.StepsCompleted),
		"errors", len(r.result.Errors),
		"elapsed", r.result.Elapsed)

	return r.result
}

// executeSteps walks the pipeline; a hard outcome stops everything except the
// metrics step, a soft outcome is recorded and the walk continues.
func (e *Engine) executeSteps(ctx context.Context, r *run) {
	defer func() {
		if rec := recover(); rec != nil {
			reason := fmt.Sprintf("unexpected failure: %v", rec)
			e.failRun(ctx, r, reason)
		}
	}()

	steps := []struct {
		name domain.Step
		fn   func(context.Context, *run) stepOutcome
		skip func(*run) bool
	}{
		{name: domain.StepTopicManagement, fn: e.manageTopics},
		{name: domain.StepTopicSelection, fn: e.selectTopic},
		{name: domain.StepContentGeneration, fn: e.generateContent},
		{name: domain.StepImageAcquisition, fn: e.acquireImages},
		{name: domain.StepPublishing, fn: e.publish, skip: func(r *run) bool { return !r.rule.AutoPublish }},
		{name: domain.StepSocialPosting, fn: e.postSocial, skip: func(r *run) bool { return !r.published || !r.rule.AutoSocialPost }},
	}

	for _, step := range steps {
		if step.skip != nil && step.skip(r) {
			e.debug("step skipped", "workflow", r.result.WorkflowID, "step", step.name)
			continue
		}

		outcome := step.fn(ctx, r)
		if outcome == stepOK {
			r.result.StepsCompleted = append(r.result.StepsCompleted, step.name)
			continue
		}

		r.result.StepsFailed = append(r.result.StepsFailed, step.name)
		r.result.Errors = append(r.result.Errors, outcome.reason)
		metrics.StepFailures.WithLabelValues(string(step.name)).Inc()

		if outcome.hard {
			e.failRun(ctx, r, outcome.reason)
			return
		}
		e.warn("step failed, continuing", "workflow", r.result.WorkflowID, "step", step.name, "reason", outcome.reason)
	}
}

func (e *Engine) failRun(ctx context.Context, r *run, reason string) {
	r.result.Status = domain.WorkflowFailed
	if !contains(r.result.Errors, reason) {
		r.result.Errors = append(r.result.Errors, reason)
	}
	e.warn("workflow failed", "workflow", r.result.WorkflowID, "rule", r.rule.ID, "reason", reason)

	if e.notifier != nil {
		if err := e.notifier.NotifyFailure(ctx, r.rule.ID, reason); err != nil {
			e.warn("failure notification not delivered", "error", err)
		}
	}
}

// manageTopics replenishes the approved-topic buffer when it runs low.
func (e *Engine) manageTopics(ctx context.Context, r *run) stepOutcome {
	count, err := e.topics.CountEligible(ctx, r.rule.BlogID, r.rule.Categories)
	if err != nil {
		return hardFail(fmt.Sprintf("topic management: count eligible: %v", err))
	}
	if count >= e.policy.MinTopicBuffer {
		return stepOK
	}

	status := domain.TopicPending
	if r.rule.AutoApproveTopics {
		status = domain.TopicApproved
	}

	for _, category := range r.rule.Categories {
		topics, err := e.topicGen.GenerateTopics(ctx, r.rule.BlogID, category, e.policy.TopicBatchSize)
		if err != nil {
			return hardFail(fmt.Sprintf("topic management: generate for %s: %v", category, err))
		}
		for i := range topics {
			topics[i].Status = status
			if err := e.topics.SaveTopic(ctx, &topics[i]); err != nil {
				return hardFail(fmt.Sprintf("topic management: persist topic: %v", err))
			}
		}
		e.debug("topics replenished", "category", category, "count", len(topics), "status", status)
	}

	return stepOK
}

// selectTopic reserves the oldest highest-priority eligible topic. The claim
// is a single conditional write, so a concurrent run can never win the same
// topic.
func (e *Engine) selectTopic(ctx context.Context, r *run) stepOutcome {
	candidates, err := e.topics.ListEligible(ctx, r.rule.BlogID, r.rule.Categories, claimWindow)
	if err != nil {
		return hardFail(fmt.Sprintf("topic selection: %v", err))
	}

	for i := range candidates {
		claimed, err := e.topics.Claim(ctx, candidates[i].ID, e.now())
		if err != nil {
			return hardFail(fmt.Sprintf("topic selection: claim: %v", err))
		}
		if claimed {
			r.topic = &candidates[i]
			r.result.TopicID = candidates[i].ID
			e.info("topic reserved", "workflow", r.result.WorkflowID, "topic", candidates[i].ID, "title", candidates[i].Title)
			return stepOK
		}
	}

	return hardFail("topic selection: no topics available")
}

// acquireImages is best-effort: any failure logs and the run continues
// without a featured image.
func (e *Engine) acquireImages(ctx context.Context, r *run) stepOutcome {
	if r.article == nil {
		return softFail("image acquisition: no article to attach images to")
	}
	if e.images == nil {
		return softFail("image acquisition: no provider configured")
	}

	results, err := e.images.Search(ctx, r.topic.Title, maxImages, "landscape")
	if err != nil {
		return softFail(fmt.Sprintf("image acquisition: %v", err))
	}
	if len(results) == 0 {
		return softFail("image acquisition: no images found")
	}
	if len(results) > maxImages {
		results = results[:maxImages]
	}

	for _, img := range results {
		r.article.ImageURLs = append(r.article.ImageURLs, img.URL)
	}
	r.article.FeaturedImageURL = results[0].URL

	if err := e.articles.SaveArticle(ctx, r.article); err != nil {
		return softFail(fmt.Sprintf("image acquisition: persist images: %v", err))
	}

	return stepOK
}

// publish resolves author and metadata against the CMS and creates the post.
// Every failure here is soft: the run continues to metrics, social posting
// is skipped.
func (e *Engine) publish(ctx context.Context, r *run) stepOutcome {
	if r.article == nil {
		return softFail("publishing: no article to publish")
	}

	author, err := e.rotation.AssignAuthor(ctx, r.rule.BlogID, r.topic.Category, r.topic.ID, r.rule.DailyQuota)
	if err != nil {
		return softFail(fmt.Sprintf("publishing: resolve author: %v", err))
	}
	r.article.AuthorID = author.ID
	// The assignment has to reach storage before the post exists: the
	// publication counts that drive fairness group by the stored author_id.
	if err := e.articles.SaveArticle(ctx, r.article); err != nil {
		return softFail(fmt.Sprintf("publishing: persist author assignment: %v", err))
	}

	categoryID, err := e.cms.FindCategoryID(ctx, r.topic.Category)
	if err != nil || categoryID == 0 {
		if err != nil {
			e.warn("category lookup failed, using default", "category", r.topic.Category, "error", err)
		}
		categoryID = e.policy.DefaultCategoryID
	}

	tagIDs, err := e.cms.CreateOrFindTags(ctx, r.article.Tags)
	if err != nil {
		e.warn("tag resolution failed, publishing without tags", "error", err)
		tagIDs = nil
	}

	var mediaID int64
	if r.article.FeaturedImageURL != "" && e.media != nil {
		data, err := e.media.Fetch(ctx, r.article.FeaturedImageURL)
		if err != nil {
			e.warn("featured image fetch failed", "error", err)
		} else {
			mediaID, err = e.cms.UploadMedia(ctx, fmt.Sprintf("featured-%d.jpg", r.article.ID), data)
			if err != nil {
				e.warn("featured image upload failed", "error", err)
				mediaID = 0
			}
		}
	}

	postID, err := e.cms.CreatePost(ctx, ports.PostRequest{
		Title:           r.article.Title,
		Body:            r.article.Body,
		Excerpt:         r.article.Excerpt,
		Status:          "publish",
		AuthorID:        author.ID,
		CategoryIDs:     []int64{categoryID},
		TagIDs:          tagIDs,
		FeaturedMediaID: mediaID,
	})
	if err != nil {
		return softFail(fmt.Sprintf("publishing: create post: %v", err))
	}

	now := e.now()
	r.article.WordPressPostID = &postID
	r.article.Status = domain.ArticlePublished
	r.article.PublishedAt = &now
	r.result.WordPressPostID = &postID
	r.published = true

	if err := e.articles.MarkPublished(ctx, r.article.ID, postID, now); err != nil {
		e.warn("post created but publish state not persisted", "article", r.article.ID, "error", err)
	}

	e.info("article published", "workflow", r.result.WorkflowID, "article", r.article.ID, "post", postID, "author", author.Name)
	return stepOK
}

// postSocial announces the published article; per-channel failures are
// collected but never abort the step chain.
func (e *Engine) postSocial(ctx context.Context, r *run) stepOutcome {
	if e.social == nil || len(e.policy.SocialChannels) == 0 {
		return softFail("social posting: no channels configured")
	}

	message := fmt.Sprintf("New post: %s\n\n%s", r.article.Title, r.article.Excerpt)

	var failures []string
	for _, channel := range e.policy.SocialChannels {
		postID, err := e.social.Post(ctx, channel, message)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", channel, err))
			e.warn("social post failed", "channel", channel, "error", err)
			continue
		}
		r.result.SocialPostIDs = append(r.result.SocialPostIDs, postID)
	}

	if len(failures) == len(e.policy.SocialChannels) {
		return softFail("social posting: " + strings.Join(failures, "; "))
	}
	for _, f := range failures {
		r.result.Errors = append(r.result.Errors, "social posting: "+f)
	}
	return stepOK
}

// updateMetrics always runs, recording partial progress even for failed runs.
func (e *Engine) updateMetrics(ctx context.Context, r *run) {
	elapsed := e.now().Sub(r.result.StartedAt)

	if r.article != nil && e.metrics != nil {
		m := domain.ContentMetrics{
			RuleID:         r.rule.ID,
			WorkflowID:     r.result.WorkflowID,
			ExecutionTime:  elapsed,
			StepsCompleted: len(r.result.StepsCompleted),
			Success:        r.result.Status != domain.WorkflowFailed,
			ErrorSummary:   strings.Join(r.result.Errors, "; "),
		}
		if err := e.metrics.SaveMetrics(ctx, m); err != nil {
			r.result.StepsFailed = append(r.result.StepsFailed, domain.StepMetricsUpdate)
			r.result.Errors = append(r.result.Errors, fmt.Sprintf("metrics update: %v", err))
			return
		}
	}

	r.result.StepsCompleted = append(r.result.StepsCompleted, domain.StepMetricsUpdate)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func (e *Engine) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
