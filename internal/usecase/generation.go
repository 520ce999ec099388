package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogpilot/internal/domain"
	"blogpilot/internal/metrics"
	"blogpilot/internal/ports"
)

const seoTagCount = 5

// draft is one parsed generation candidate before acceptance.
type draft struct {
	Title   string
	Excerpt string
	Body    string
}

// genOutcome classifies one generation attempt.
type genOutcome struct {
	draft  *draft
	issues []string
	// retry holds the reason the attempt is spent; empty means accepted.
	retry string
}

// generateContent drives the bounded retry loop around the completion call.
// Each attempt runs under its own deadline; deadline expiry spends the
// attempt instead of crashing the run. The validator is advisory past the
// retry budget: the last parseable candidate is used anyway with its warning
// count recorded.
func (e *Engine) generateContent(ctx context.Context, r *run) stepOutcome {
	maxAttempts := e.policy.MaxRetries + 1

	var accepted *draft
	var acceptedIssues []string
	var lastCandidate *draft
	var lastIssues []string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r.result.RetriesUsed = attempt
		if attempt > 1 {
			metrics.GenerationRetries.Inc()
		}

		outcome := e.attemptGeneration(ctx, r.topic)
		if outcome.retry == "" {
			accepted = outcome.draft
			acceptedIssues = outcome.issues
			break
		}

		if outcome.draft != nil {
			lastCandidate = outcome.draft
			lastIssues = outcome.issues
		}
		e.warn("generation attempt failed",
			"workflow", r.result.WorkflowID,
			"attempt", attempt,
			"reason", outcome.retry)
		r.result.Errors = append(r.result.Errors, fmt.Sprintf("generation attempt %d: %s", attempt, outcome.retry))
	}

	if accepted == nil && lastCandidate != nil {
		// Quality gate is advisory once retries are exhausted.
		e.warn("retry budget exhausted, using last candidate despite validation issues",
			"workflow", r.result.WorkflowID,
			"issues", len(lastIssues))
		accepted = lastCandidate
		acceptedIssues = lastIssues
	}
	if accepted == nil {
		return hardFail(fmt.Sprintf("content generation exhausted after %d attempts", maxAttempts))
	}

	r.result.ValidationWarnings = len(acceptedIssues)
	metrics.ValidationIssues.Observe(float64(len(acceptedIssues)))

	article := &domain.Article{
		BlogID:  r.rule.BlogID,
		TopicID: r.topic.ID,
		Title:   accepted.Title,
		Body:    accepted.Body,
		Excerpt: accepted.Excerpt,
		Tags:    seoTags(r.topic, accepted.Title),
		Status:  domain.ArticleReady,
	}

	// One retry on a storage failure before giving up.
	if err := e.articles.SaveArticle(ctx, article); err != nil {
		e.warn("article persist failed, retrying once", "error", err)
		if err := e.articles.SaveArticle(ctx, article); err != nil {
			return hardFail(fmt.Sprintf("content generation: persist article: %v", err))
		}
	}

	r.article = article
	r.result.ArticleID = article.ID
	e.info("article generated",
		"workflow", r.result.WorkflowID,
		"article", article.ID,
		"attempts", r.result.RetriesUsed,
		"validation_issues", len(acceptedIssues))
	return stepOK
}

// attemptGeneration makes exactly one completion call under the configured
// deadline and classifies the result.
func (e *Engine) attemptGeneration(ctx context.Context, topic *domain.Topic) genOutcome {
	attemptCtx, cancel := context.WithTimeout(ctx, e.policy.GenerationTimeout)
	defer cancel()

	text, err := e.generator.Complete(attemptCtx, ports.CompletionRequest{
		Prompt:       buildArticlePrompt(topic),
		SystemPrompt: articleSystemPrompt,
		MaxTokens:    4000,
		Temperature:  0.7,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return genOutcome{retry: "attempt timed out"}
		}
		return genOutcome{retry: fmt.Sprintf("completion failed: %v", err)}
	}
	if strings.TrimSpace(text) == "" {
		return genOutcome{retry: "empty completion result"}
	}

	candidate, err := parseDraft(text)
	if err != nil {
		return genOutcome{retry: fmt.Sprintf("unparseable completion: %v", err)}
	}
	if candidate.Title == "" {
		return genOutcome{retry: "candidate has no title"}
	}
	if len(candidate.Body) < minBodyChars {
		return genOutcome{retry: fmt.Sprintf("candidate body below %d characters", minBodyChars)}
	}

	result := e.validator.Validate(candidate.Title, candidate.Excerpt, candidate.Body, topic.Category)
	if len(result.Errors) > maxAdvisoryIssues {
		return genOutcome{
			draft:  candidate,
			issues: result.Errors,
			retry:  fmt.Sprintf("%d validation issues exceed tolerance of %d", len(result.Errors), maxAdvisoryIssues),
		}
	}

	return genOutcome{draft: candidate, issues: result.Errors}
}

const articleSystemPrompt = "You are a professional blog writer. Answer in exactly this layout:\n" +
	"TITLE: <title>\nEXCERPT: <one-sentence teaser>\nBODY:\n<clean HTML using <p> and <h2> tags>"

func buildArticlePrompt(topic *domain.Topic) string {
	return fmt.Sprintf(
		"Write a complete blog article titled %q for the %q category. "+
			"Use at least 3 subheadings and at least 8 paragraphs of clean HTML. "+
			"The body must start and end with a paragraph.",
		topic.Title, topic.Category)
}

// parseDraft splits the TITLE/EXCERPT/BODY layout produced by the prompt.
func parseDraft(text string) (*draft, error) {
	var d draft

	rest := strings.TrimSpace(text)
	bodyIdx := strings.Index(rest, "BODY:")
	if bodyIdx < 0 {
		return nil, fmt.Errorf("missing BODY section")
	}
	d.Body = strings.TrimSpace(rest[bodyIdx+len("BODY:"):])

	for _, line := range strings.Split(rest[:bodyIdx], "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			d.Title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "EXCERPT:"):
			d.Excerpt = strings.TrimSpace(strings.TrimPrefix(line, "EXCERPT:"))
		}
	}

	return &d, nil
}

// seoTags produces the fixed-size tag set attached to every article: the
// category, the longest title words, padded with evergreen tags.
func seoTags(topic *domain.Topic, title string) []string {
	tags := []string{strings.ToLower(topic.Category)}

	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, `.,:;!?"'`)
		if len(word) > 4 && !contains(tags, word) {
			tags = append(tags, word)
		}
		if len(tags) == seoTagCount {
			return tags
		}
	}

	for _, filler := range []string{"blog", "guide", "tips", "insights"} {
		if len(tags) == seoTagCount {
			break
		}
		if !contains(tags, filler) {
			tags = append(tags, filler)
		}
	}
	return tags
}
