package llm

import (
	"context"
	"fmt"
	"strings"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

const topicSystemPrompt = "You are an editorial planner. Answer with one blog-post title per line, no numbering, no quotes."

// TopicGenerator proposes article subjects by asking the completion API for
// title lists.
type TopicGenerator struct {
	client ports.ContentGenerator
}

var _ ports.TopicGenerator = (*TopicGenerator)(nil)

// NewTopicGenerator wraps a completion client.
func NewTopicGenerator(client ports.ContentGenerator) *TopicGenerator {
	return &TopicGenerator{client: client}
}

// GenerateTopics asks for n titles in the given category and returns them as
// pending topics for the blog. Priority defaults to 5.
func (g *TopicGenerator) GenerateTopics(ctx context.Context, blogID, category string, n int) ([]domain.Topic, error) {
	prompt := fmt.Sprintf("Propose %d engaging blog post titles for the category %q. One title per line.", n, category)

	text, err := g.client.Complete(ctx, ports.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: topicSystemPrompt,
		MaxTokens:    500,
		Temperature:  0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("generate topics for %s: %w", category, err)
	}

	var topics []domain.Topic
	for _, line := range strings.Split(text, "\n") {
		title := strings.Trim(strings.TrimSpace(line), `"'-*`)
		if title == "" {
			continue
		}
		topics = append(topics, domain.Topic{
			BlogID:   blogID,
			Title:    title,
			Category: category,
			Priority: 5,
			Status:   domain.TopicPending,
		})
		if len(topics) == n {
			break
		}
	}

	if len(topics) == 0 {
		return nil, fmt.Errorf("no usable titles for category %s", category)
	}

	return topics, nil
}
