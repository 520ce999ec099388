package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpilot/internal/domain"
)

func TestParseDraft(t *testing.T) {
	text := "TITLE: Release trains without the drama\n" +
		"EXCERPT: A short teaser sentence about the article below.\n" +
		"BODY:\n<p>First paragraph.</p>\n<h2>Heading</h2>\n<p>Second paragraph.</p>"

	d, err := parseDraft(text)
	require.NoError(t, err)
	assert.Equal(t, "Release trains without the drama", d.Title)
	assert.Equal(t, "A short teaser sentence about the article below.", d.Excerpt)
	assert.True(t, len(d.Body) > 0)
	assert.Contains(t, d.Body, "<h2>Heading</h2>")
}

func TestParseDraftMissingBody(t *testing.T) {
	_, err := parseDraft("TITLE: something\nEXCERPT: something else")
	require.Error(t, err)
}

func TestSeoTagsFixedSize(t *testing.T) {
	topic := &domain.Topic{Category: "Technology"}

	tags := seoTags(topic, "Running Kubernetes Clusters Without Tears")
	require.Len(t, tags, 5)
	assert.Equal(t, "technology", tags[0])
	assert.Contains(t, tags, "running")
	assert.Contains(t, tags, "kubernetes")

	// Short titles are padded with evergreen fillers up to the fixed size.
	tags = seoTags(topic, "Go now")
	require.Len(t, tags, 5)
	assert.Contains(t, tags, "blog")
}
