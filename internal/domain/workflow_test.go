package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowResultRoundTrip(t *testing.T) {
	postID := int64(321)
	original := WorkflowResult{
		WorkflowID: "3e9a1c4b-run",
		RuleID:     7,
		Status:     WorkflowCompleted,
		StepsCompleted: []Step{
			StepTopicManagement, StepTopicSelection, StepContentGeneration,
			StepPublishing, StepMetricsUpdate,
		},
		StepsFailed:        []Step{StepImageAcquisition},
		Errors:             []string{"image acquisition: no images found", "social posting: telegram: timeout"},
		ValidationWarnings: 2,
		RetriesUsed:        1,
		TopicID:            15,
		ArticleID:          9,
		WordPressPostID:    &postID,
		SocialPostIDs:      []string{"telegram-100"},
		StartedAt:          time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC),
		FinishedAt:         time.Date(2026, 3, 1, 6, 2, 30, 0, time.UTC),
		Elapsed:            150 * time.Second,
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded WorkflowResult
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	// Step order and the error list must survive persistence exactly.
	assert.Equal(t, original.StepsCompleted, decoded.StepsCompleted)
	assert.Equal(t, original.StepsFailed, decoded.StepsFailed)
	assert.Equal(t, original.Errors, decoded.Errors)
	assert.Equal(t, original, decoded)
}

func TestSuccessRatio(t *testing.T) {
	r := WorkflowResult{
		StepsCompleted: []Step{StepTopicManagement, StepTopicSelection, StepContentGeneration},
		StepsFailed:    []Step{StepImageAcquisition},
	}
	assert.InDelta(t, 0.75, r.SuccessRatio(), 1e-9)

	assert.Zero(t, WorkflowResult{}.SuccessRatio())
}

func TestRuleMatchesCategory(t *testing.T) {
	rule := AutomationRule{Categories: []string{"technology", "science"}}
	assert.True(t, rule.MatchesCategory("science"))
	assert.False(t, rule.MatchesCategory("travel"))

	open := AutomationRule{}
	assert.True(t, open.MatchesCategory("anything"))
}
