package analyst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

func TestFormatComments_Empty(t *testing.T) {
	assert.Equal(t, noCommentsSentinel, formatComments(nil))
	assert.Equal(t, noCommentsSentinel, formatComments([]string{}))
}

func TestFormatComments_IndexesFromZero(t *testing.T) {
	got := formatComments([]string{"first", "second"})
	assert.Equal(t, "[0] first\n[1] second", got)
}

func TestBodyOrSentinel(t *testing.T) {
	assert.Equal(t, noBodySentinel, bodyOrSentinel(""))
	assert.Equal(t, noBodySentinel, bodyOrSentinel("   "))
	assert.Equal(t, "real body", bodyOrSentinel("real body"))
}

func TestBuildUserPrompt_IncludesTitleBodyAndIndexedComments(t *testing.T) {
	post := entity.Post{
		Title:       "Invoicing is painful",
		Body:        "",
		TopComments: []string{"I'd pay for this", "me too"},
	}

	prompt := buildUserPrompt(post)

	assert.Contains(t, prompt, "Title: Invoicing is painful")
	assert.Contains(t, prompt, noBodySentinel)
	assert.Contains(t, prompt, "[0] I'd pay for this")
	assert.Contains(t, prompt, "[1] me too")
}

func TestSystemPrompt_CoversRubricAndDisqualifyRules(t *testing.T) {
	for _, want := range []string{
		"extraction_state", "practicality", "profitability", "distribution",
		"competition", "moat", "distribution_wedge", "UNTRUSTED DATA",
		"AI wrapper",
	} {
		assert.True(t, strings.Contains(systemPrompt, want), "system prompt missing %q", want)
	}
}
