package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

func extraction(summary, pain, user string) entity.Extraction {
	return entity.Extraction{SignalSummary: summary, PainPoint: pain, TargetUser: user}
}

func TestDedupe_Empty(t *testing.T) {
	assert.Nil(t, Dedupe(nil, DefaultThreshold, DefaultWeights()))
}

func TestDedupe_NoDuplicatesKeepsEveryItemAsItsOwnGroup(t *testing.T) {
	items := []Item{
		{PostID: "p1", Extraction: extraction("invoice reconciliation for freelancers", "manual matching takes hours", "freelance consultants")},
		{PostID: "p2", Extraction: extraction("recipe sharing app for home cooks", "hard to find recipes by ingredient", "home cooks")},
	}

	groups := Dedupe(items, DefaultThreshold, DefaultWeights())
	require.Len(t, groups, 2)
	assert.Equal(t, "p1", groups[0].CanonicalPostID)
	assert.Empty(t, groups[0].DuplicatePostIDs)
	assert.Equal(t, "p2", groups[1].CanonicalPostID)
	assert.Empty(t, groups[1].DuplicatePostIDs)
}

func TestDedupe_NearIdenticalItemsMergeIntoOneGroup(t *testing.T) {
	items := []Item{
		{PostID: "p1", Extraction: extraction("invoice reconciliation tool for freelancers", "manual matching takes hours", "freelance consultants")},
		{PostID: "p2", Extraction: extraction("invoice reconciliation tool for freelancers", "manual matching takes hours", "freelance consultants")},
		{PostID: "p3", Extraction: extraction("recipe sharing app for home cooks", "hard to find recipes", "home cooks")},
	}

	groups := Dedupe(items, DefaultThreshold, DefaultWeights())
	require.Len(t, groups, 2)
	assert.Equal(t, "p1", groups[0].CanonicalPostID)
	assert.Equal(t, []string{"p2"}, groups[0].DuplicatePostIDs)
	assert.Equal(t, "p3", groups[1].CanonicalPostID)
}

func TestDedupe_SentinelSummariesNeverMergeAndStaySingleton(t *testing.T) {
	sentinel := entity.Extraction{SignalSummary: "No viable idea in this thread"}
	items := []Item{
		{PostID: "p1", Extraction: sentinel},
		{PostID: "p2", Extraction: sentinel},
	}

	groups := Dedupe(items, DefaultThreshold, DefaultWeights())
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Empty(t, g.DuplicatePostIDs)
	}
}

func TestDedupe_FirstOccurrenceIsAlwaysCanonical(t *testing.T) {
	items := []Item{
		{PostID: "first", Extraction: extraction("budgeting app for freelancers", "tracking irregular income", "freelancers")},
		{PostID: "second", Extraction: extraction("budgeting app for freelancers", "tracking irregular income", "freelancers")},
	}

	groups := Dedupe(items, DefaultThreshold, DefaultWeights())
	require.Len(t, groups, 1)
	assert.Equal(t, "first", groups[0].CanonicalPostID)
	assert.Equal(t, []string{"second"}, groups[0].DuplicatePostIDs)
}

func TestDedupe_IsIdempotentOnItsOwnOutput(t *testing.T) {
	items := []Item{
		{PostID: "p1", Extraction: extraction("invoice reconciliation tool", "manual matching", "freelancers")},
		{PostID: "p2", Extraction: extraction("recipe sharing app", "hard to search", "home cooks")},
	}

	first := Dedupe(items, DefaultThreshold, DefaultWeights())

	canonicalOnly := make([]Item, 0, len(first))
	for _, g := range first {
		canonicalOnly = append(canonicalOnly, Item{PostID: g.CanonicalPostID, Extraction: g.Extraction})
	}
	second := Dedupe(canonicalOnly, DefaultThreshold, DefaultWeights())

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].CanonicalPostID, second[i].CanonicalPostID)
	}
}
