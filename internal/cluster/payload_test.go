package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleClustersJSON = `{
  "clusters": [
    {
      "title": "Invoice Reconciliation Fatigue",
      "summary": "Freelancers waste hours manually matching invoices to bank deposits.",
      "target_audience": "freelance consultants",
      "why_it_matters": "recurring, time-boxed pain with clear willingness to pay",
      "signal_ids": [1, 2],
      "quotes": ["I'd pay $50/mo for this"],
      "urls": ["https://reddit.com/r/freelance/1"]
    }
  ]
}`

func TestParseClusters_DecodesValidPayload(t *testing.T) {
	clusters := parseClusters([]byte(sampleClustersJSON))
	require.Len(t, clusters, 1)
	assert.Equal(t, "Invoice Reconciliation Fatigue", clusters[0].Title)
	assert.Equal(t, []int64{1, 2}, clusters[0].SignalIDs)
}

func TestParseClusters_MalformedJSONReturnsNil(t *testing.T) {
	assert.Nil(t, parseClusters([]byte(`not json`)))
}

func TestParseClusters_DropsClusterMissingTitleOrSignalIDs(t *testing.T) {
	raw := `{"clusters": [{"title": "", "signal_ids": [1]}, {"title": "ok", "signal_ids": []}]}`
	assert.Empty(t, parseClusters([]byte(raw)))
}

func TestParseClusters_EmptyClustersListIsEmptyNotNilError(t *testing.T) {
	clusters := parseClusters([]byte(`{"clusters": []}`))
	assert.Empty(t, clusters)
}
