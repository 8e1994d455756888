package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterItems_EmptyInputSkipsTheCallEntirely(t *testing.T) {
	c := New("unused-test-key")
	got := c.ClusterItems(context.Background(), nil)
	assert.Nil(t, got)
}
