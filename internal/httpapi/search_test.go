package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchRequestNormalizeAppliesDefaults(t *testing.T) {
	in := searchRequest{Query: "guitar lessons"}
	in.normalize()
	require.Equal(t, defaultSearchLimit, in.Limit)
	require.InDelta(t, defaultSearchThreshold, in.Threshold, 0.0001)
}

func TestSearchRequestNormalizeKeepsExplicitValues(t *testing.T) {
	in := searchRequest{Query: "guitar lessons", Limit: 5, Threshold: 0.8}
	in.normalize()
	require.Equal(t, 5, in.Limit)
	require.InDelta(t, 0.8, in.Threshold, 0.0001)
}

func TestSearchRequestNormalizeTreatsNegativeThresholdAsUnset(t *testing.T) {
	in := searchRequest{Query: "guitar lessons", Threshold: -1}
	in.normalize()
	require.InDelta(t, defaultSearchThreshold, in.Threshold, 0.0001)
}
