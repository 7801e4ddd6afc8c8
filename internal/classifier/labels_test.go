package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLabelOrder(t *testing.T) {
	require.Len(t, Labels, ClassCount)
	assert.Equal(t, []Label{Bacteria, Fungi, Nematode, Pest, Pythopthora, Virus, Healthy}, Labels)
}

func TestRecommendationsForEveryLabel(t *testing.T) {
	for _, label := range Labels {
		recs := RecommendationsFor(label)
		require.Len(t, recs, 5, "label %s", label)
		for i, rec := range recs {
			assert.NotEmpty(t, rec, "label %s recommendation %d", label, i)
		}
	}
}

func TestRecommendationsFallback(t *testing.T) {
	recs := RecommendationsFor(Label("Unknown"))
	require.Len(t, recs, 5)
	for _, rec := range recs {
		assert.NotEmpty(t, rec)
	}
}
