package vector

import (
	"testing"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, pointID("movie-1").GetUuid(), pointID("movie-1").GetUuid())
	})

	t.Run("distinct ids map to distinct points", func(t *testing.T) {
		assert.NotEqual(t, pointID("movie-1").GetUuid(), pointID("movie-2").GetUuid())
	})

	t.Run("valid uuid", func(t *testing.T) {
		id := pointID("movie-1").GetUuid()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})
}

func TestToQdrantDistance(t *testing.T) {
	tests := []struct {
		name string
		want qdrantclient.Distance
	}{
		{"", qdrantclient.Distance_Cosine},
		{DistanceCosine, qdrantclient.Distance_Cosine},
		{DistanceEuclidean, qdrantclient.Distance_Euclid},
		{DistanceDot, qdrantclient.Distance_Dot},
	}
	for _, tt := range tests {
		got, err := toQdrantDistance(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := toQdrantDistance("manhattan")
	assert.Error(t, err)
}

func TestClampRelevance(t *testing.T) {
	assert.Equal(t, float32(0), clampRelevance(-0.3))
	assert.Equal(t, float32(0.5), clampRelevance(0.5))
	assert.Equal(t, float32(1), clampRelevance(1.2))
}
