package compare

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryannaik/embedding-compare/internal/embeddings"
)

func result(index int, text string, vec ...float64) embeddings.Result {
	return embeddings.Result{Index: index, Text: text, Vector: vec}
}

func TestCompare(t *testing.T) {
	t.Run("cat scores higher against cat than dog", func(t *testing.T) {
		base := result(0, "cat", 1, 0)
		rows := Compare(base, []embeddings.Result{
			result(1, "dog", 0, 1),
			result(2, "cat", 1, 0),
		})

		require.Len(t, rows, 2)
		assert.True(t, rows[0].Computable)
		assert.InDelta(t, 0.0, rows[0].Similarity, 1e-9)
		assert.InDelta(t, 1.0, rows[1].Similarity, 1e-9)
		assert.Greater(t, rows[1].Similarity, rows[0].Similarity)
		assert.Equal(t, "dog", rows[0].Target.Text)
		assert.Equal(t, "cat", rows[1].Base.Text)
	})

	t.Run("length mismatch is not computable", func(t *testing.T) {
		rows := Compare(result(0, "a", 1, 2, 3), []embeddings.Result{result(1, "b", 1, 2)})
		require.Len(t, rows, 1)
		assert.False(t, rows[0].Computable)
	})

	t.Run("no targets", func(t *testing.T) {
		assert.Empty(t, Compare(result(0, "a", 1), nil))
	})
}

func TestRowMarshalJSON(t *testing.T) {
	decode := func(t *testing.T, r Row) map[string]any {
		t.Helper()
		data, err := json.Marshal(r)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	t.Run("computable", func(t *testing.T) {
		out := decode(t, Row{Base: result(0, "cat", 1), Target: result(1, "dog", 1), Similarity: 0.5, Computable: true})
		assert.Equal(t, "cat", out["baseText"])
		assert.Equal(t, "dog", out["targetText"])
		assert.Equal(t, float64(1), out["targetIndex"])
		assert.Equal(t, 0.5, out["similarity"])
		assert.NotContains(t, out, "vector")
	})

	t.Run("mismatch is null", func(t *testing.T) {
		out := decode(t, Row{Computable: false})
		assert.Contains(t, out, "similarity")
		assert.Nil(t, out["similarity"])
	})

	t.Run("NaN is null", func(t *testing.T) {
		out := decode(t, Row{Similarity: math.NaN(), Computable: true})
		assert.Nil(t, out["similarity"])
	})
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"dog"}, SplitLines("dog"))
	assert.Equal(t, []string{"dog", "", "cat"}, SplitLines("dog\r\n\r\ncat"))
	assert.Equal(t, []string{"dog", ""}, SplitLines("dog\n"))
}
