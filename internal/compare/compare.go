package compare

import (
	"encoding/json"
	"math"

	"github.com/aryannaik/embedding-compare/internal/embeddings"
	"github.com/aryannaik/embedding-compare/internal/similarity"
)

// Row is the comparison of the base text against one target text.
// Similarity is meaningful only when Computable is true.
type Row struct {
	Base       embeddings.Result
	Target     embeddings.Result
	Similarity float64
	Computable bool
}

// Compare scores every target against base. Each score is computed
// independently; nothing is cached between rows.
func Compare(base embeddings.Result, targets []embeddings.Result) []Row {
	rows := make([]Row, 0, len(targets))
	for _, target := range targets {
		score, ok := similarity.Cosine(base.Vector, target.Vector)
		rows = append(rows, Row{
			Base:       base,
			Target:     target,
			Similarity: score,
			Computable: ok,
		})
	}
	return rows
}

// MarshalJSON leaves the vectors out (they are part of the results already)
// and encodes a non-computable or NaN similarity as null.
func (r Row) MarshalJSON() ([]byte, error) {
	var score *float64
	if r.Computable && !math.IsNaN(r.Similarity) {
		s := r.Similarity
		score = &s
	}

	return json.Marshal(struct {
		BaseIndex   int      `json:"baseIndex"`
		BaseText    string   `json:"baseText"`
		TargetIndex int      `json:"targetIndex"`
		TargetText  string   `json:"targetText"`
		Similarity  *float64 `json:"similarity"`
	}{
		BaseIndex:   r.Base.Index,
		BaseText:    r.Base.Text,
		TargetIndex: r.Target.Index,
		TargetText:  r.Target.Text,
		Similarity:  score,
	})
}
