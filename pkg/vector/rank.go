package vector

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/observability"
)

// Rank scores candidates against the query embedding and returns the
// top limit notes, most similar first. Equal scores keep the candidates'
// given order (the sort is stable), so callers control tie-breaking by
// the order they pass candidates in.
//
// Candidates without a cached embedding get one computed here and
// written back onto the note. The write-back is deliberate: on the
// in-memory store the cached vector is reused by later searches and is
// not invalidated when content changes later. Candidates are embedded
// one at a time so that a failure only excludes that candidate from the
// ranking; the search itself never fails on embedding errors.
func Rank(ctx context.Context, embedder Embedder, candidates []*api.Note, query []float32, limit int) []*api.Note {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		note  *api.Note
		score float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, note := range candidates {
		if note.Embedding == nil {
			vecs, err := embedder.Embed(ctx, []string{note.Content})
			if err != nil || len(vecs) != 1 {
				observability.EmbeddingFailures.Inc()
				slog.Warn("excluding note from search, embedding failed",
					"note_id", note.ID, "error", err)
				continue
			}
			note.Embedding = vecs[0]
			observability.EmbeddingsComputed.Inc()
		}
		ranked = append(ranked, scored{note: note, score: CosineSimilarity(query, note.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	result := make([]*api.Note, limit)
	for i := 0; i < limit; i++ {
		result[i] = ranked[i].note
	}
	return result
}
