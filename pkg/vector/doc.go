// Package vector provides text embedding and similarity ranking for
// note search.
//
// The [Embedder] interface abstracts embedding computation. Two
// implementations exist: [HashEmbedder], a deterministic hash-based
// construction with no external dependency, and [HTTPEmbedder], a
// client for any OpenAI-compatible /v1/embeddings endpoint. Callers are
// written against the interface so a learned model can replace the hash
// construction without touching the stores.
//
// [Rank] implements the shared brute-force search used by the memory
// store and by the postgres store's degraded path: lazily embed
// candidates that lack a cached vector, score with cosine similarity,
// and return the top results in stable descending order.
package vector
