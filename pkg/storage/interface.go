package storage

import "github.com/gokaycavdar/go-urlguard/pkg/models"

// ResultCache stores evaluation results keyed by the raw URL string.
//
// Evaluation is a pure function of the URL, so a cached result is always
// valid for the catalog that produced it. Callers that reload the catalog
// must Purge the cache.
//
// Implementations can use any backend: in-memory, Redis, etc.
type ResultCache interface {
	// Get returns the cached result for rawURL.
	// The boolean is false if nothing is cached.
	Get(rawURL string) (models.ScoreResult, bool)

	// Put stores a result for rawURL.
	Put(rawURL string, result models.ScoreResult) error

	// Purge removes every entry.
	Purge()

	// Len reports the number of cached entries.
	Len() int
}
