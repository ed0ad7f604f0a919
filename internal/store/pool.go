// internal/store/pool.go
package store

import (
	"context"

	"scribematch/internal/common/logger"
	"scribematch/internal/models"
)

// PoolBuilder assembles the candidate pool for one student. When a
// search index is configured it pre-narrows by subject and language
// and hydrates profiles through the cached store; otherwise, or when
// the index yields nothing, it falls back to the full verified pool.
type PoolBuilder struct {
	scribes       *ScribeStore
	search        *CandidateSearch
	maxCandidates int
	logger        logger.Logger
}

func NewPoolBuilder(scribes *ScribeStore, search *CandidateSearch, maxCandidates int, log logger.Logger) *PoolBuilder {
	return &PoolBuilder{
		scribes:       scribes,
		search:        search,
		maxCandidates: maxCandidates,
		logger:        log.WithFields(map[string]interface{}{"component": "pool_builder"}),
	}
}

func (b *PoolBuilder) PoolFor(ctx context.Context, student models.StudentProfile) ([]models.ScribeProfile, error) {
	if b.search == nil {
		return b.scribes.VerifiedPool(ctx)
	}

	ids, err := b.search.SearchCandidates(ctx, student.PreferredSubjects, student.Languages, b.maxCandidates)
	if err != nil {
		// The index is an optimization; a broken index must not block
		// matching.
		b.logger.Warn("candidate search unavailable, using full pool", map[string]interface{}{
			"error": err.Error(),
		})
		return b.scribes.VerifiedPool(ctx)
	}
	if len(ids) == 0 {
		return b.scribes.VerifiedPool(ctx)
	}

	pool := make([]models.ScribeProfile, 0, len(ids))
	for _, id := range ids {
		profile, err := b.scribes.GetProfile(ctx, id)
		if err != nil {
			b.logger.Warn("skipping unhydratable candidate", map[string]interface{}{
				"scribeId": id,
				"error":    err.Error(),
			})
			continue
		}
		pool = append(pool, *profile)
	}
	return pool, nil
}
