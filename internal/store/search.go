// internal/store/search.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
)

// CandidateSearch narrows a large scribe population by subject and
// language before scoring. The search is a pre-filter only: it returns
// ids, the authoritative profiles still come from Postgres.
type CandidateSearch struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewCandidateSearch(client *elasticsearch.Client, index string, log logger.Logger) *CandidateSearch {
	return &CandidateSearch{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "candidate_search"}),
	}
}

// SearchCandidates returns the ids of verified scribes matching any of
// the given subjects and languages, best lexical matches first.
func (c *CandidateSearch) SearchCandidates(ctx context.Context, subjects, languages []string, limit int) ([]string, error) {
	var mustClauses []map[string]interface{}

	mustClauses = append(mustClauses, map[string]interface{}{
		"term": map[string]interface{}{"verified": true},
	})

	if len(subjects) > 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"terms": map[string]interface{}{"subjects.keyword": subjects},
		})
	}

	if len(languages) > 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"terms": map[string]interface{}{"languages.keyword": languages},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": mustClauses},
		},
		"size":    limit,
		"_source": false,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.NewCandidateSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewCandidateSearchFailedError(fmt.Errorf("search failed: %s", res.String()))
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewCandidateSearchFailedError(err)
	}

	hitsWrapper, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	hits, ok := hitsWrapper["hits"].([]interface{})
	if !ok {
		return nil, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		if h, ok := hit.(map[string]interface{}); ok {
			if id, ok := h["_id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}

	c.logger.Debug("candidate search completed", map[string]interface{}{
		"subjects":  subjects,
		"languages": languages,
		"hits":      len(ids),
	})
	return ids, nil
}
