// internal/search/search.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Index queries the restaurant search index. Documents are the minimal
// {businessId, cuisine} projection; full records live in the catalog.
type Index struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndex(client *elasticsearch.Client, index string, log logger.Logger) *Index {
	return &Index{client: client, index: index, logger: log}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.IndexEntry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// CandidateIDs returns up to limit business ids matching the cuisine term,
// in the engine's default relevance order. No ranking guarantee beyond that.
func (i *Index) CandidateIDs(ctx context.Context, cuisine string, limit int) ([]string, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"cuisine": strings.ToLower(cuisine),
			},
		},
		"_source": []string{"businessId"},
	}
	body, _ := json.Marshal(queryBody)

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
		i.client.Search.WithSize(limit),
	)
	if err != nil {
		return nil, cerrors.NewSearchUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, cerrors.NewSearchUnavailableError(fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, cerrors.NewSearchUnavailableError(err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.BusinessID != "" {
			ids = append(ids, hit.Source.BusinessID)
		}
	}

	i.logger.WithFields(map[string]interface{}{
		"cuisine": cuisine,
		"hits":    len(ids),
	}).Debug("Candidate query complete")
	return ids, nil
}
