package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/hrisapp/hris_backend/internal/models"
)

// Announcements runs a fuzzy multi_match over indexed announcements.
func Announcements(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Announcement, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "note"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Announcement `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	out := make([]models.Announcement, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}

// IndexAnnouncement upserts one announcement document.
func IndexAnnouncement(ctx context.Context, es *elasticsearch.Client, index string, a *models.Announcement) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("search: encode doc: %w", err)
	}

	res, err := es.Index(
		index,
		strings.NewReader(string(doc)),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(a.ID),
	)
	if err != nil {
		return fmt.Errorf("search: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index: %s", res.Status())
	}
	return nil
}

// DeleteAnnouncement removes a document; a missing document is not an error.
func DeleteAnnouncement(ctx context.Context, es *elasticsearch.Client, index, id string) error {
	res, err := es.Delete(
		index,
		id,
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete: %s", res.Status())
	}
	return nil
}
