// Package search indexes user profiles in Elasticsearch for partner search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// UserIndex writes and queries the users index.
type UserIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{ES: es, IndexName: index}
}

// mapping keeps languages exact-matchable while names and bios stay full text.
const mapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "full_name":         {"type": "text"},
      "profile_pic":       {"type": "keyword", "index": false},
      "bio":               {"type": "text"},
      "native_language":   {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "learning_language": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "location":          {"type": "text"},
      "is_onboarded":      {"type": "boolean"},
      "created_at":        {"type": "date"},
      "updated_at":        {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.IndexName}}.Do(c, x.ES)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es exists %s: %s", x.IndexName, res.Status())
	}

	res, err = esapi.IndicesCreateRequest{Index: x.IndexName, Body: strings.NewReader(mapping)}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es create %s: %s", x.IndexName, res.Status())
	}
	return nil
}

// Document is the indexed shape of a user. It carries no credentials or email.
func Document(u *entity.User) map[string]any {
	return map[string]any{
		"id":                u.ID,
		"full_name":         u.FullName,
		"profile_pic":       u.ProfilePic,
		"bio":               u.Bio,
		"native_language":   u.NativeLanguage,
		"learning_language": u.LearningLanguage,
		"location":          u.Location,
		"is_onboarded":      u.IsOnboarded,
		"created_at":        u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":        u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// Index upserts u by id.
func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(Document(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Query builds the search body: onboarded users matching q on name, languages
// or location.
func Query(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"full_name^2", "native_language", "learning_language", "location"},
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"is_onboarded": true}},
				},
			},
		},
		"size": size,
	}
}

// Search returns the _source of each hit.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	b, err := json.Marshal(Query(q, size))
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.IndexName), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
