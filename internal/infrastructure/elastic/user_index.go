package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// UserIndex keeps public profile fields searchable in Elasticsearch.
type UserIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{ES: es, IndexName: index}
}

type userDoc struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Headline  string `json:"headline,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// Index upserts the searchable view of u.
func (x *UserIndex) Index(ctx context.Context, u *entity.User) error {
	doc := userDoc{
		ID:        u.ID,
		Username:  strings.TrimPrefix(u.Username, "@"),
		Name:      u.Name,
		Headline:  u.Headline,
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
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
		return fmt.Errorf("es index %s: %s", u.ID, res.Status())
	}
	return nil
}

// Search runs a prefix-friendly multi_match over username and name and
// returns user ids, best match first.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]string, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  strings.TrimPrefix(q, "@"),
				"type":   "bool_prefix",
				"fields": []string{"username^2", "name", "headline"},
			},
		},
		"size":    size,
		"_source": false,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
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
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

var usersMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "username":   {"type": "search_as_you_type"},
      "name":       {"type": "search_as_you_type"},
      "headline":   {"type": "text"},
      "updated_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.ES.Indices.Exists([]string{x.IndexName}, x.ES.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	res, err = x.ES.Indices.Create(x.IndexName,
		x.ES.Indices.Create.WithContext(c),
		x.ES.Indices.Create.WithBody(strings.NewReader(usersMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("es create index %s: %s", x.IndexName, res.Status())
	}
	return nil
}
