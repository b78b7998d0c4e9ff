package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ProductDoc struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Platform    string   `json:"platform"`
	Tags        []string `json:"tags"`
	Active      bool     `json:"active"`
}

type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}
	return client, nil
}

// NewProductIndex creates the client and checks the cluster answers.
func NewProductIndex(ctx context.Context, cfg Config) (*ProductIndex, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	return &ProductIndex{client: client, index: cfg.Index}, nil
}

func (p *ProductIndex) Upsert(ctx context.Context, doc ProductDoc) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("es: encode doc: %w", err)
	}

	res, err := p.client.Index(
		p.index,
		&buf,
		p.client.Index.WithContext(ctx),
		p.client.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("es: index %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index %s: %s", doc.ID, res.Status())
	}
	return nil
}

func (p *ProductIndex) Delete(ctx context.Context, id string) error {
	res, err := p.client.Delete(p.index, id, p.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es: delete %s: %s", id, res.Status())
	}
	return nil
}

// minPrefixLen is the shortest query term also matched as a prefix.
const minPrefixLen = 3

// SearchIDs returns the ids of active products loosely matching q, best first.
// A product matches on any fuzzy term or on any term of at least three runes
// that prefixes a name or tag word.
func (p *ProductIndex) SearchIDs(ctx context.Context, q string, size int) ([]string, error) {
	should := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "tags", "platform", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	for _, term := range queryTerms(q) {
		if utf8.RuneCountInString(term) < minPrefixLen {
			continue
		}
		for _, field := range []string{"name", "tags", "platform"} {
			should = append(should, map[string]any{
				"prefix": map[string]any{
					field: map[string]any{"value": term, "case_insensitive": true},
				},
			})
		}
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
				"filter": map[string]any{
					"term": map[string]any{"active": true},
				},
			},
		},
		"size":    size,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("es: decode: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func queryTerms(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
