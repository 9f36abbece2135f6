// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// VendorDocument is the searchable view of a vendor's latest qualification.
// One document per vendor; a newer evaluation replaces it.
type VendorDocument struct {
	VendorID     string    `json:"vendorId"`
	VendorClass  string    `json:"vendorClass"`
	TotalScore   float64   `json:"totalScore"`
	EvaluationID string    `json:"evaluationId"`
	ReviewerID   string    `json:"reviewerId,omitempty"`
	EvaluatedAt  time.Time `json:"evaluatedAt"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "vendorId":     {"type": "keyword"},
      "vendorClass":  {"type": "keyword"},
      "totalScore":   {"type": "float"},
      "evaluationId": {"type": "keyword"},
      "reviewerId":   {"type": "keyword"},
      "evaluatedAt":  {"type": "date"}
    }
  }
}`

type Indexer struct {
	es    *elasticsearch.Client
	index string
}

func NewIndexer(es *elasticsearch.Client, index string) *Indexer {
	return &Indexer{es: es, index: index}
}

func (i *Indexer) Index() string {
	return i.index
}

// EnsureIndex creates the index with its mapping unless it exists.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

// IndexVendor upserts the vendor's document.
func (i *Indexer) IndexVendor(ctx context.Context, doc VendorDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode vendor document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: doc.VendorID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index vendor %s: %w", doc.VendorID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index vendor "+doc.VendorID, res)
	}
	return nil
}

// FindByClass returns vendors in any of classes, best score first.
func (i *Indexer) FindByClass(ctx context.Context, classes []string, size int) ([]VendorDocument, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"terms": map[string]interface{}{"vendorClass": classes}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"totalScore": map[string]interface{}{"order": "desc"}},
		},
	}
	body, _ := json.Marshal(query)

	res, err := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}.Do(ctx, i.es)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source VendorDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]VendorDocument, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("%s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}
