package docindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/pkg/timestamp"
)

// Config holds configuration for the document source client.
type Config struct {
	// BaseURL is the root of the source's HTTP API, e.g. "http://localhost:9200".
	BaseURL string

	// Index is the document index name.
	Index string

	// Username and Password enable basic auth when set.
	Username string
	Password string

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// PageSize is the scroll page size. Defaults to 100.
	PageSize int

	// ScrollKeepAlive is the scroll context lifetime. Defaults to "2m".
	ScrollKeepAlive string

	// DocumentSchema is an optional JSON schema; fetched documents whose
	// source fails validation are skipped with a warning rather than
	// poisoning the batch.
	DocumentSchema string

	// Logger for request logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "invalid base_url")
	}
	if c.Index == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "index is required")
	}
	if c.PageSize < 0 || c.PageSize > 10000 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"page_size must be between 0 and 10000")
	}
	return nil
}

// Client talks to the document source.
type Client struct {
	baseURL    string
	index      string
	username   string
	password   string
	pageSize   int
	keepAlive  string
	httpClient *http.Client
	schema     *gojsonschema.Schema
	logger     *slog.Logger
}

// NewClient creates a document source client from configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	keepAlive := cfg.ScrollKeepAlive
	if keepAlive == "" {
		keepAlive = "2m"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var schema *gojsonschema.Schema
	if cfg.DocumentSchema != "" {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.DocumentSchema))
		if err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "document schema compile")
		}
		schema = compiled
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		index:      cfg.Index,
		username:   cfg.Username,
		password:   cfg.Password,
		pageSize:   pageSize,
		keepAlive:  keepAlive,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
		logger:     logger.With("component", "docindex"),
	}, nil
}

// Ping verifies the source is reachable and the index exists.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodHead, c.baseURL+"/"+c.index, nil)
	if err != nil {
		return errors.WrapTransient(err, "Client", "Ping", "source unreachable")
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrap(errors.ErrIndexNotFound, "Client", "Ping", c.index)
	case resp.StatusCode >= 500:
		return errors.WrapTransient(errors.ErrSourceUnavailable, "Client", "Ping",
			fmt.Sprintf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return errors.Wrap(errors.ErrSourceUnavailable, "Client", "Ping",
			fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}

// unprocessedQuery builds the bool query matching documents whose flag for
// the target type is false or absent. A targeted query additionally
// requires the type's source field to exist, so documents that could never
// produce the entity are not refetched forever. An empty target matches
// documents not yet fully processed at the document level.
func unprocessedQuery(target entity.Type) map[string]any {
	field := entity.FieldProcessedToGraph
	if target != "" {
		field = entity.FieldProcessedEntities + "." + target.String()
	}
	boolQuery := map[string]any{
		"should": []any{
			map[string]any{"bool": map[string]any{
				"must_not": map[string]any{"exists": map[string]any{"field": field}},
			}},
			map[string]any{"term": map[string]any{field: false}},
		},
		"minimum_should_match": 1,
	}
	if target != "" {
		boolQuery["must"] = []any{existsAny(entity.SourceFields(target))}
	}
	return map[string]any{"bool": boolQuery}
}

// existsAny matches documents carrying at least one of the given fields.
func existsAny(fields []string) map[string]any {
	if len(fields) == 1 {
		return map[string]any{"exists": map[string]any{"field": fields[0]}}
	}
	should := make([]any, 0, len(fields))
	for _, f := range fields {
		should = append(should, map[string]any{"exists": map[string]any{"field": f}})
	}
	return map[string]any{"bool": map[string]any{
		"should":               should,
		"minimum_should_match": 1,
	}}
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []*entity.Document `json:"hits"`
	} `json:"hits"`
}

// FetchUnprocessed returns up to limit documents whose completion flag for
// target is false or absent, paging through scroll continuations as needed.
// An empty target fetches documents not yet processed at all.
func (c *Client) FetchUnprocessed(ctx context.Context, target entity.Type, limit int) ([]*entity.Document, error) {
	size := c.pageSize
	if limit > 0 && limit < size {
		size = limit
	}
	body := map[string]any{
		"query": unprocessedQuery(target),
		"size":  size,
	}

	searchURL := fmt.Sprintf("%s/%s/_search?scroll=%s", c.baseURL, c.index, c.keepAlive)
	page, err := c.postJSON(ctx, searchURL, body)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "FetchUnprocessed", "search request")
	}

	var docs []*entity.Document
	scrollID := page.ScrollID
	docs = c.appendValid(docs, page.Hits.Hits)

	for len(page.Hits.Hits) > 0 && (limit <= 0 || len(docs) < limit) {
		page, err = c.postJSON(ctx, c.baseURL+"/_search/scroll", map[string]any{
			"scroll":    c.keepAlive,
			"scroll_id": scrollID,
		})
		if err != nil {
			c.clearScroll(ctx, scrollID)
			return nil, errors.WrapTransient(err, "Client", "FetchUnprocessed", "scroll continuation")
		}
		scrollID = page.ScrollID
		docs = c.appendValid(docs, page.Hits.Hits)
	}

	c.clearScroll(ctx, scrollID)

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	c.logger.Debug("fetched unprocessed documents",
		"count", len(docs), "target", target.String())
	return docs, nil
}

// appendValid filters fetched hits through the optional document schema.
func (c *Client) appendValid(docs []*entity.Document, hits []*entity.Document) []*entity.Document {
	for _, doc := range hits {
		if c.schema != nil {
			result, err := c.schema.Validate(gojsonschema.NewGoLoader(doc.Source))
			if err != nil || !result.Valid() {
				c.logger.Warn("document failed schema validation, skipping", "doc_id", doc.ID)
				continue
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func (c *Client) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	raw, _ := json.Marshal(map[string]any{"scroll_id": scrollID})
	resp, err := c.do(ctx, http.MethodDelete, c.baseURL+"/_search/scroll", raw)
	if err != nil {
		c.logger.Debug("clear scroll failed", "error", err)
		return
	}
	drain(resp)
}

// markScript merges the per-entity flags into the document's tracking
// sub-object and stamps the document-level completion fields.
const markScript = `if (ctx._source.processed_entities == null) { ctx._source.processed_entities = new HashMap(); } for (entry in params.entities.entrySet()) { ctx._source.processed_entities[entry.getKey()] = entry.getValue(); } ctx._source.last_graph_update = params.timestamp; ctx._source.processed_to_graph = true; ctx._source.graph_processed_at = params.timestamp;`

// MarkProcessed merges {type: true} flags for the given entity types onto
// one document and stamps the update time. Flags already true for other
// types are preserved by the script's merge semantics.
func (c *Client) MarkProcessed(ctx context.Context, docID string, types []entity.Type, updatedAt int64) error {
	if len(types) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidDocument, "Client", "MarkProcessed", "no entity types to mark")
	}

	flags := make(map[string]bool, len(types))
	for _, t := range types {
		flags[t.String()] = true
	}

	body := map[string]any{
		"script": map[string]any{
			"source": markScript,
			"lang":   "painless",
			"params": map[string]any{
				"entities":  flags,
				"timestamp": timestamp.Format(updatedAt),
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.WrapInvalid(err, "Client", "MarkProcessed", "encode update")
	}

	updateURL := fmt.Sprintf("%s/%s/_update/%s", c.baseURL, c.index, url.PathEscape(docID))
	resp, err := c.do(ctx, http.MethodPost, updateURL, raw)
	if err != nil {
		return errors.WrapTransient(err, "Client", "MarkProcessed", "update request")
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		return errors.WrapTransient(errors.ErrFlagUpdateFailed, "Client", "MarkProcessed",
			fmt.Sprintf("doc %s: status %d", docID, resp.StatusCode))
	}
	return nil
}

// Stats summarizes processing progress across the index.
type Stats struct {
	Total       int `json:"total_documents"`
	Processed   int `json:"processed_documents"`
	Unprocessed int `json:"unprocessed_documents"`

	// PendingByType counts documents whose per-type flag is still unset,
	// keyed by entity type name.
	PendingByType map[string]int `json:"pending_by_type,omitempty"`
}

// Stats counts total and fully processed documents in the index, plus the
// pending backlog per relational entity type.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	total, err := c.count(ctx, nil)
	if err != nil {
		return Stats{}, errors.WrapTransient(err, "Client", "Stats", "total count")
	}
	processed, err := c.count(ctx, map[string]any{
		"term": map[string]any{entity.FieldProcessedToGraph: true},
	})
	if err != nil {
		return Stats{}, errors.WrapTransient(err, "Client", "Stats", "processed count")
	}

	pending := make(map[string]int)
	for _, t := range entity.Relational() {
		n, err := c.count(ctx, unprocessedQuery(t))
		if err != nil {
			return Stats{}, errors.WrapTransient(err, "Client", "Stats",
				fmt.Sprintf("pending count for %s", t))
		}
		pending[t.String()] = n
	}

	return Stats{
		Total:         total,
		Processed:     processed,
		Unprocessed:   total - processed,
		PendingByType: pending,
	}, nil
}

func (c *Client) count(ctx context.Context, query map[string]any) (int, error) {
	var raw []byte
	if query != nil {
		var err error
		raw, err = json.Marshal(map[string]any{"query": query})
		if err != nil {
			return 0, err
		}
	}

	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/_count", c.baseURL, c.index), raw)
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("count: status %d", resp.StatusCode)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) postJSON(ctx context.Context, rawURL string, body map[string]any) (*searchResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, rawURL, raw)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.httpClient.Do(req)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
