package vector

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"book-search-service/internal/domain"
)

// API paths on the vector service.
const (
	SearchEndpoint    = "/api/v1/search"
	DocumentsEndpoint = "/api/v1/documents"
	HealthEndpoint    = "/health"
)

// Client implements domain.VectorSearcher and domain.VectorIndexer
// against the embedding + similarity service.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new vector service client.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: newRestyClient(cfg),
		cb:     newCircuitBreaker("vector", cfg.CB),
		logger: logger,
	}
}

// Search returns up to topK nearest documents for the query. Hits carry a
// similarity in (0, 1]: the service's native score when present, otherwise
// 1 / (1 + distance) so a zero distance maps to 1.0.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]domain.VectorHit, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		var result searchResponse
		r, err := c.client.R().
			SetContext(ctx).
			SetBody(searchRequest{Query: query, TopK: topK}).
			SetResult(&result).
			Post(SearchEndpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("vector service returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		c.logger.Warn("vector search failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	result := resp.Result().(*searchResponse)
	hits := make([]domain.VectorHit, 0, len(result.Results))
	for _, h := range result.Results {
		hits = append(hits, domain.VectorHit{
			EntityID:   h.EntityID,
			EntityType: h.EntityType,
			ChunkID:    h.ChunkID,
			Score:      h.similarity(),
		})
	}

	return hits, nil
}

// IndexDocuments pushes documents to the service's index in one call.
func (c *Client) IndexDocuments(ctx context.Context, docs []domain.IndexDocument) error {
	if len(docs) == 0 {
		return nil
	}

	payload := indexRequest{Documents: make([]documentPayload, len(docs))}
	for i, doc := range docs {
		payload.Documents[i] = documentPayload{
			EntityID:   doc.EntityID,
			EntityType: doc.EntityType,
			Title:      doc.Title,
			Text:       doc.Text,
			Tags:       doc.Tags,
		}
	}

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		var result indexResponse
		r, err := c.client.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&result).
			Put(DocumentsEndpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("vector service returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		return fmt.Errorf("indexing documents: %w", err)
	}

	result := resp.Result().(*indexResponse)
	c.logger.Info("documents indexed",
		zap.Int("sent", len(docs)),
		zap.Int("accepted", result.Indexed),
	)

	return nil
}

// HealthCheck verifies the vector service is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(HealthEndpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
