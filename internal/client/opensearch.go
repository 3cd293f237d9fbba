package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/logsift-systems/logsift/internal/metrics"
	"github.com/logsift-systems/logsift/internal/models"
)

// Config holds OpenSearch connection settings.
type Config struct {
	URL      string
	Username string
	Password string
	Insecure bool
	Index    string
}

// Store is the log record store backed by a single OpenSearch index.
type Store struct {
	client *opensearch.Client
	index  string
}

func NewStore(cfg Config) (*Store, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	osCfg := opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	return &Store{client: client, index: cfg.Index}, nil
}

func (s *Store) Index() string {
	return s.index
}

// Search executes the given DSL body and returns the matching records in
// the order the store sorted them.
func (s *Store) Search(ctx context.Context, dsl map[string]interface{}) ([]models.LogRecord, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(dsl); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithTrackTotalHits(false),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				ID     string           `json:"_id"`
				Source models.LogRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]models.LogRecord, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		record := hit.Source
		if record.ID == "" {
			record.ID = hit.ID
		}
		records = append(records, record)
	}
	return records, nil
}

// BulkInsert writes the batch through a bulk indexer, one item per record,
// keyed by the record id. It returns the number of records indexed; a
// non-nil error means at least one item failed.
func (s *Store) BulkInsert(ctx context.Context, records []models.LogRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: s.client,
		Index:  s.index,
	})
	if err != nil {
		return 0, fmt.Errorf("create bulk indexer: %w", err)
	}

	// The bulk indexer invokes item callbacks from multiple worker
	// goroutines; the result accounting must be locked.
	var mu sync.Mutex
	indexed := 0
	var failures []string
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			failures = append(failures, fmt.Sprintf("marshal record %s: %v", record.ID, err))
			continue
		}

		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: record.ID,
			Body:       bytes.NewReader(data),
			OnSuccess: func(ctx context.Context, item opensearchutil.BulkIndexerItem, res opensearchutil.BulkIndexerResponseItem) {
				mu.Lock()
				indexed++
				mu.Unlock()
			},
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, res opensearchutil.BulkIndexerResponseItem, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, err.Error())
				} else {
					failures = append(failures, fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason))
				}
			},
		})
		if err != nil {
			mu.Lock()
			failures = append(failures, fmt.Sprintf("add record %s: %v", record.ID, err))
			mu.Unlock()
		}
	}

	if err := bi.Close(ctx); err != nil {
		return indexed, fmt.Errorf("close bulk indexer: %w", err)
	}

	metrics.StoreBulkWritesTotal.Inc()

	if len(failures) > 0 {
		return indexed, fmt.Errorf("bulk insert: %d item(s) failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return indexed, nil
}

// DeleteByQuery removes every record matching the DSL body.
func (s *Store) DeleteByQuery(ctx context.Context, dsl map[string]interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(dsl); err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.DeleteByQuery(
		[]string{s.index},
		&buf,
		s.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete by query request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete by query error: %s", res.String())
	}
	return nil
}
