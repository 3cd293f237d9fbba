package search

import (
	"context"
	"fmt"

	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/metrics"
	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/postfilter"
	"github.com/logsift-systems/logsift/internal/query"
	"github.com/logsift-systems/logsift/internal/translator"
)

// RecordStore executes translated DSL bodies against the record store.
type RecordStore interface {
	Search(ctx context.Context, dsl map[string]interface{}) ([]models.LogRecord, error)
}

// Engine resolves the acting user, translates the query, runs it against
// the store and applies the post-filter chain to the result.
type Engine struct {
	store      RecordStore
	translator *translator.Translator
	filters    *postfilter.Registry
}

func NewEngine(store RecordStore, t *translator.Translator, filters *postfilter.Registry) *Engine {
	return &Engine{store: store, translator: t, filters: filters}
}

func (e *Engine) Search(ctx context.Context, q *query.SearchQuery) ([]models.LogRecord, error) {
	ownerKey, err := identity.Key(ctx)
	if err != nil {
		return nil, err
	}

	dsl, err := e.translator.Translate(q, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("translate query: %w", err)
	}

	// Counted once the query is known to be well formed, whether or not
	// the store call below succeeds.
	if q.ExtendedFormat {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.QueryTypeExtended).Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.QueryTypeSimple).Inc()
	}

	records, err := e.store.Search(ctx, dsl)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	chain, err := e.filters.Build(q.PostFilters)
	if err != nil {
		return nil, err
	}
	return postfilter.Apply(chain, records), nil
}
