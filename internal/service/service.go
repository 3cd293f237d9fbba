// Package service is the user-facing facade over the search, analysis,
// indexing and statistics subsystems. All operations resolve the acting
// user from the context and never cross user boundaries.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/logsift-systems/logsift/internal/aggregation"
	"github.com/logsift-systems/logsift/internal/cache"
	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/ingest"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/metrics"
	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/query"
	"github.com/logsift-systems/logsift/internal/search"
	"github.com/logsift-systems/logsift/internal/tasks"
	"github.com/logsift-systems/logsift/internal/translator"
)

// RecordRemover deletes records matching a translated DSL body.
type RecordRemover interface {
	DeleteByQuery(ctx context.Context, dsl map[string]interface{}) error
}

// StatsRepository persists analysis results and query history.
type StatsRepository interface {
	SaveStatistics(ctx context.Context, entity *models.StatisticsEntity) error
	InsertUserQuery(ctx context.Context, userKey, queryJSON string, executed time.Time) error
}

// LogsService ties the subsystems together.
type LogsService struct {
	pipeline   *ingest.Pipeline
	engine     *search.Engine
	analyzer   *aggregation.Engine
	stats      *cache.StatisticsCache
	repo       StatsRepository
	remover    RecordRemover
	translator *translator.Translator
	executor   *tasks.Executor
	logger     *logging.Logger
}

func NewLogsService(
	pipeline *ingest.Pipeline,
	engine *search.Engine,
	analyzer *aggregation.Engine,
	stats *cache.StatisticsCache,
	repo StatsRepository,
	remover RecordRemover,
	t *translator.Translator,
	executor *tasks.Executor,
	logger *logging.Logger,
) *LogsService {
	return &LogsService{
		pipeline:   pipeline,
		engine:     engine,
		analyzer:   analyzer,
		stats:      stats,
		repo:       repo,
		remover:    remover,
		translator: t,
		executor:   executor,
		logger:     logger,
	}
}

// Index submits an archive for background indexing under the acting user.
func (s *LogsService) Index(ctx context.Context, archivePath, format string) (*ingest.IndexingProcess, error) {
	return s.pipeline.Index(ctx, archivePath, format)
}

// Search runs the query and returns the matching raw source lines. The
// executed query is recorded in the user's query history in the
// background.
func (s *LogsService) Search(ctx context.Context, q *query.SearchQuery) ([]string, error) {
	records, err := s.engine.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	s.recordQueryHistory(ctx, q)

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, record.Source)
	}
	return lines, nil
}

// SearchRecords runs the query and returns the full records.
func (s *LogsService) SearchRecords(ctx context.Context, q *query.SearchQuery) ([]models.LogRecord, error) {
	records, err := s.engine.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	s.recordQueryHistory(ctx, q)
	return records, nil
}

func (s *LogsService) recordQueryHistory(ctx context.Context, q *query.SearchQuery) {
	userKey, err := identity.Key(ctx)
	if err != nil {
		return
	}
	queryJSON, err := q.CanonicalJSON()
	if err != nil {
		s.logger.Warn("query history not recorded", logging.Error(err))
		return
	}
	executed := time.Now()

	// History is an audit trail, not part of the search result; it runs
	// detached from the request under the identity captured here.
	_, err = s.executor.Submit(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.repo.InsertUserQuery(ctx, userKey, queryJSON, executed)
	})
	if err != nil {
		s.logger.Warn("query history not recorded", logging.Error(err))
	}
}

// Analyze searches, aggregates, and, when the query asks for it,
// persists the result keyed by the query's stable id.
func (s *LogsService) Analyze(ctx context.Context, aq *query.AnalyzeQuery) (aggregation.Statistics, error) {
	user, err := identity.Current(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.engine.Search(ctx, aq.ToSearchQuery())
	if err != nil {
		return nil, err
	}

	stats, err := s.analyzer.Analyze(records, aq)
	if err != nil {
		return nil, err
	}
	metrics.AnalyzeRunsTotal.Inc()

	if aq.Save {
		dataQuery, err := aq.ToSearchQuery().CanonicalJSON()
		if err != nil {
			return nil, fmt.Errorf("canonical query: %w", err)
		}
		entity := &models.StatisticsEntity{
			ID:        aq.ID(),
			Created:   time.Now(),
			Title:     aq.ResultName,
			DataQuery: dataQuery,
			UserKey:   user.Hash,
			Stats:     stats,
		}
		if err := s.repo.SaveStatistics(ctx, entity); err != nil {
			return nil, fmt.Errorf("save statistics: %w", err)
		}
		if err := s.stats.InvalidateAll(ctx); err != nil {
			s.logger.Warn("statistics cache invalidation failed", logging.Error(err))
		}
	}
	return stats, nil
}

// FindStatistics resolves previously saved statistics by entity id or the
// originating query text.
func (s *LogsService) FindStatistics(ctx context.Context, key string) ([]models.StatisticsEntity, error) {
	return s.stats.Find(ctx, key)
}

// FindAllStatisticsByUserBefore lists the acting user's statistics older
// than the cutoff.
func (s *LogsService) FindAllStatisticsByUserBefore(ctx context.Context, before time.Time) ([]models.StatisticsEntity, error) {
	userKey, err := identity.Key(ctx)
	if err != nil {
		return nil, err
	}
	return s.stats.FindAllByUserBefore(ctx, userKey, before)
}

// DeleteAllStatisticsByUserBefore removes the acting user's statistics
// older than the cutoff and returns the deleted ids.
func (s *LogsService) DeleteAllStatisticsByUserBefore(ctx context.Context, before time.Time) ([]string, error) {
	userKey, err := identity.Key(ctx)
	if err != nil {
		return nil, err
	}
	return s.stats.DeleteOlderThan(ctx, userKey, before)
}

// DeleteByQuery removes the acting user's records matching the query.
func (s *LogsService) DeleteByQuery(ctx context.Context, q *query.SearchQuery) error {
	ownerKey, err := identity.Key(ctx)
	if err != nil {
		return err
	}
	dsl, err := s.translator.Translate(q, ownerKey)
	if err != nil {
		return fmt.Errorf("translate query: %w", err)
	}
	// Delete-by-query takes a bare query body, not a full search request.
	delete(dsl, "sort")
	delete(dsl, "size")
	return s.remover.DeleteByQuery(ctx, dsl)
}
