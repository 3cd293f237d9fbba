// Package ingest turns uploaded log archives into stored, analyzed
// records. Each upload runs as one background job: extract, parse, bulk
// write, then analyze the freshly indexed records and persist the summary
// under the job's indexing key.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/logsift-systems/logsift/internal/aggregation"
	"github.com/logsift-systems/logsift/internal/events"
	"github.com/logsift-systems/logsift/internal/identity"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/metrics"
	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/query"
	"github.com/logsift-systems/logsift/internal/recordformat"
	"github.com/logsift-systems/logsift/internal/tasks"
)

// RecordWriter writes record batches to the store.
type RecordWriter interface {
	BulkInsert(ctx context.Context, records []models.LogRecord) (int, error)
}

// Searcher reads back records for post-indexing analysis.
type Searcher interface {
	Search(ctx context.Context, q *query.SearchQuery) ([]models.LogRecord, error)
}

// Analyzer computes statistics over a record set.
type Analyzer interface {
	Analyze(records []models.LogRecord, q *query.AnalyzeQuery) (aggregation.Statistics, error)
}

// StatsSaver persists analysis results.
type StatsSaver interface {
	SaveStatistics(ctx context.Context, entity *models.StatisticsEntity) error
}

// IndexingProcess tracks a submitted indexing job.
type IndexingProcess struct {
	key    string
	handle *tasks.Handle
}

// Key returns the job's indexing key. Records written by the job carry it,
// and the job's statistics entity is stored under it.
func (p *IndexingProcess) Key() string { return p.key }

// Wait blocks until the job finishes and returns its terminal error.
func (p *IndexingProcess) Wait() error { return p.handle.Wait() }

// Pipeline runs indexing jobs.
type Pipeline struct {
	executor  *tasks.Executor
	unzipper  Unzipper
	parser    Parser
	formats   *recordformat.Registry
	writer    RecordWriter
	searcher  Searcher
	analyzer  Analyzer
	saver     StatsSaver
	publisher *events.Publisher
	logger    *logging.Logger
	workDir   string
}

type PipelineConfig struct {
	// WorkDir is where archives are extracted; defaults to the system
	// temp directory.
	WorkDir string
}

func NewPipeline(
	executor *tasks.Executor,
	unzipper Unzipper,
	parser Parser,
	formats *recordformat.Registry,
	writer RecordWriter,
	searcher Searcher,
	analyzer Analyzer,
	saver StatsSaver,
	publisher *events.Publisher,
	logger *logging.Logger,
	cfg PipelineConfig,
) *Pipeline {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Pipeline{
		executor:  executor,
		unzipper:  unzipper,
		parser:    parser,
		formats:   formats,
		writer:    writer,
		searcher:  searcher,
		analyzer:  analyzer,
		saver:     saver,
		publisher: publisher,
		logger:    logger,
		workDir:   workDir,
	}
}

// Index submits an indexing job for the archive and returns immediately.
// The acting user is resolved synchronously so the job runs under the
// identity of the request that started it, regardless of which worker
// picks it up. The job itself is detached from the request's cancellation.
func (p *Pipeline) Index(ctx context.Context, archivePath, formatName string) (*IndexingProcess, error) {
	user, err := identity.Current(ctx)
	if err != nil {
		return nil, err
	}

	format, err := p.formats.Find(formatName)
	if err != nil {
		return nil, err
	}

	indexKey := uuid.NewString()
	jobCtx := context.WithoutCancel(ctx)

	handle, err := p.executor.Submit(jobCtx, func(ctx context.Context) error {
		return p.runJob(ctx, user, archivePath, indexKey, format)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("indexing job submitted",
		logging.UserKey(user.Hash),
		logging.IndexKey(indexKey),
		logging.File(archivePath),
	)
	return &IndexingProcess{key: indexKey, handle: handle}, nil
}

func (p *Pipeline) runJob(ctx context.Context, user *models.User, archivePath, indexKey string, format *recordformat.Format) error {
	destDir := filepath.Join(p.workDir, indexKey)
	defer os.RemoveAll(destDir)

	files, err := p.unzipper.Flatten(ctx, archivePath, destDir)
	if err != nil {
		return fmt.Errorf("flatten archive: %w", err)
	}

	total := 0
	for _, file := range files {
		n, err := p.indexFile(ctx, user, file, indexKey, format)
		if err != nil {
			return fmt.Errorf("index file %s: %w", filepath.Base(file), err)
		}
		total += n
		metrics.IndexedFilesTotal.Inc()
	}

	if err := p.summarize(ctx, user, indexKey); err != nil {
		return err
	}

	if p.publisher != nil {
		event := events.IndexingCompleted{
			IndexKey:    indexKey,
			UserKey:     user.Hash,
			RecordCount: total,
			Completed:   time.Now(),
		}
		if err := p.publisher.IndexingCompleted(ctx, event); err != nil {
			p.logger.Warn("indexing event not published",
				logging.IndexKey(indexKey), logging.Error(err))
		}
	}

	p.logger.Info("indexing job completed",
		logging.UserKey(user.Hash),
		logging.IndexKey(indexKey),
		"records", total,
		"files", len(files),
	)
	return nil
}

// indexFile writes one file's records batch by batch, in file order.
func (p *Pipeline) indexFile(ctx context.Context, user *models.User, path, indexKey string, format *recordformat.Format) (int, error) {
	fileKey := fmt.Sprintf("%s.%s", indexKey, filepath.Base(path))

	iter, err := p.parser.Parse(path, fileKey, format)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	total := 0
	for batch := iter.Next(); batch != nil; batch = iter.Next() {
		for i := range batch {
			batch[i].OwnerKey = user.Hash
			batch[i].IndexKey = indexKey
		}
		n, err := p.writer.BulkInsert(ctx, batch)
		if err != nil {
			return total, err
		}
		total += n
		metrics.IndexedRecordsTotal.Add(float64(n))
	}
	if err := iter.Err(); err != nil {
		return total, err
	}
	return total, nil
}

// summarize analyzes everything the job wrote and stores the result under
// the indexing key. The summary is persisted even when the job matched
// nothing, so the key always resolves afterwards.
func (p *Pipeline) summarize(ctx context.Context, user *models.User, indexKey string) error {
	aq := query.OnIndex(indexKey)

	records, err := p.searcher.Search(ctx, aq.ToSearchQuery())
	if err != nil {
		return fmt.Errorf("read back indexed records: %w", err)
	}

	stats, err := p.analyzer.Analyze(records, aq)
	if err != nil {
		return fmt.Errorf("analyze indexed records: %w", err)
	}
	metrics.AnalyzeRunsTotal.Inc()

	dataQuery, err := aq.ToSearchQuery().CanonicalJSON()
	if err != nil {
		return fmt.Errorf("canonical query: %w", err)
	}

	entity := &models.StatisticsEntity{
		ID:        aq.ID(),
		Created:   time.Now(),
		Title:     aq.ResultName,
		DataQuery: dataQuery,
		UserKey:   user.Hash,
		Stats:     stats,
	}
	if err := p.saver.SaveStatistics(ctx, entity); err != nil {
		return fmt.Errorf("save indexing statistics: %w", err)
	}
	return nil
}
