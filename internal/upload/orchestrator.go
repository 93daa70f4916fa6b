package upload

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/events"
	"github.com/eisenvault/evshare/internal/logging"
	"github.com/eisenvault/evshare/internal/models"
)

const uploadOp = "upload"

// SummaryStore receives the summary of a fully successful batch.
type SummaryStore interface {
	SaveUploadSummary(summary models.UploadSummary) error
}

// ProgressFunc is called after every item finishes, successful or not.
// Calls are serialized and processed grows by one with each call.
type ProgressFunc func(processed, total int, result models.UploadResult)

// Options configures an Orchestrator.
type Options struct {
	// MaxConcurrent bounds in-flight uploads. 0 dispatches every item at once.
	MaxConcurrent int

	// Summary, when set, receives the summary record after full success.
	Summary SummaryStore

	// Progress is called after each item.
	Progress ProgressFunc

	Bus      *events.EventBus
	Logger   *logging.Logger
	Resolver Resolver
}

// Orchestrator uploads share batches through a Backend.
type Orchestrator struct {
	backend api.Backend
	opts    Options
	logger  *logging.Logger
	now     func() time.Time
}

// NewOrchestrator creates an orchestrator for backend.
func NewOrchestrator(backend api.Backend, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		backend: backend,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload uploads every item of batch into dest.
//
// All items are attempted; a failed item does not stop the others. Results
// are returned in input order. When every item succeeded the summary record
// is saved.
func (o *Orchestrator) Upload(ctx context.Context, batch models.ShareBatch, dest *models.FolderNode) (models.BatchUploadResult, []models.UploadResult, error) {
	total := batch.TotalCount()
	if dest == nil {
		return models.BatchUploadResult{Total: total}, nil, api.NewValidationError(uploadOp, "no destination selected")
	}
	if total == 0 {
		return models.BatchUploadResult{}, nil, api.NewValidationError(uploadOp, "no files to upload")
	}

	start := o.now()
	o.logger.Info().Int("files", total).Str("folder", dest.Name).Str("id", dest.ID).Msg("Starting upload")

	results := make([]models.UploadResult, total)
	var (
		progressMu sync.Mutex
		processed  int
	)

	g := new(errgroup.Group)
	if o.opts.MaxConcurrent > 0 {
		g.SetLimit(o.opts.MaxConcurrent)
	}

	for i, item := range batch.Items {
		g.Go(func() error {
			result := o.uploadOne(ctx, *dest, item, i, total)
			results[i] = result

			progressMu.Lock()
			processed++
			o.opts.Bus.PublishUploadProgress(processed, total, result.FileName, result.Err)
			if o.opts.Progress != nil {
				o.opts.Progress(processed, total, result)
			}
			progressMu.Unlock()
			// Per-item failures live in results; the group never cancels siblings
			return nil
		})
	}
	_ = g.Wait()

	summary := models.BatchUploadResult{Total: total}
	for _, r := range results {
		if r.Outcome == models.OutcomeSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	elapsed := o.now().Sub(start)
	o.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("elapsed", elapsed).
		Msg("Upload finished")

	if summary.OK() {
		o.saveSummary(*dest, total)
	}

	o.opts.Bus.Publish(&events.UploadCompleteEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventUploadComplete, Time: o.now()},
		Folder:    dest.Name,
		FolderID:  dest.ID,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Total:     total,
		Duration:  elapsed,
	})

	return summary, results, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, dest models.FolderNode, item models.ShareItem, index, total int) models.UploadResult {
	result := models.UploadResult{Index: index, Item: item, Outcome: models.OutcomeFailed}

	resolved, err := o.opts.Resolver.Resolve(item, index, total)
	if err != nil {
		o.logger.Warn().Err(err).Int("item", index).Msg("Could not resolve shared item")
		result.Err = err
		return result
	}
	result.FileName = resolved.Name

	if err := o.backend.UploadFile(ctx, dest, resolved.Name, resolved.Data); err != nil {
		o.logger.Warn().Err(err).Str("file", resolved.Name).Msg("Upload failed")
		result.Err = err
		return result
	}

	o.logger.Debug().Str("file", resolved.Name).Int("bytes", len(resolved.Data)).Msg("Uploaded")
	result.Outcome = models.OutcomeSuccess
	return result
}

func (o *Orchestrator) saveSummary(dest models.FolderNode, count int) {
	if o.opts.Summary == nil {
		return
	}
	err := o.opts.Summary.SaveUploadSummary(models.UploadSummary{
		Folder:    dest.Name,
		FolderID:  dest.ID,
		FileCount: count,
		Timestamp: float64(o.now().UnixNano()) / float64(time.Second),
		Status:    constants.UploadStatusCompleted,
	})
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to save upload summary")
	}
}
