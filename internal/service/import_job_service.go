package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markbookdev/markbook-classic-sub000/internal/dto"
	"github.com/markbookdev/markbook-classic-sub000/internal/models"
	appErrors "github.com/markbookdev/markbook-classic-sub000/pkg/errors"
	"github.com/markbookdev/markbook-classic-sub000/pkg/jobs"
	"github.com/markbookdev/markbook-classic-sub000/pkg/middleware/requestid"
)

const (
	importJobType      = "legacy_import"
	importJobKeyPrefix = "legacy:import:"
)

type folderImporter interface {
	ImportFolder(ctx context.Context, req dto.ImportRequest) (*models.ImportResult, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
	MaxRetries() int
}

// ImportJobConfig tunes the import worker pool.
type ImportJobConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	TTL        time.Duration
}

// ImportJobService runs legacy imports on the background queue and tracks their status.
// Status lives in the cache when one is configured and in process memory otherwise.
type ImportJobService struct {
	importer  folderImporter
	cache     *CacheService
	queue     jobQueue
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	local map[string]models.ImportJob
}

// NewImportJobService constructs the service and its worker queue. Call Start before enqueueing.
func NewImportJobService(importer folderImporter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ImportJobConfig) (*ImportJobService, *jobs.Queue) {
	svc := newImportJobService(importer, cache, validate, logger, cfg.TTL)
	queue := jobs.NewQueue("legacy-import", svc.Process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     svc.logger,
	})
	svc.queue = queue
	return svc, queue
}

func newImportJobService(importer folderImporter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *ImportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ImportJobService{
		importer:  importer,
		cache:     cache,
		validator: validate,
		logger:    logger,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
		local:     make(map[string]models.ImportJob),
	}
}

// Enqueue records a QUEUED job and hands it to the worker pool.
func (s *ImportJobService) Enqueue(ctx context.Context, req dto.ImportRequest, createdBy string) (*models.ImportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	job := models.ImportJob{
		ID:        uuid.NewString(),
		Folder:    req.Folder,
		Status:    models.ImportJobQueued,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record import job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: importJobType, Payload: req}); err != nil {
		s.logger.Error("enqueue legacy import", zap.String("job_id", job.ID), zap.Error(err))
		appErr := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue import")
		if errors.Is(err, jobs.ErrFull) {
			appErr = appErrors.Wrap(err, appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, "import queue is full, retry later")
		}
		finished := s.now()
		job.Status, job.ErrorCode, job.Error, job.FinishedAt = models.ImportJobFailed, appErr.Code, appErr.Error(), &finished
		s.persistFinal(ctx, job)
		return nil, appErr
	}
	s.logger.Info("legacy import queued", zap.String("job_id", job.ID), zap.String("class_folder", job.Folder))
	return &job, nil
}

// Status returns the latest recorded state of a job.
func (s *ImportJobService) Status(ctx context.Context, id string) (*models.ImportJob, error) {
	if id == "" {
		return nil, appErrors.BadParam("id", "job id is required")
	}
	job, ok, err := s.load(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import job")
	}
	if !ok {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "import job not found"), map[string]interface{}{"id": id})
	}
	return &job, nil
}

// Process is the queue handler. Decode and validation failures are permanent; anything
// else is retried until the queue gives up.
func (s *ImportJobService) Process(ctx context.Context, qj jobs.Job) error {
	req, ok := qj.Payload.(dto.ImportRequest)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T for job %s", qj.Payload, qj.ID))
	}
	job, found, err := s.load(ctx, qj.ID)
	if err != nil || !found {
		job = models.ImportJob{ID: qj.ID, Folder: req.Folder, CreatedAt: qj.Enqueued}
	}

	started := s.now()
	job.Status = models.ImportJobRunning
	job.Attempts = qj.Attempt + 1
	job.StartedAt = &started
	job.Error, job.ErrorCode = "", ""
	if err := s.save(ctx, job); err != nil {
		s.logger.Warn("record running import job", zap.String("job_id", job.ID), zap.Error(err))
	}

	result, importErr := s.importer.ImportFolder(requestid.NewContext(ctx, "job-"+job.ID), req)
	finished := s.now()
	if importErr == nil {
		job.Status = models.ImportJobFinished
		job.Result = result
		job.FinishedAt = &finished
		s.persistFinal(ctx, job)
		return nil
	}

	appErr := appErrors.FromError(importErr)
	job.ErrorCode, job.Error = appErr.Code, appErr.Error()
	permanent := !retryable(appErr)
	if permanent || qj.Attempt >= s.queue.MaxRetries() {
		job.Status = models.ImportJobFailed
		job.FinishedAt = &finished
	} else {
		job.Status = models.ImportJobQueued
	}
	s.persistFinal(ctx, job)
	if permanent {
		return jobs.Permanent(importErr)
	}
	return importErr
}

func (s *ImportJobService) persistFinal(ctx context.Context, job models.ImportJob) {
	if err := s.save(ctx, job); err != nil {
		s.logger.Error("record import job status", zap.String("job_id", job.ID), zap.String("status", string(job.Status)), zap.Error(err))
	}
}

func retryable(err *appErrors.Error) bool {
	return err.Status >= 500
}

func (s *ImportJobService) save(ctx context.Context, job models.ImportJob) error {
	if s.cache.Enabled() {
		return s.cache.Set(ctx, importJobKeyPrefix+job.ID, job, s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	for id, existing := range s.local {
		if existing.FinishedAt != nil && existing.FinishedAt.Before(cutoff) {
			delete(s.local, id)
		}
	}
	s.local[job.ID] = job
	return nil
}

func (s *ImportJobService) load(ctx context.Context, id string) (models.ImportJob, bool, error) {
	if s.cache.Enabled() {
		var job models.ImportJob
		found, err := s.cache.Get(ctx, importJobKeyPrefix+id, &job)
		return job, found, err
	}
	s.mu.RLock()
	job, ok := s.local[id]
	s.mu.RUnlock()
	return job, ok, nil
}
