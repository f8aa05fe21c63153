package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsetrack/attendance-api/internal/models"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
	"github.com/pulsetrack/attendance-api/pkg/jobs"
	"github.com/pulsetrack/attendance-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportJobConfig tunes background export behaviour.
type ExportJobConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	Workers   int
}

// ExportJobService generates reports in the background and hands out signed
// download links. Job metadata lives in memory; exports are throwaway
// artifacts and do not survive a restart.
type ExportJobService struct {
	reports   *ReportService
	storage   fileStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig

	queue *jobs.Queue

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// ExportRequest describes a background export submission.
type ExportRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=ranking session"`
	SessionID int    `json:"session_id"`
	Format    string `json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   string
}

// NewExportJobService constructs the background export service.
func NewExportJobService(reports *ReportService, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	svc := &ExportJobService{
		reports:   reports,
		storage:   store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		jobs:      make(map[string]*models.ExportJob),
	}
	svc.queue = jobs.NewQueue("exports", svc.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return svc
}

// Start launches the export workers.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportJobService) Stop() {
	s.queue.Stop()
}

// CreateJob registers an export job and enqueues it for processing.
func (s *ExportJobService) CreateJob(ctx context.Context, req ExportRequest, createdBy string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.Kind == string(models.ExportKindSession) && req.SessionID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session_id required for session exports")
	}
	format := req.Format
	if format == "" {
		format = FormatCSV
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Kind:      models.ExportKind(req.Kind),
		SessionID: req.SessionID,
		Format:    format,
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
		s.finishJob(job.ID, "", fmt.Sprintf("enqueue failed: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return s.snapshot(job.ID), nil
}

// GetJob returns job metadata by id.
func (s *ExportJobService) GetJob(id string) (*models.ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("export job %s not found", id))
	}
	return job, nil
}

// ResolveDownload validates a download token and opens the stored file.
func (s *ExportJobService) ResolveDownload(token string) (*ExportDownload, error) {
	jobID, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return &ExportDownload{File: file, Filename: relPath, Format: job.Format}, nil
}

// Cleanup removes export files older than the result TTL.
func (s *ExportJobService) Cleanup() {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
}

func (s *ExportJobService) process(ctx context.Context, queued jobs.Job) error {
	s.setStatus(queued.ID, models.ExportStatusProcessing)
	job := s.snapshot(queued.ID)
	if job == nil {
		return fmt.Errorf("export job %s vanished", queued.ID)
	}

	var payload []byte
	var err error
	switch job.Kind {
	case models.ExportKindSession:
		payload, _, err = s.reports.SessionReport(ctx, job.SessionID, job.Format)
	default:
		payload, _, err = s.reports.RankingReport(ctx, job.Format)
	}
	if err != nil {
		s.finishJob(job.ID, "", err.Error())
		return err
	}

	filename := fmt.Sprintf("%s-%s.%s", job.Kind, job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.finishJob(job.ID, "", err.Error())
		return err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.finishJob(job.ID, "", err.Error())
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.finishJob(job.ID, fmt.Sprintf("%s/exports/download/%s", prefix, token), "")
	return nil
}

func (s *ExportJobService) setStatus(id string, status models.ExportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
}

func (s *ExportJobService) finishJob(id, resultURL, errMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if errMessage != "" {
		job.Status = models.ExportStatusFailed
		job.ErrorMessage = &errMessage
		return
	}
	job.Status = models.ExportStatusFinished
	job.ResultURL = &resultURL
}

func (s *ExportJobService) snapshot(id string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	clone := *job
	return &clone
}
