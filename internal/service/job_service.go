package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
)

// jobService runs asynchronous full-CSV exports in the background. Large
// exports are chunked page by page so a dropped client never pins server
// resources; the caller polls the job instead of holding a connection open.
type jobService struct {
	jobRepo repository.ExportJobRepository
	export  *exportService
	cfg     *config.ExportConfig
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
	// Semaphore: buffered channel bounds concurrent job processing
	sem chan struct{}
}

// newJobService creates a new JobService with a worker pool sized for
// I/O-bound work
func newJobService(jobRepo repository.ExportJobRepository, export *exportService, cfg *config.ExportConfig, log zerolog.Logger) *jobService {
	maxWorkers := runtime.NumCPU() * 2
	if maxWorkers < 2 {
		maxWorkers = 2
	}
	if maxWorkers > 16 {
		maxWorkers = 16
	}

	return &jobService{
		jobRepo: jobRepo,
		export:  export,
		cfg:     cfg,
		log:     log.With().Str("service", "export_job").Logger(),
		sem:     make(chan struct{}, maxWorkers),
	}
}

// CreateExportJob queues a full CSV export of the filtered record set.
func (s *jobService) CreateExportJob(ctx context.Context, actor *models.User, q ExportQuery) (*models.ExportJob, error) {
	job := &models.ExportJob{
		ID:           uuid.NewString(),
		RecordType:   q.Type,
		Team:         q.Team,
		StatusFilter: q.Status,
		Status:       models.ExportJobPending,
		RequestedBy:  actor.ID,
		CreatedAt:    time.Now(),
	}
	if job.StatusFilter == "" {
		job.StatusFilter = models.StatusDraft
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}
	s.log.Info().Str("job_id", job.ID).Str("record_type", string(q.Type)).Msg("Export job queued")
	return job, nil
}

// GetJob retrieves a job by ID; nil when absent.
func (s *jobService) GetJob(ctx context.Context, id string) (*models.ExportJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// StartProcessor starts the background job processor
func (s *jobService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().Msg("Export job processor started")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Export job processor stopping")
			return
		case <-ticker.C:
			s.processPendingJobs()
		}
	}
}

// StopProcessor stops the background job processor
func (s *jobService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Export job processor stopped")
}

// processPendingJobs claims and runs all pending jobs
func (s *jobService) processPendingJobs() {
	jobs, err := s.jobRepo.GetPending(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get pending jobs")
		return
	}

	for _, job := range jobs {
		// Acquire a semaphore slot; blocks when all workers are busy
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}

		marked, err := s.jobRepo.MarkProcessing(s.ctx, job.ID)
		if err != nil || !marked {
			<-s.sem
			continue // another worker picked it up
		}

		s.wg.Add(1)
		go func(j *models.ExportJob) {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("job_id", j.ID).
						Msg("Export job panicked - recovered")
					s.fail(j, fmt.Sprintf("panic: %v", r))
				}
			}()
			s.processJob(j)
		}(job)
	}
}

// processJob writes one full BOM+CSV export file for the job's filter set.
func (s *jobService) processJob(job *models.ExportJob) {
	select {
	case <-s.ctx.Done():
		s.log.Warn().Str("job_id", job.ID).Msg("Export job cancelled due to shutdown")
		return
	default:
	}

	s.log.Info().Str("job_id", job.ID).Str("record_type", string(job.RecordType)).Msg("Processing export job")

	result, err := s.export.ExportAll(s.ctx, ExportQuery{
		Type:   job.RecordType,
		Team:   job.Team,
		Status: job.StatusFilter,
	})
	if err != nil {
		s.fail(job, err.Error())
		return
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		s.fail(job, err.Error())
		return
	}
	path := filepath.Join(s.cfg.Dir, s.export.Filename(job.RecordType, time.Now()))
	file, err := os.Create(path)
	if err != nil {
		s.fail(job, err.Error())
		return
	}
	if err := s.export.WriteCSV(file, result); err != nil {
		file.Close()
		s.fail(job, err.Error())
		return
	}
	if err := file.Close(); err != nil {
		s.fail(job, err.Error())
		return
	}

	now := time.Now()
	job.Status = models.ExportJobCompleted
	job.RowCount = len(result.Rows)
	job.FilePath = path
	job.CompletedAt = &now
	if err := s.jobRepo.Update(s.ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to finalize export job")
		return
	}

	s.log.Info().
		Str("job_id", job.ID).
		Int("rows", job.RowCount).
		Str("file", path).
		Msg("Export job completed")
}

func (s *jobService) fail(job *models.ExportJob, reason string) {
	now := time.Now()
	job.Status = models.ExportJobFailed
	job.Error = reason
	job.CompletedAt = &now
	if err := s.jobRepo.Update(s.ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark export job failed")
	}
}
