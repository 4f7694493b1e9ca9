package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/team-entries-api/internal/database"
	"github.com/team-entries-api/internal/models"
)

// exportJobRepo is the concrete implementation of ExportJobRepository
type exportJobRepo struct {
	db *database.DB
}

// NewExportJobRepo creates a new export job repository
func NewExportJobRepo(db *database.DB) ExportJobRepository {
	return &exportJobRepo{db: db}
}

// Create inserts a new export job
func (r *exportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	query := `
		INSERT INTO export_jobs (id, record_type, team, status_filter, status, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.RecordType, job.Team, job.StatusFilter, job.Status, job.RequestedBy,
		time.Now(),
	)
	return err
}

// Update rewrites a job's mutable state
func (r *exportJobRepo) Update(ctx context.Context, job *models.ExportJob) error {
	query := `
		UPDATE export_jobs
		SET status = $2, row_count = $3, file_path = $4, error = $5, started_at = $6, completed_at = $7
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.RowCount, job.FilePath, job.Error,
		job.StartedAt, job.CompletedAt,
	)
	return err
}

// GetByID retrieves a job by ID
func (r *exportJobRepo) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := `
		SELECT id, record_type, team, status_filter, status, row_count, file_path, error,
		       requested_by, created_at, started_at, completed_at
		FROM export_jobs WHERE id = $1
	`
	var job models.ExportJob
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.RecordType, &job.Team, &job.StatusFilter, &job.Status,
		&job.RowCount, &job.FilePath, &job.Error,
		&job.RequestedBy, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetPending retrieves all jobs waiting to be processed
func (r *exportJobRepo) GetPending(ctx context.Context) ([]*models.ExportJob, error) {
	query := `
		SELECT id, record_type, team, status_filter, status, row_count, file_path, error,
		       requested_by, created_at, started_at, completed_at
		FROM export_jobs WHERE status = 'pending' ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*models.ExportJob{}
	for rows.Next() {
		var job models.ExportJob
		err := rows.Scan(
			&job.ID, &job.RecordType, &job.Team, &job.StatusFilter, &job.Status,
			&job.RowCount, &job.FilePath, &job.Error,
			&job.RequestedBy, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// MarkProcessing atomically claims a pending job; returns false when another
// worker already picked it up
func (r *exportJobRepo) MarkProcessing(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE export_jobs SET status = 'processing', started_at = $2
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}
