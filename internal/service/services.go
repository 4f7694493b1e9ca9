package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/access"
	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/invites"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
	"github.com/team-entries-api/internal/teams"
)

// ExportService defines the interface for the export pipeline
type ExportService interface {
	Export(ctx context.Context, q ExportQuery) (*models.ExportResult, error)
	Preview(ctx context.Context, q ExportQuery) (*models.ExportResult, error)
	ExportAll(ctx context.Context, q ExportQuery) (*models.ExportResult, error)
	WriteCSV(w io.Writer, result *models.ExportResult) error
	Filename(recordType models.RecordType, now time.Time) string
	GetCount(ctx context.Context, recordType models.RecordType) (int, error)
}

// RegistrationService defines the interface for account and team-assignment
// operations
type RegistrationService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (string, error)
	AssignTeam(ctx context.Context, userID, team string) error
	AssignByCode(ctx context.Context, userID, code string) (string, error)
	Teams() []string
}

// RecordService defines the interface for policy-checked record CRUD
type RecordService interface {
	Create(ctx context.Context, actor *models.User, record *models.Record) error
	Get(ctx context.Context, actor *models.User, id int64) (*models.Record, error)
	Update(ctx context.Context, actor *models.User, id int64, title string, fields map[string]json.RawMessage, status string) (*models.Record, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
	List(ctx context.Context, actor *models.User, q ListQuery) ([]*models.Record, int, error)
}

// JobService defines the interface for asynchronous export jobs
type JobService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	CreateExportJob(ctx context.Context, actor *models.User, q ExportQuery) (*models.ExportJob, error)
	GetJob(ctx context.Context, id string) (*models.ExportJob, error)
}

// Services holds all service interfaces
type Services struct {
	Export       ExportService
	Registration RegistrationService
	Record       RecordService
	Job          JobService
}

// NewServices creates all services wired over a shared team directory and
// policy engine.
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	directory := teams.NewDirectory(repos.User)
	policy := access.NewEngine(directory, log)
	resolver := invites.NewResolver(cfg.InviteCodes)

	exportSvc := newExportService(repos, directory, &cfg.Export, log)

	return &Services{
		Export:       exportSvc,
		Registration: newRegistrationService(repos.User, resolver, &cfg.Auth, log),
		Record:       newRecordService(repos.Record, policy, log),
		Job:          newJobService(repos.ExportJob, exportSvc, &cfg.Export, log),
	}
}
