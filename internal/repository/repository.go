package repository

import (
	"context"

	"github.com/team-entries-api/internal/database"
	"github.com/team-entries-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateTeam(ctx context.Context, id, team string) error
	IDsByTeam(ctx context.Context, team string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// RecordRepository defines the interface for record data operations.
// Find returns records ordered by id ascending; passing a non-nil authorIDs
// restricts the result to those authors (an empty non-nil set matches
// nothing, not everything).
type RecordRepository interface {
	Create(ctx context.Context, record *models.Record) error
	GetByID(ctx context.Context, id int64) (*models.Record, error)
	Update(ctx context.Context, record *models.Record) error
	Delete(ctx context.Context, id int64) error
	Find(ctx context.Context, q RecordQuery) ([]*models.Record, int, error)
	FieldOrder(ctx context.Context, recordType models.RecordType) ([]string, error)
	Count(ctx context.Context, recordType models.RecordType) (int, error)
}

// RecordQuery is the filter set for Find. AuthorIDs semantics: nil means
// unrestricted, empty slice means match nothing.
type RecordQuery struct {
	Type      models.RecordType
	Status    string
	AuthorIDs []string
	Page      int
	PerPage   int
}

// ExportJobRepository defines the interface for async export job operations
type ExportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	Update(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	GetPending(ctx context.Context) ([]*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User      UserRepository
	Record    RecordRepository
	ExportJob ExportJobRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepo(db),
		Record:    NewRecordRepo(db),
		ExportJob: NewExportJobRepo(db),
	}
}
