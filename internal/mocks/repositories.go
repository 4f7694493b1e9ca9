package mocks

import (
	"context"
	"sort"

	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users       map[string]*models.User
	EmailToUser map[string]*models.User
	InsertError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*models.User),
		EmailToUser: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Users[user.ID] = user
	m.EmailToUser[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.Users[id], nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.EmailToUser[email], nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, exists := m.EmailToUser[email]
	return exists, nil
}

func (m *MockUserRepository) UpdateTeam(ctx context.Context, id, team string) error {
	if user, ok := m.Users[id]; ok {
		user.Team = team
	}
	return nil
}

func (m *MockUserRepository) IDsByTeam(ctx context.Context, team string) ([]string, error) {
	ids := []string{}
	if team == "" {
		return ids, nil
	}
	for id, user := range m.Users {
		if user.Team == team {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.Users), nil
}

// MockRecordRepository is a mock implementation of RecordRepository. Find
// mirrors the real repository's contract: records come back ordered by id
// ascending, and a non-nil empty author set matches nothing.
type MockRecordRepository struct {
	Records     map[int64]*models.Record
	FieldOrders map[models.RecordType][]string
	NextID      int64
	InsertError error
}

func NewMockRecordRepository() *MockRecordRepository {
	return &MockRecordRepository{
		Records:     make(map[int64]*models.Record),
		FieldOrders: make(map[models.RecordType][]string),
		NextID:      1,
	}
}

func (m *MockRecordRepository) Create(ctx context.Context, record *models.Record) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	record.ID = m.NextID
	m.NextID++
	m.Records[record.ID] = record
	return nil
}

func (m *MockRecordRepository) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	return m.Records[id], nil
}

func (m *MockRecordRepository) Update(ctx context.Context, record *models.Record) error {
	m.Records[record.ID] = record
	return nil
}

func (m *MockRecordRepository) Delete(ctx context.Context, id int64) error {
	delete(m.Records, id)
	return nil
}

func (m *MockRecordRepository) Find(ctx context.Context, q repository.RecordQuery) ([]*models.Record, int, error) {
	if q.AuthorIDs != nil && len(q.AuthorIDs) == 0 {
		return []*models.Record{}, 0, nil
	}

	authors := map[string]bool{}
	for _, id := range q.AuthorIDs {
		authors[id] = true
	}

	matched := []*models.Record{}
	for _, record := range m.Records {
		if record.Type != q.Type {
			continue
		}
		if q.Status != "" && record.Status != q.Status {
			continue
		}
		if q.AuthorIDs != nil && !authors[record.AuthorID] {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MockRecordRepository) FieldOrder(ctx context.Context, recordType models.RecordType) ([]string, error) {
	return m.FieldOrders[recordType], nil
}

func (m *MockRecordRepository) Count(ctx context.Context, recordType models.RecordType) (int, error) {
	count := 0
	for _, record := range m.Records {
		if record.Type == recordType {
			count++
		}
	}
	return count, nil
}

// MockExportJobRepository is a mock implementation of ExportJobRepository
type MockExportJobRepository struct {
	Jobs map[string]*models.ExportJob
}

func NewMockExportJobRepository() *MockExportJobRepository {
	return &MockExportJobRepository{Jobs: make(map[string]*models.ExportJob)}
}

func (m *MockExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	m.Jobs[job.ID] = job
	return nil
}

func (m *MockExportJobRepository) Update(ctx context.Context, job *models.ExportJob) error {
	m.Jobs[job.ID] = job
	return nil
}

func (m *MockExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	return m.Jobs[id], nil
}

func (m *MockExportJobRepository) GetPending(ctx context.Context) ([]*models.ExportJob, error) {
	pending := []*models.ExportJob{}
	for _, job := range m.Jobs {
		if job.Status == models.ExportJobPending {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

func (m *MockExportJobRepository) MarkProcessing(ctx context.Context, id string) (bool, error) {
	job, ok := m.Jobs[id]
	if !ok || job.Status != models.ExportJobPending {
		return false, nil
	}
	job.Status = models.ExportJobProcessing
	return true, nil
}
