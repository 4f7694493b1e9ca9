package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/mocks"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
	"github.com/team-entries-api/internal/teams"
)

func setupJobs(t *testing.T) (*jobService, *mocks.MockUserRepository, *mocks.MockRecordRepository, *mocks.MockExportJobRepository) {
	t.Helper()
	users := mocks.NewMockUserRepository()
	records := mocks.NewMockRecordRepository()
	jobs := mocks.NewMockExportJobRepository()
	repos := &repository.Repositories{
		User:      users,
		Record:    records,
		ExportJob: jobs,
	}
	cfg := &config.ExportConfig{
		FilePrefix:  "entries-export",
		Dir:         t.TempDir(),
		MaxPerPage:  2000,
		PreviewRows: 20,
	}
	export := newExportService(repos, teams.NewDirectory(users), cfg, zerolog.Nop())
	svc := newJobService(jobs, export, cfg, zerolog.Nop())
	// Tests drive processing passes directly instead of the ticker loop.
	svc.ctx, svc.cancel = context.WithCancel(context.Background())
	t.Cleanup(svc.cancel)
	return svc, users, records, jobs
}

func TestExportJobCompletes(t *testing.T) {
	svc, users, records, jobRepo := setupJobs(t)
	addContributor(users, "a", "dortmund")
	addEntry(records, "a", "First", map[string]string{"notes": `"one"`})
	addEntry(records, "a", "Second", nil)

	admin := &models.User{ID: "root", Role: models.RoleAdministrator}
	job, err := svc.CreateExportJob(context.Background(), admin, ExportQuery{Type: models.RecordTypeEntry})
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobPending, job.Status)
	assert.Equal(t, models.StatusDraft, job.StatusFilter)
	assert.Equal(t, "root", job.RequestedBy)

	svc.processPendingJobs()
	svc.wg.Wait()

	done, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExportJobCompleted, done.Status)
	assert.Equal(t, 2, done.RowCount)
	assert.Empty(t, done.Error)
	require.NotNil(t, done.CompletedAt)

	require.NotEmpty(t, done.FilePath)
	assert.True(t, strings.HasPrefix(filepath.Base(done.FilePath), "entries-export-entry-"))
	data, err := os.ReadFile(done.FilePath)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"), "file missing UTF-8 BOM")
	assert.Contains(t, body, `"id","title","team","notes"`)
	assert.Contains(t, body, `"First"`)
	assert.Contains(t, body, `"Second"`)
}

func TestExportJobTeamFilter(t *testing.T) {
	svc, users, records, jobRepo := setupJobs(t)
	addContributor(users, "a", "dortmund")
	addContributor(users, "b", "rome")
	addEntry(records, "a", "Kept", nil)
	addEntry(records, "b", "Dropped", nil)

	admin := &models.User{ID: "root", Role: models.RoleAdministrator}
	job, err := svc.CreateExportJob(context.Background(), admin, ExportQuery{
		Type: models.RecordTypeEntry,
		Team: "dortmund",
	})
	require.NoError(t, err)

	svc.processPendingJobs()
	svc.wg.Wait()

	done, _ := jobRepo.GetByID(context.Background(), job.ID)
	require.Equal(t, models.ExportJobCompleted, done.Status)
	assert.Equal(t, 1, done.RowCount)

	data, err := os.ReadFile(done.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Kept"`)
	assert.NotContains(t, string(data), `"Dropped"`)
}

func TestExportJobFailsWhenDirUnwritable(t *testing.T) {
	svc, users, records, jobRepo := setupJobs(t)
	addContributor(users, "a", "dortmund")
	addEntry(records, "a", "Only", nil)

	// A regular file where the export dir should go makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	svc.cfg.Dir = filepath.Join(blocker, "exports")

	admin := &models.User{ID: "root", Role: models.RoleAdministrator}
	job, err := svc.CreateExportJob(context.Background(), admin, ExportQuery{Type: models.RecordTypeEntry})
	require.NoError(t, err)

	svc.processPendingJobs()
	svc.wg.Wait()

	failed, err := jobRepo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExportJobFailed, failed.Status)
	assert.NotEmpty(t, failed.Error)
	require.NotNil(t, failed.CompletedAt)
	assert.Empty(t, failed.FilePath)
}

func TestExportJobNotReclaimedAfterCompletion(t *testing.T) {
	svc, users, records, jobRepo := setupJobs(t)
	addContributor(users, "a", "dortmund")
	addEntry(records, "a", "Only", nil)

	admin := &models.User{ID: "root", Role: models.RoleAdministrator}
	job, err := svc.CreateExportJob(context.Background(), admin, ExportQuery{Type: models.RecordTypeEntry})
	require.NoError(t, err)

	svc.processPendingJobs()
	svc.wg.Wait()

	done, _ := jobRepo.GetByID(context.Background(), job.ID)
	require.Equal(t, models.ExportJobCompleted, done.Status)
	firstPath := done.FilePath

	// A second pass finds nothing pending and leaves the job untouched.
	svc.processPendingJobs()
	svc.wg.Wait()

	again, _ := jobRepo.GetByID(context.Background(), job.ID)
	assert.Equal(t, models.ExportJobCompleted, again.Status)
	assert.Equal(t, firstPath, again.FilePath)
}
