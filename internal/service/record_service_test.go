package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-entries-api/internal/access"
	"github.com/team-entries-api/internal/mocks"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/teams"
)

func setupRecords(t *testing.T) (*recordService, *mocks.MockUserRepository, *mocks.MockRecordRepository) {
	t.Helper()
	users := mocks.NewMockUserRepository()
	records := mocks.NewMockRecordRepository()
	policy := access.NewEngine(teams.NewDirectory(users), zerolog.Nop())
	return newRecordService(records, policy, zerolog.Nop()), users, records
}

func contributor(users *mocks.MockUserRepository, id, team string) *models.User {
	user := &models.User{ID: id, Role: models.RoleContributor, Team: team}
	users.Create(context.Background(), user)
	return user
}

func TestCreatePinsStatusToDraft(t *testing.T) {
	svc, users, _ := setupRecords(t)
	actor := contributor(users, "a", "rome")

	record := &models.Record{Type: models.RecordTypeEntry, Title: "t", Status: models.StatusPublished}
	require.NoError(t, svc.Create(context.Background(), actor, record))

	// The publish request is silently coerced, not rejected.
	assert.Equal(t, models.StatusDraft, record.Status)
	assert.Equal(t, "a", record.AuthorID)
}

func TestGetDeniedAcrossTeams(t *testing.T) {
	svc, users, _ := setupRecords(t)
	author := contributor(users, "a", "rome")
	other := contributor(users, "b", "dortmund")

	record := &models.Record{Type: models.RecordTypeEntry, Title: "t"}
	require.NoError(t, svc.Create(context.Background(), author, record))

	_, err := svc.Get(context.Background(), other, record.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGetMissingRecordIndistinguishableFromDenied(t *testing.T) {
	svc, users, _ := setupRecords(t)
	actor := contributor(users, "a", "rome")

	_, err := svc.Get(context.Background(), actor, 999)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTeamlessContributorDenied(t *testing.T) {
	svc, users, _ := setupRecords(t)
	author := contributor(users, "a", "rome")
	teamless := contributor(users, "b", "")

	record := &models.Record{Type: models.RecordTypeEntry, Title: "t"}
	require.NoError(t, svc.Create(context.Background(), author, record))

	_, err := svc.Get(context.Background(), teamless, record.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	records, total, err := svc.List(context.Background(), teamless, ListQuery{Type: models.RecordTypeEntry, Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, total)
}

func TestListScopedToTeam(t *testing.T) {
	svc, users, _ := setupRecords(t)
	a := contributor(users, "a", "rome")
	b := contributor(users, "b", "rome")
	c := contributor(users, "c", "dortmund")

	for _, actor := range []*models.User{a, b, c} {
		require.NoError(t, svc.Create(context.Background(), actor, &models.Record{Type: models.RecordTypeEntry, Title: actor.ID}))
	}

	records, total, err := svc.List(context.Background(), a, ListQuery{Type: models.RecordTypeEntry, Status: models.StatusDraft, Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, record := range records {
		assert.NotEqual(t, "c", record.AuthorID)
	}
}

func TestAdminSeesEverything(t *testing.T) {
	svc, users, _ := setupRecords(t)
	a := contributor(users, "a", "rome")
	c := contributor(users, "c", "dortmund")
	admin := &models.User{ID: "root", Role: models.RoleAdministrator}
	users.Create(context.Background(), admin)

	for _, actor := range []*models.User{a, c} {
		require.NoError(t, svc.Create(context.Background(), actor, &models.Record{Type: models.RecordTypeEntry, Title: actor.ID}))
	}

	records, total, err := svc.List(context.Background(), admin, ListQuery{Type: models.RecordTypeEntry, Status: models.StatusDraft, Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 2)
}

func TestUpdateKeepsStatusPinned(t *testing.T) {
	svc, users, _ := setupRecords(t)
	actor := contributor(users, "a", "rome")

	record := &models.Record{Type: models.RecordTypeEntry, Title: "before"}
	require.NoError(t, svc.Create(context.Background(), actor, record))

	updated, err := svc.Update(context.Background(), actor, record.ID, "after",
		map[string]json.RawMessage{"notes": json.RawMessage(`"n"`)}, models.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, models.StatusDraft, updated.Status)
}

func TestDeleteSameTeam(t *testing.T) {
	svc, users, records := setupRecords(t)
	author := contributor(users, "a", "rome")
	teammate := contributor(users, "b", "rome")

	record := &models.Record{Type: models.RecordTypeEntry, Title: "t"}
	require.NoError(t, svc.Create(context.Background(), author, record))

	require.NoError(t, svc.Delete(context.Background(), teammate, record.ID))
	got, _ := records.GetByID(context.Background(), record.ID)
	assert.Nil(t, got)
}
