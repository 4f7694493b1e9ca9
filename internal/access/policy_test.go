package access_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-entries-api/internal/access"
	"github.com/team-entries-api/internal/mocks"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/teams"
)

func setupEngine(t *testing.T) (*access.Engine, *mocks.MockUserRepository) {
	t.Helper()
	users := mocks.NewMockUserRepository()
	directory := teams.NewDirectory(users)
	return access.NewEngine(directory, zerolog.Nop()), users
}

func addUser(users *mocks.MockUserRepository, id string, role models.Role, team string) *models.User {
	user := &models.User{ID: id, Role: role, Team: team}
	users.Create(context.Background(), user)
	return user
}

func record(id int64, authorID string) *models.Record {
	return &models.Record{ID: id, Type: models.RecordTypeEntry, Title: "r", AuthorID: authorID, Status: models.StatusDraft}
}

func TestContributorSameTeamAllowed(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "stockholm")
	addUser(users, "b", models.RoleContributor, "stockholm")

	for _, action := range []access.Action{access.ActionRead, access.ActionEdit, access.ActionDelete} {
		allowed, err := engine.CanAccessRecord(context.Background(), actor, action, record(1, "b"))
		require.NoError(t, err)
		assert.True(t, allowed, "action %s", action)
	}
}

func TestContributorCrossTeamDenied(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "dortmund")
	addUser(users, "b", models.RoleContributor, "rome")

	allowed, err := engine.CanAccessRecord(context.Background(), actor, access.ActionRead, record(1, "b"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTeamComparisonIsCaseSensitive(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "Stockholm")
	addUser(users, "b", models.RoleContributor, "stockholm")

	// "Stockholm" and "stockholm" are different teams. Exact comparison is
	// intentional strictness, not a defect.
	allowed, err := engine.CanAccessRecord(context.Background(), actor, access.ActionRead, record(1, "b"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTeamlessContributorDeniedEverything(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "")
	addUser(users, "b", models.RoleContributor, "rome")

	for _, action := range []access.Action{access.ActionRead, access.ActionEdit, access.ActionDelete} {
		allowed, err := engine.CanAccessRecord(context.Background(), actor, action, record(1, "b"))
		require.NoError(t, err)
		assert.False(t, allowed, "action %s", action)
	}

	scope, err := engine.ListScope(context.Background(), actor)
	require.NoError(t, err)
	assert.True(t, scope.MatchesNothing())
}

func TestTeamlessAuthorDenied(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "rome")
	addUser(users, "b", models.RoleContributor, "")

	allowed, err := engine.CanAccessRecord(context.Background(), actor, access.ActionRead, record(1, "b"))
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAdministratorAlwaysAllowed(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "admin", models.RoleAdministrator, "")
	addUser(users, "b", models.RoleContributor, "rome")

	for _, action := range []access.Action{access.ActionRead, access.ActionEdit, access.ActionDelete} {
		allowed, err := engine.CanAccessRecord(context.Background(), actor, action, record(1, "b"))
		require.NoError(t, err)
		assert.True(t, allowed, "action %s", action)
	}

	scope, err := engine.ListScope(context.Background(), actor)
	require.NoError(t, err)
	assert.True(t, scope.All)
}

func TestListScopeRestrictsToTeamAuthors(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "stockholm")
	addUser(users, "b", models.RoleContributor, "stockholm")
	addUser(users, "c", models.RoleContributor, "rome")

	scope, err := engine.ListScope(context.Background(), actor)
	require.NoError(t, err)
	assert.False(t, scope.All)
	assert.Equal(t, []string{"a", "b"}, scope.AuthorIDs)
}

func TestReassignmentTakesEffectImmediately(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "rome")
	addUser(users, "b", models.RoleContributor, "stockholm")
	rec := record(1, "b")

	allowed, err := engine.CanAccessRecord(context.Background(), actor, access.ActionRead, rec)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Moving the author to the actor's team retroactively moves the
	// record: team is derived from the author, never stored on the record.
	users.UpdateTeam(context.Background(), "b", "rome")

	allowed, err = engine.CanAccessRecord(context.Background(), actor, access.ActionRead, rec)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCanCreate(t *testing.T) {
	engine, users := setupEngine(t)

	assert.True(t, engine.CanCreate(addUser(users, "a", models.RoleContributor, "")))
	assert.True(t, engine.CanCreate(addUser(users, "b", models.RoleAdministrator, "")))
	assert.False(t, engine.CanCreate(&models.User{ID: "x", Role: "editor"}))
	assert.False(t, engine.CanCreate(nil))
}

func TestPinStatus(t *testing.T) {
	engine, users := setupEngine(t)
	actor := addUser(users, "a", models.RoleContributor, "rome")

	// Publishing is non-grantable: the request is coerced, not rejected.
	assert.Equal(t, models.StatusDraft, engine.PinStatus(actor, models.StatusPublished))
	assert.Equal(t, models.StatusDraft, engine.PinStatus(actor, models.StatusDraft))
	assert.Equal(t, models.StatusDraft, engine.PinStatus(actor, ""))
}
