package teams_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-entries-api/internal/mocks"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/teams"
)

func TestTeamOf(t *testing.T) {
	users := mocks.NewMockUserRepository()
	users.Create(context.Background(), &models.User{ID: "u1", Team: "stockholm"})
	users.Create(context.Background(), &models.User{ID: "u2"})

	d := teams.NewDirectory(users)

	team, err := d.TeamOf(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "stockholm", team)

	// Unassigned user resolves to the empty team.
	team, err = d.TeamOf(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "", team)

	// Absent user is not an error, just empty.
	team, err = d.TeamOf(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, "", team)
}

func TestUsersInTeam(t *testing.T) {
	users := mocks.NewMockUserRepository()
	users.Create(context.Background(), &models.User{ID: "u1", Team: "stockholm"})
	users.Create(context.Background(), &models.User{ID: "u2", Team: "stockholm"})
	users.Create(context.Background(), &models.User{ID: "u3", Team: "rome"})
	users.Create(context.Background(), &models.User{ID: "u4"})

	d := teams.NewDirectory(users)

	ids, err := d.UsersInTeam(context.Background(), "stockholm")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	// The empty team never means "all users".
	ids, err = d.UsersInTeam(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = d.UsersInTeam(context.Background(), "berlin")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
