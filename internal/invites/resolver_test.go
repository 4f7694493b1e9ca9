package invites_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-entries-api/internal/invites"
)

func newTestResolver() *invites.Resolver {
	return invites.NewResolver(map[string]string{
		"feb": "stockholm",
		"mar": "stockholm",
		"apr": "rome",
		"may": "dortmund",
	})
}

func TestResolveKnownCode(t *testing.T) {
	r := newTestResolver()

	team, err := r.Resolve("feb")
	require.NoError(t, err)
	assert.Equal(t, "stockholm", team)

	// Deterministic: same code, same team, every time.
	for i := 0; i < 5; i++ {
		again, err := r.Resolve("feb")
		require.NoError(t, err)
		assert.Equal(t, team, again)
	}
}

func TestResolveEmptyCode(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve("")
	assert.ErrorIs(t, err, invites.ErrEmptyCode)
}

func TestResolveUnknownCode(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve("jun")
	assert.ErrorIs(t, err, invites.ErrUnknownCode)
}

func TestResolveIsCaseSensitive(t *testing.T) {
	r := newTestResolver()

	// "FEB" is not "feb". The exact-match rule is intentional; this test
	// exists so it cannot be normalized away silently.
	_, err := r.Resolve("FEB")
	assert.ErrorIs(t, err, invites.ErrUnknownCode)
}

func TestTeamsDeduplicatedAndSorted(t *testing.T) {
	r := newTestResolver()

	// Two codes map to stockholm; it appears once.
	assert.Equal(t, []string{"dortmund", "rome", "stockholm"}, r.Teams())
}

func TestTeamsNaturalSort(t *testing.T) {
	r := invites.NewResolver(map[string]string{
		"a": "team10",
		"b": "team2",
		"c": "team1",
	})

	assert.Equal(t, []string{"team1", "team2", "team10"}, r.Teams())
}

func TestIsCanonical(t *testing.T) {
	r := newTestResolver()

	assert.True(t, r.IsCanonical("rome"))
	assert.False(t, r.IsCanonical("Rome"))
	assert.False(t, r.IsCanonical(""))
	assert.False(t, r.IsCanonical("berlin"))
}
