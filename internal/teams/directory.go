// Package teams resolves team membership. The user's team attribute is the
// single source of truth; records inherit their team from their author at
// read time, so every lookup here goes back to the user store.
package teams

import (
	"context"

	"github.com/team-entries-api/internal/repository"
)

// Directory answers "whose team is this" and "who is on this team". It is a
// pure read layer over the user repository and holds no state of its own, so
// decisions built on it always see current membership.
type Directory struct {
	users repository.UserRepository
}

// NewDirectory creates a Directory over the given user repository.
func NewDirectory(users repository.UserRepository) *Directory {
	return &Directory{users: users}
}

// TeamOf returns the team of the given user, or the empty string for an
// absent or unassigned user. An absent user is not an error.
func (d *Directory) TeamOf(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.Team, nil
}

// UsersInTeam returns the set of user ids assigned to the team. The empty
// team, or a team nobody belongs to, yields the empty set, never "all
// users".
func (d *Directory) UsersInTeam(ctx context.Context, team string) ([]string, error) {
	if team == "" {
		return []string{}, nil
	}
	return d.users.IDsByTeam(ctx, team)
}
