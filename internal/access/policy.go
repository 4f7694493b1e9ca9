// Package access is the central policy engine: every per-record decision and
// every list-query scope in the workspace is computed here, from the actor's
// role and the team derived from the record's author. Decisions are pure and
// recomputed on each call — team membership can change between requests, so
// nothing here is cached.
package access

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/teams"
)

// Action is the set of operations the engine decides on.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Scope is the visibility filter for list queries. Exactly one of the three
// shapes applies: unrestricted (All), restricted to AuthorIDs, or — when All
// is false and AuthorIDs is empty — match nothing.
type Scope struct {
	All       bool
	AuthorIDs []string
}

// MatchesNothing reports whether the scope excludes every record.
func (s Scope) MatchesNothing() bool {
	return !s.All && len(s.AuthorIDs) == 0
}

// Engine decides (actor, action, record) triples. It consults the team
// directory on every call so reassignments take effect immediately.
type Engine struct {
	directory *teams.Directory
	log       zerolog.Logger
}

// NewEngine creates a policy engine over the given team directory.
func NewEngine(directory *teams.Directory, log zerolog.Logger) *Engine {
	return &Engine{
		directory: directory,
		log:       log.With().Str("component", "access").Logger(),
	}
}

// CanCreate reports whether the actor may create records. Both roles may;
// anything else is denied.
func (e *Engine) CanCreate(actor *models.User) bool {
	if actor == nil {
		return false
	}
	allowed := actor.Role == models.RoleAdministrator || actor.Role == models.RoleContributor
	if !allowed {
		e.logDeny(actor, ActionCreate, 0, "unknown role")
	}
	return allowed
}

// PinStatus maps any requested record status to one the actor may actually
// set. Publishing is a non-grantable capability: the request is silently
// coerced to draft, never surfaced as an error.
func (e *Engine) PinStatus(actor *models.User, requested string) string {
	if requested != models.StatusDraft && requested != "" {
		e.log.Debug().
			Str("actor", actorID(actor)).
			Str("requested_status", requested).
			Msg("non-grantable status coerced to draft")
	}
	return models.StatusDraft
}

// CanAccessRecord decides read/edit/delete on a specific record.
// Administrators are always allowed. Contributors are allowed only when
// their team is non-empty and exactly equal to the team of the record's
// author. The comparison is exact string equality — teams differing only by
// case are different teams; this strictness is intentional.
func (e *Engine) CanAccessRecord(ctx context.Context, actor *models.User, action Action, record *models.Record) (bool, error) {
	if actor == nil || record == nil {
		return false, nil
	}
	if actor.Role == models.RoleAdministrator {
		return true, nil
	}
	if actor.Role != models.RoleContributor {
		e.logDeny(actor, action, record.ID, "unknown role")
		return false, nil
	}
	if actor.Team == "" {
		e.logDeny(actor, action, record.ID, "actor has no team")
		return false, nil
	}

	authorTeam, err := e.directory.TeamOf(ctx, record.AuthorID)
	if err != nil {
		return false, fmt.Errorf("resolve author team: %w", err)
	}
	if authorTeam == "" {
		e.logDeny(actor, action, record.ID, "author has no team")
		return false, nil
	}
	if actor.Team != authorTeam {
		e.logDeny(actor, action, record.ID, "team mismatch")
		return false, nil
	}
	return true, nil
}

// ListScope computes the visibility filter for list and export queries.
// Administrators see everything; a contributor with team T sees records
// authored by members of T; a contributor without a team sees nothing.
func (e *Engine) ListScope(ctx context.Context, actor *models.User) (Scope, error) {
	if actor == nil {
		return Scope{AuthorIDs: []string{}}, nil
	}
	if actor.Role == models.RoleAdministrator {
		return Scope{All: true}, nil
	}
	if actor.Role != models.RoleContributor || actor.Team == "" {
		e.logDeny(actor, ActionList, 0, "no visible authors")
		return Scope{AuthorIDs: []string{}}, nil
	}

	authorIDs, err := e.directory.UsersInTeam(ctx, actor.Team)
	if err != nil {
		return Scope{}, fmt.Errorf("resolve team members: %w", err)
	}
	return Scope{AuthorIDs: authorIDs}, nil
}

// logDeny records a denial as a policy outcome, not an error.
func (e *Engine) logDeny(actor *models.User, action Action, recordID int64, reason string) {
	event := e.log.Info().
		Str("actor", actorID(actor)).
		Str("action", string(action)).
		Str("reason", reason).
		Str("outcome", "deny")
	if recordID != 0 {
		event = event.Int64("record_id", recordID)
	}
	event.Msg("access denied")
}

func actorID(actor *models.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
