package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/team-entries-api/internal/access"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
)

// ErrPermissionDenied covers both policy denials and absent records on
// access-checked operations: a caller can never tell a record they may not
// see from a record that does not exist.
var ErrPermissionDenied = errors.New("permission denied")

// ListQuery filters a scoped record listing.
type ListQuery struct {
	Type    models.RecordType
	Status  string
	Page    int
	PerPage int
}

// recordService is the concrete implementation of RecordService
type recordService struct {
	records repository.RecordRepository
	policy  *access.Engine
	log     zerolog.Logger
}

// newRecordService creates a new RecordService
func newRecordService(records repository.RecordRepository, policy *access.Engine, log zerolog.Logger) *recordService {
	return &recordService{
		records: records,
		policy:  policy,
		log:     log.With().Str("service", "record").Logger(),
	}
}

// Create persists a new record authored by the actor. Whatever status the
// caller asked for is pinned by policy; publishing is not reachable.
func (s *recordService) Create(ctx context.Context, actor *models.User, record *models.Record) error {
	if !s.policy.CanCreate(actor) {
		return ErrPermissionDenied
	}
	record.AuthorID = actor.ID
	record.Status = s.policy.PinStatus(actor, record.Status)
	if record.Fields == nil {
		record.Fields = map[string]json.RawMessage{}
	}
	if err := s.records.Create(ctx, record); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	s.log.Info().Int64("record_id", record.ID).Str("author", actor.ID).Msg("Record created")
	return nil
}

// Get loads a record the actor may read.
func (s *recordService) Get(ctx context.Context, actor *models.User, id int64) (*models.Record, error) {
	return s.authorized(ctx, actor, access.ActionRead, id)
}

// Update rewrites a record the actor may edit. Author and type are
// immutable; status stays pinned.
func (s *recordService) Update(ctx context.Context, actor *models.User, id int64, title string, fields map[string]json.RawMessage, status string) (*models.Record, error) {
	record, err := s.authorized(ctx, actor, access.ActionEdit, id)
	if err != nil {
		return nil, err
	}
	record.Title = title
	record.Fields = fields
	record.Status = s.policy.PinStatus(actor, status)
	if err := s.records.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return record, nil
}

// Delete removes a record the actor may delete.
func (s *recordService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.authorized(ctx, actor, access.ActionDelete, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// List returns the records visible to the actor: everything for admins, the
// actor's team's records for contributors, nothing for the teamless.
func (s *recordService) List(ctx context.Context, actor *models.User, q ListQuery) ([]*models.Record, int, error) {
	scope, err := s.policy.ListScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	if scope.MatchesNothing() {
		return []*models.Record{}, 0, nil
	}

	var authorIDs []string
	if !scope.All {
		authorIDs = scope.AuthorIDs
	}
	return s.records.Find(ctx, repository.RecordQuery{
		Type:      q.Type,
		Status:    q.Status,
		AuthorIDs: authorIDs,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
}

// authorized loads a record and runs the per-record policy check. An absent
// record is folded into the deny.
func (s *recordService) authorized(ctx context.Context, actor *models.User, action access.Action, id int64) (*models.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	if record == nil {
		return nil, ErrPermissionDenied
	}
	allowed, err := s.policy.CanAccessRecord(ctx, actor, action, record)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}
	return record, nil
}
