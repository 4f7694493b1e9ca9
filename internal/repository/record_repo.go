package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/team-entries-api/internal/database"
	"github.com/team-entries-api/internal/models"
)

// recordRepo is the concrete implementation of RecordRepository
type recordRepo struct {
	db *database.DB
}

// NewRecordRepo creates a new record repository
func NewRecordRepo(db *database.DB) RecordRepository {
	return &recordRepo{db: db}
}

// Create inserts a new record and fills in its generated id
func (r *recordRepo) Create(ctx context.Context, record *models.Record) error {
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (record_type, title, author_id, status, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		record.Type, record.Title, record.AuthorID, record.Status, fields,
		now, now,
	).Scan(&record.ID)
}

// GetByID retrieves a record by ID
func (r *recordRepo) GetByID(ctx context.Context, id int64) (*models.Record, error) {
	query := `
		SELECT id, record_type, title, author_id, status, fields, created_at, updated_at
		FROM records WHERE id = $1
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// Update rewrites a record's title, status and field bag
func (r *recordRepo) Update(ctx context.Context, record *models.Record) error {
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}

	query := `
		UPDATE records SET title = $2, status = $3, fields = $4, updated_at = $5
		WHERE id = $1
	`
	_, err = r.db.ExecContext(ctx, query, record.ID, record.Title, record.Status, fields, time.Now())
	return err
}

// Delete removes a record
func (r *recordRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM records WHERE id = $1", id)
	return err
}

// Find queries records ordered by id ascending, paginated. A non-nil empty
// AuthorIDs set matches nothing; nil means unrestricted. No snapshot
// isolation: callers paging through a changing table get best-effort
// consistency across pages.
func (r *recordRepo) Find(ctx context.Context, q RecordQuery) ([]*models.Record, int, error) {
	if q.AuthorIDs != nil && len(q.AuthorIDs) == 0 {
		return []*models.Record{}, 0, nil
	}

	where := "WHERE record_type = $1"
	args := []interface{}{q.Type}

	if q.Status != "" {
		args = append(args, q.Status)
		where += " AND status = $2"
	}
	if q.AuthorIDs != nil {
		args = append(args, pq.Array(q.AuthorIDs))
		where += " AND author_id = ANY($" + strconv.Itoa(len(args)) + ")"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM records " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.PerPage
	args = append(args, q.PerPage, offset)
	query := `
		SELECT id, record_type, title, author_id, status, fields, created_at, updated_at
		FROM records ` + where + `
		ORDER BY id ASC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		record, err := r.scanRecordRows(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, total, rows.Err()
}

// FieldOrder returns the externally supplied stable field ordering for a
// record type (may be empty when the form host has not declared one).
func (r *recordRepo) FieldOrder(ctx context.Context, recordType models.RecordType) ([]string, error) {
	query := `SELECT field_name FROM record_field_order WHERE record_type = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, recordType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the total number of records of a type
func (r *recordRepo) Count(ctx context.Context, recordType models.RecordType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE record_type = $1", recordType).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *recordRepo) scanRecord(row rowScanner) (*models.Record, error) {
	record, err := scanInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *recordRepo) scanRecordRows(row rowScanner) (*models.Record, error) {
	return scanInto(row)
}

func scanInto(row rowScanner) (*models.Record, error) {
	var record models.Record
	var fields []byte
	err := row.Scan(
		&record.ID, &record.Type, &record.Title, &record.AuthorID, &record.Status,
		&fields, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &record.Fields); err != nil {
		return nil, err
	}
	return &record, nil
}
