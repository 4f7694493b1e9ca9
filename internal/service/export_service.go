package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/team-entries-api/internal/config"
	"github.com/team-entries-api/internal/models"
	"github.com/team-entries-api/internal/repository"
	"github.com/team-entries-api/internal/teams"
)

// utf8BOM prefixes every CSV body so spreadsheet tools pick up the encoding.
const utf8BOM = "\xEF\xBB\xBF"

// ExportQuery is one export or preview request.
type ExportQuery struct {
	Type    models.RecordType
	Team    string
	Status  string
	Page    int
	PerPage int
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos     *repository.Repositories
	directory *teams.Directory
	cfg       *config.ExportConfig
	log       zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, directory *teams.Directory, cfg *config.ExportConfig, log zerolog.Logger) *exportService {
	return &exportService{
		repos:     repos,
		directory: directory,
		cfg:       cfg,
		log:       log.With().Str("service", "export").Logger(),
	}
}

// Export flattens one page of records into tabular rows. Column order is the
// fixed id/title/team triple followed by field columns in first-seen order
// over the rows of this page. Pages are fetched one query at a time with no
// snapshot isolation: a multi-page export over a changing table is
// best-effort consistent, not strict.
func (s *exportService) Export(ctx context.Context, q ExportQuery) (*models.ExportResult, error) {
	q = s.normalize(q)

	authorIDs, err := s.resolveTeamFilter(ctx, q.Team)
	if err != nil {
		return nil, err
	}

	records, total, err := s.repos.Record.Find(ctx, repository.RecordQuery{
		Type:      q.Type,
		Status:    q.Status,
		AuthorIDs: authorIDs,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	columns, rows, err := s.flatten(ctx, q.Type, records)
	if err != nil {
		return nil, err
	}

	maxPages := 0
	if total > 0 {
		maxPages = (total + q.PerPage - 1) / q.PerPage
	}

	s.log.Info().
		Str("record_type", string(q.Type)).
		Str("team", q.Team).
		Int("page", q.Page).
		Int("rows", len(rows)).
		Int("total", total).
		Msg("Export page built")

	return &models.ExportResult{
		Columns: columns,
		Rows:    rows,
		Pagination: models.Pagination{
			Paged:    q.Page,
			PerPage:  q.PerPage,
			Total:    total,
			MaxPages: maxPages,
		},
	}, nil
}

// Preview returns at most the configured preview size from the first page.
// Its column order is computed over only the previewed rows, so a field that
// first appears on a later row shows up in the full export's header but not
// here. The two orderings are separate contracts; do not unify them.
func (s *exportService) Preview(ctx context.Context, q ExportQuery) (*models.ExportResult, error) {
	q.Page = 1
	result, err := s.Export(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) <= s.cfg.PreviewRows {
		return result, nil
	}

	rows := result.Rows[:s.cfg.PreviewRows]
	return &models.ExportResult{
		Columns:    previewColumns(rows, result.Columns),
		Rows:       rows,
		Pagination: result.Pagination,
	}, nil
}

// ExportAll walks every page of the filtered set and emits one combined
// result, for CSV downloads and background jobs. First-seen column order
// accumulates across all pages.
func (s *exportService) ExportAll(ctx context.Context, q ExportQuery) (*models.ExportResult, error) {
	q = s.normalize(q)
	q.Page = 1

	var columns []string
	seen := map[string]bool{}
	rows := []models.ExportRow{}
	var pagination models.Pagination

	for {
		result, err := s.Export(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, col := range result.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows = append(rows, result.Rows...)
		pagination = result.Pagination

		if q.Page >= result.Pagination.MaxPages || len(result.Rows) == 0 {
			break
		}
		q.Page++
	}

	pagination.Paged = 1
	return &models.ExportResult{Columns: columns, Rows: rows, Pagination: pagination}, nil
}

// WriteCSV serializes a result as UTF-8 CSV with a byte-order mark. Every
// cell is quoted, embedded quotes are doubled; encoding/csv cannot be told
// to do either unconditionally, so the quoting is done here.
func (s *exportService) WriteCSV(w io.Writer, result *models.ExportResult) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	if err := writeCSVLine(w, result.Columns); err != nil {
		return err
	}
	line := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			line[i] = row[col]
		}
		if err := writeCSVLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Filename builds the export attachment name: <prefix>-<type>-<timestamp>.csv.
func (s *exportService) Filename(recordType models.RecordType, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.csv", s.cfg.FilePrefix, recordType, now.Format("20060102-1504"))
}

// GetCount returns the number of records of a type, for the metrics endpoint.
func (s *exportService) GetCount(ctx context.Context, recordType models.RecordType) (int, error) {
	return s.repos.Record.Count(ctx, recordType)
}

// resolveTeamFilter translates a team label into an author-id set. No
// filter yields nil (unrestricted); a team nobody belongs to yields the
// empty set, which Find treats as "match nothing".
func (s *exportService) resolveTeamFilter(ctx context.Context, team string) ([]string, error) {
	if team == "" {
		return nil, nil
	}
	authorIDs, err := s.directory.UsersInTeam(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("resolve team filter: %w", err)
	}
	return authorIDs, nil
}

// flatten runs the page's records through the flattening pass, deriving each
// row's team from its author and accumulating first-seen column order.
func (s *exportService) flatten(ctx context.Context, recordType models.RecordType, records []*models.Record) ([]string, []models.ExportRow, error) {
	fieldOrder, err := s.repos.Record.FieldOrder(ctx, recordType)
	if err != nil {
		return nil, nil, fmt.Errorf("load field order: %w", err)
	}

	columns := []string{"id", "title", "team"}
	seen := map[string]bool{"id": true, "title": true, "team": true}
	rows := make([]models.ExportRow, 0, len(records))

	for _, record := range records {
		team, err := s.directory.TeamOf(ctx, record.AuthorID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve record team: %w", err)
		}
		row, rowColumns := flattenRecord(record, team, fieldOrder)
		for _, col := range rowColumns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func (s *exportService) normalize(q ExportQuery) ExportQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > s.cfg.MaxPerPage {
		q.PerPage = s.cfg.MaxPerPage
	}
	if q.Status == "" {
		q.Status = models.StatusDraft
	}
	return q
}

// previewColumns recomputes first-seen column order over only the previewed
// rows, preserving the full result's relative order for the columns kept.
func previewColumns(rows []models.ExportRow, full []string) []string {
	columns := make([]string, 0, len(full))
	for _, col := range full {
		for _, row := range rows {
			if _, ok := row[col]; ok {
				columns = append(columns, col)
				break
			}
		}
	}
	return columns
}

// writeCSVLine writes one fully quoted CSV line.
func writeCSVLine(w io.Writer, cells []string) error {
	var b strings.Builder
	for i, cellValue := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cellValue, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}
