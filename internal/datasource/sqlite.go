package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/strandview/strand/pkg/model"
)

// SQLiteReader reads a beads.db database. All access is read only; bd owns
// the write side.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens the database behind a sqlite source.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not sqlite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Best effort; a bd-era database may reject any of these.
	for _, pragma := range []string{
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	} {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadIssues reads all live issues, newest update first. Tombstoned rows are
// excluded in SQL; rows that fail scanning or validation are skipped, keeping
// parity with the JSONL parser's per-record recovery.
func (r *SQLiteReader) LoadIssues() ([]*model.Issue, error) {
	return r.LoadIssuesFiltered(nil)
}

// LoadIssuesFiltered is LoadIssues restricted to issues the filter accepts.
func (r *SQLiteReader) LoadIssuesFiltered(filter func(*model.Issue) bool) ([]*model.Issue, error) {
	query := `
		SELECT
			id, title, description, status, priority, issue_type,
			assignee, estimated_minutes, created_at, updated_at,
			closed_at, external_ref, labels, design,
			acceptance_criteria, notes
		FROM issues
		WHERE (tombstone IS NULL OR tombstone = 0)
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		// Older schemas lack some of these columns.
		return r.loadIssuesSimple(filter)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		issue := new(model.Issue)
		var description, assignee, externalRef, design, acceptance, notes, labelsJSON sql.NullString
		var estimatedMinutes sql.NullInt64
		var createdAt, updatedAt, closedAt sql.NullTime
		var issueType string

		err := rows.Scan(
			&issue.ID, &issue.Title, &description, &issue.Status, &issue.Priority, &issueType,
			&assignee, &estimatedMinutes, &createdAt, &updatedAt,
			&closedAt, &externalRef, &labelsJSON, &design,
			&acceptance, &notes,
		)
		if err != nil {
			continue
		}

		issue.Description = description.String
		issue.IssueType = model.IssueType(issueType)
		issue.Assignee = assignee.String
		issue.ExternalRef = externalRef.String
		issue.Design = design.String
		issue.AcceptanceCriteria = acceptance.String
		issue.Notes = notes.String
		if estimatedMinutes.Valid {
			v := int(estimatedMinutes.Int64)
			issue.EstimatedMinutes = &v
		}
		if createdAt.Valid {
			issue.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			issue.UpdatedAt = updatedAt.Time
		}
		if closedAt.Valid {
			t := closedAt.Time
			issue.ClosedAt = &t
		}
		if labelsJSON.Valid {
			issue.Labels = parseJSONStringArray(labelsJSON.String)
		}

		issue.Dependencies = r.loadDependencies(issue.ID)
		issue.Comments = r.loadComments(issue.ID)

		if !keepIssue(issue, filter) {
			continue
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}

// loadIssuesSimple handles databases with only the core columns.
func (r *SQLiteReader) loadIssuesSimple(filter func(*model.Issue) bool) ([]*model.Issue, error) {
	query := `
		SELECT id, title, description, status, priority, issue_type, created_at, updated_at
		FROM issues
		WHERE (tombstone IS NULL OR tombstone = 0)
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		issue := new(model.Issue)
		var description sql.NullString
		var createdAt, updatedAt sql.NullTime
		var issueType string

		err := rows.Scan(
			&issue.ID, &issue.Title, &description, &issue.Status, &issue.Priority, &issueType,
			&createdAt, &updatedAt,
		)
		if err != nil {
			continue
		}

		issue.Description = description.String
		issue.IssueType = model.IssueType(issueType)
		if createdAt.Valid {
			issue.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			issue.UpdatedAt = updatedAt.Time
		}

		issue.Dependencies = r.loadDependencies(issue.ID)

		if !keepIssue(issue, filter) {
			continue
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}

// keepIssue applies the shared post-scan gate: status normalization,
// tombstone drop, validation, caller filter.
func keepIssue(issue *model.Issue, filter func(*model.Issue) bool) bool {
	issue.Status = model.NormalizeStatus(string(issue.Status))
	if issue.Status == model.StatusTombstone {
		return false
	}
	if issue.Validate() != nil {
		return false
	}
	return filter == nil || filter(issue)
}

// loadDependencies is best effort; a database without the table just yields
// no edges.
func (r *SQLiteReader) loadDependencies(issueID string) []*model.Dependency {
	rows, err := r.db.Query(
		`SELECT depends_on_id, dependency_type FROM dependencies WHERE issue_id = ?`, issueID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var deps []*model.Dependency
	for rows.Next() {
		var dep model.Dependency
		var depType string
		if err := rows.Scan(&dep.DependsOnID, &depType); err != nil {
			continue
		}
		dep.IssueID = issueID
		dep.Type = model.DependencyType(depType)
		deps = append(deps, &dep)
	}
	return deps
}

func (r *SQLiteReader) loadComments(issueID string) []*model.Comment {
	rows, err := r.db.Query(
		`SELECT id, author, text, created_at FROM comments WHERE issue_id = ? ORDER BY created_at`, issueID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var c model.Comment
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Author, &c.Text, &createdAt); err != nil {
			continue
		}
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		c.IssueID = issueID
		comments = append(comments, &c)
	}
	return comments
}

// CountIssues returns the number of live issues.
func (r *SQLiteReader) CountIssues() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM issues WHERE (tombstone IS NULL OR tombstone = 0)").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastModified returns the newest updated_at in the database.
func (r *SQLiteReader) LastModified() (time.Time, error) {
	var updatedAt sql.NullTime
	if err := r.db.QueryRow("SELECT MAX(updated_at) FROM issues").Scan(&updatedAt); err != nil {
		return time.Time{}, err
	}
	if !updatedAt.Valid {
		return time.Time{}, nil
	}
	return updatedAt.Time, nil
}

// parseJSONStringArray decodes the labels column, tolerating the
// pre-JSON comma-separated form bd once wrote.
func parseJSONStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "[]" {
		return nil
	}

	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		if s == "" {
			return nil
		}
		for _, item := range strings.Split(s, ",") {
			item = strings.Trim(strings.TrimSpace(item), `"`)
			if item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}
