package datasource

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/strandview/strand/pkg/loader"
)

// ErrNoSource reports that discovery found nothing usable.
var ErrNoSource = errors.New("no valid beads data source found")

// ValidateSource checks that a source can actually be read and records the
// outcome on the source itself. A validation failure is a property of the
// source, not an error of the call.
func ValidateSource(s *DataSource) {
	switch s.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(*s)
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return
		}
		defer reader.Close()
		count, err := reader.CountIssues()
		if err != nil {
			s.Valid = false
			s.ValidationError = fmt.Sprintf("counting issues: %v", err)
			return
		}
		s.Valid = true
		s.ValidationError = ""
		s.IssueCount = count

	case SourceTypeJSONLLocal, SourceTypeJSONLWorktree:
		issues, err := loader.LoadFile(s.Path, loader.Options{})
		if err != nil {
			s.Valid = false
			s.ValidationError = err.Error()
			return
		}
		s.Valid = true
		s.ValidationError = ""
		s.IssueCount = len(issues)

	default:
		s.Valid = false
		s.ValidationError = fmt.Sprintf("unknown source type %q", s.Type)
	}
}

// ValidateAll validates every source concurrently. Sources are independent
// files, so a slow or locked one does not serialize the rest.
func ValidateAll(sources []DataSource) {
	var g errgroup.Group
	g.SetLimit(4)
	for i := range sources {
		s := &sources[i]
		g.Go(func() error {
			ValidateSource(s)
			return nil
		})
	}
	_ = g.Wait()
}

// SelectBestSource returns the first valid source in an already-sorted
// candidate list (freshest first, priority breaking ties).
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, ErrNoSource
}
