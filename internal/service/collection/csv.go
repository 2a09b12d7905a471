package collection

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
	"github.com/nicunursekatie/sandwichsync-sub003/internal/service/access"
)

// ImportOptions controls a CSV import run.
type ImportOptions struct {
	// Preview parses and validates without writing anything.
	Preview bool
	// Overwrite replaces an existing entry matching on date, host, and
	// individual count instead of skipping it.
	Overwrite bool
	// SubmittedBy is recorded on imported entries.
	SubmittedBy string
}

// ImportResult summarizes a CSV import run. Row numbers in Errors are
// 1-based and include the header row.
type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Replaced  int      `json:"replaced"`
	Errors    []string `json:"errors"`
}

// csvDateFormats covers the date styles seen in exported spreadsheets.
var csvDateFormats = []string{"2006-01-02", "1/2/2006", "01/02/2006", "2006-01-02T15:04:05Z07:00"}

// ImportCSV reads collection entries from a header-mapped CSV stream. Bulk
// imports write entries like LogEntry does, so the same capability gates
// them. A bad row is recorded and skipped; the import never aborts on row
// errors.
func (s Service) ImportCSV(ctx context.Context, actor *domain.User, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if !access.Can(actor, access.LogCollections) {
		return nil, ErrForbidden
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := mapColumns(header)
	if _, ok := columns["host"]; !ok {
		return nil, errors.New("csv is missing a host name column")
	}
	if _, ok := columns["date"]; !ok {
		return nil, errors.New("csv is missing a date column")
	}

	result := &ImportResult{}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		result.TotalRows++

		entry, err := parseRow(record, columns, opts.SubmittedBy)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if opts.Preview {
			result.Imported++
			continue
		}
		replaced, err := s.storeImported(ctx, entry, opts.Overwrite)
		if err != nil {
			if errors.Is(err, errDuplicateRow) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		result.Imported++
		if replaced {
			result.Replaced++
		}
	}
	s.logger.Info("csv import finished",
		"rows", result.TotalRows,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"replaced", result.Replaced,
		"errors", len(result.Errors),
		"preview", opts.Preview)
	return result, nil
}

var errDuplicateRow = errors.New("duplicate entry")

func (s Service) storeImported(ctx context.Context, entry *domain.SandwichCollection, overwrite bool) (bool, error) {
	existing, err := s.collections.FindCollection(ctx, entry.CollectionDate, entry.HostName, entry.IndividualCount)
	if err == nil {
		if !overwrite {
			return false, errDuplicateRow
		}
		entry.ID = existing.ID
		entry.SubmittedAt = existing.SubmittedAt
		if err := s.collections.UpdateCollection(ctx, entry); err != nil {
			return false, err
		}
		return true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if err := s.collections.CreateCollection(ctx, entry); err != nil {
		return false, err
	}
	return false, nil
}

// mapColumns normalizes header names to canonical keys.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		switch key {
		case "host", "host_name", "location":
			columns["host"] = i
		case "date", "collection_date":
			columns["date"] = i
		case "individual", "individual_count", "individual_sandwiches", "sandwich_count":
			columns["individual"] = i
		case "groups", "group_collections", "group_count":
			columns["groups"] = i
		}
	}
	return columns
}

func parseRow(record []string, columns map[string]int, submittedBy string) (*domain.SandwichCollection, error) {
	field := func(key string) string {
		i, ok := columns[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	hostName := field("host")
	if hostName == "" {
		return nil, errHostRequired
	}
	date, err := parseCSVDate(field("date"))
	if err != nil {
		return nil, err
	}

	individual := 0
	if raw := field("individual"); raw != "" {
		individual, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("bad individual count %q", raw)
		}
		if individual < 0 {
			return nil, errNegativeCount
		}
	}
	groups, err := domain.ParseGroupCollections(field("groups"))
	if err != nil {
		return nil, err
	}

	return &domain.SandwichCollection{
		CollectionDate:   date,
		HostName:         hostName,
		IndividualCount:  individual,
		GroupCollections: groups,
		SubmittedBy:      submittedBy,
		SubmittedAt:      time.Now().UTC(),
	}, nil
}

func parseCSVDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errDateRequired
	}
	for _, layout := range csvDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", raw)
}
