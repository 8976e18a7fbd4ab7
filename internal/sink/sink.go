// Package sink persists entity records per district with name-based
// deduplication.
package sink

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
	"github.com/ly2306/bizdir-crawler/internal/metrics"
)

// nameColumn is the position of NAME in the header row.
const nameColumn = 1

// DistrictSink appends records for one district into its table. It is
// owned by a single district runner and is not safe for concurrent use.
type DistrictSink struct {
	store    crawler.TableStore
	groupID  string
	table    string
	seen     map[string]struct{}
	dataRows int
	strict   bool
	logger   *zap.Logger
}

// Open ensures the district's table exists and snapshots its NAME
// column once. The snapshot is the dedup set for the whole district
// run; rows written by other writers after this point are only caught
// in strict mode.
func Open(
	ctx context.Context,
	store crawler.TableStore,
	groupID, districtName string,
	strict bool,
	logger *zap.Logger,
) (*DistrictSink, error) {
	table := TableName(districtName)
	if err := store.EnsureTable(ctx, groupID, table, crawler.HeaderRow); err != nil {
		return nil, err
	}
	names, err := store.ReadColumn(ctx, groupID, table, nameColumn)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	logger.Debug("opened district sink",
		zap.String("table", table),
		zap.Int("existing_rows", len(names)))
	return &DistrictSink{
		store:    store,
		groupID:  groupID,
		table:    table,
		seen:     seen,
		dataRows: len(names),
		strict:   strict,
		logger:   logger,
	}, nil
}

// Table returns the sheet name records go into.
func (s *DistrictSink) Table() string {
	return s.table
}

// IsDuplicate reports whether the name is already known, so callers
// can skip the detail fetch entirely. Strict mode still re-checks at
// append time.
func (s *DistrictSink) IsDuplicate(name string) bool {
	if _, dup := s.seen[name]; !dup {
		return false
	}
	metrics.ObserveDuplicateSkipped(s.table)
	s.logger.Debug("skipping duplicate", zap.String("name", name))
	return true
}

// Append writes one record unless its name is already present. It
// fills in the record's sequence number and reports whether a row was
// written.
func (s *DistrictSink) Append(ctx context.Context, rec *crawler.EntityRecord) (bool, error) {
	if _, dup := s.seen[rec.Name]; dup {
		metrics.ObserveDuplicateSkipped(s.table)
		s.logger.Debug("skipping duplicate", zap.String("name", rec.Name))
		return false, nil
	}
	if s.strict {
		// Re-read the column so a concurrent writer's rows count too.
		names, err := s.store.ReadColumn(ctx, s.groupID, s.table, nameColumn)
		if err != nil {
			return false, err
		}
		s.dataRows = len(names)
		for _, n := range names {
			s.seen[n] = struct{}{}
		}
		if _, dup := s.seen[rec.Name]; dup {
			metrics.ObserveDuplicateSkipped(s.table)
			return false, nil
		}
	}
	rec.Seq = s.dataRows + 1
	if err := s.store.AppendRow(ctx, s.groupID, s.table, rec.Row()); err != nil {
		return false, err
	}
	s.seen[rec.Name] = struct{}{}
	s.dataRows++
	metrics.ObserveRecordAppended(s.table)
	return true, nil
}

// TableName derives the sheet name from a district name: first rune
// uppercased, every following rune lowercased. "quận 10", "Quận 10",
// and "QUẬN 10" must all land on the same sheet, and existing
// workbooks were written with exactly this casing, so both halves of
// the rule are load-bearing for sheet identity.
func TableName(districtName string) string {
	name := strings.TrimSpace(districtName)
	if name == "" {
		return name
	}
	runes := []rune(name)
	out := make([]rune, len(runes))
	out[0] = unicode.ToUpper(runes[0])
	for i, r := range runes[1:] {
		out[i+1] = unicode.ToLower(r)
	}
	return string(out)
}
