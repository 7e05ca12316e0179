// Package export streams tracker query results to CSV or JSON, walking the
// paginated list endpoint page by page, and imports record files back
// through the create endpoint.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// Format selects the serialization for an export or import.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case CSV, JSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want csv or json)", s)
}

const (
	// DefaultMaxRecords caps an export so a filter typo cannot drain the
	// whole backend into a file.
	DefaultMaxRecords = 10000
	// pageSize is the walk stride; large pages keep round trips down.
	pageSize = 200
)

// Lister is the slice of the API client an export needs.
type Lister interface {
	List(ctx context.Context, resourcePath string, params api.ListParams) (*api.ListResult, error)
}

// Options configures one export run.
type Options struct {
	Resource resources.Resource
	// Params carries the query to export: search, ordering, filters.
	// Offset and Limit are managed by the walk.
	Params     api.ListParams
	Format     Format
	MaxRecords int // 0 means DefaultMaxRecords
	Logger     *zap.Logger
}

// Run writes every record matching the query to w and returns how many it
// wrote. CSV columns follow the resource's column layout with
// machine-readable cell values; JSON emits the full records as an array.
func Run(ctx context.Context, client Lister, w io.Writer, opts Options) (int, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxRecords := opts.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	var sink recordSink
	switch opts.Format {
	case JSON:
		sink = &jsonSink{w: w}
	case CSV, "":
		sink = newCSVSink(w, opts.Resource.Columns)
	default:
		return 0, fmt.Errorf("unknown format %q", opts.Format)
	}

	params := opts.Params.Clone()
	params.Offset = 0
	params.Limit = pageSize

	written := 0
	for {
		result, err := client.List(ctx, opts.Resource.Path, params)
		if err != nil {
			return written, err
		}
		if len(result.Results) == 0 {
			break
		}
		for _, rec := range result.Results {
			if written >= maxRecords {
				log.Warn("export truncated",
					zap.String("resource", opts.Resource.Path),
					zap.Int("cap", maxRecords))
				return written, sink.close()
			}
			if err := sink.write(rec); err != nil {
				return written, err
			}
			written++
		}
		params.Offset += len(result.Results)
		if params.Offset >= result.Count {
			break
		}
		log.Debug("export page done",
			zap.String("resource", opts.Resource.Path),
			zap.Int("offset", params.Offset),
			zap.Int("count", result.Count))
	}
	return written, sink.close()
}

type recordSink interface {
	write(rec api.Record) error
	close() error
}

type csvSink struct {
	w       *csv.Writer
	columns []resources.Column
	started bool
}

func newCSVSink(w io.Writer, columns []resources.Column) *csvSink {
	return &csvSink{w: csv.NewWriter(w), columns: columns}
}

func (s *csvSink) header() error {
	if s.started {
		return nil
	}
	s.started = true
	fields := make([]string, len(s.columns))
	for i, col := range s.columns {
		fields[i] = col.Field
	}
	return s.w.Write(fields)
}

func (s *csvSink) write(rec api.Record) error {
	if err := s.header(); err != nil {
		return err
	}
	row := make([]string, len(s.columns))
	for i, col := range s.columns {
		row[i] = csvValue(col, rec)
	}
	return s.w.Write(row)
}

// csvValue serializes a cell machine-readably rather than with the table's
// display formatting, so an exported file can be imported back.
func csvValue(col resources.Column, rec api.Record) string {
	switch col.Kind {
	case resources.Bool:
		return strconv.FormatBool(rec.Bool(col.Field))
	case resources.Number:
		return strconv.Itoa(rec.Int(col.Field))
	case resources.Decimal:
		return strconv.FormatFloat(rec.Float(col.Field), 'f', -1, 64)
	default:
		// Dates and datetimes pass through as stored.
		return rec.String(col.Field)
	}
}

// close flushes, emitting the header row even for an empty result so the
// file is still a valid CSV with a schema.
func (s *csvSink) close() error {
	if err := s.header(); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

type jsonSink struct {
	w    io.Writer
	recs []api.Record
}

func (s *jsonSink) write(rec api.Record) error {
	s.recs = append(s.recs, rec)
	return nil
}

func (s *jsonSink) close() error {
	if s.recs == nil {
		s.recs = []api.Record{}
	}
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.recs)
}
