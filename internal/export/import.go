package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// Creator is the slice of the API client an import needs.
type Creator interface {
	Create(ctx context.Context, resourcePath string, payload any) (api.Record, error)
}

// Import reads records from r and creates them one by one, returning how
// many were created. Any "id" field is dropped so the backend assigns
// fresh identifiers; the first failing record aborts the run with its
// position in the file.
//
// CSV input needs a header row of field names. Cell values are coerced:
// true/false become booleans, numeric text becomes numbers, everything
// else stays a string, and empty cells are omitted.
func Import(ctx context.Context, client Creator, r io.Reader, format Format, resource resources.Resource, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var records []api.Record
	var err error
	switch format {
	case JSON:
		records, err = readJSONRecords(r)
	case CSV, "":
		records, err = readCSVRecords(r)
	default:
		return 0, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return 0, err
	}

	created := 0
	for i, rec := range records {
		delete(rec, "id")
		stored, err := client.Create(ctx, resource.Path, rec)
		if err != nil {
			return created, fmt.Errorf("record %d of %d: %w", i+1, len(records), err)
		}
		log.Debug("record imported",
			zap.String("resource", resource.Path),
			zap.String("id", stored.ID()))
		created++
	}
	return created, nil
}

func readJSONRecords(r io.Reader) ([]api.Record, error) {
	var records []api.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode JSON records: %w", err)
	}
	return records, nil
}

func readCSVRecords(r io.Reader) ([]api.Record, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	var records []api.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		rec := api.Record{}
		for i, field := range header {
			if i >= len(row) || row[i] == "" {
				continue
			}
			rec[field] = coerceCell(row[i])
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return records, nil
}

// coerceCell guesses a CSV cell's type. Leading zeros do not survive
// numeric coercion.
func coerceCell(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
