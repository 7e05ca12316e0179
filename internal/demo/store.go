package demo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
)

// ErrNotFound reports a record lookup that matched nothing.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS records (
	resource TEXT NOT NULL,
	id       TEXT NOT NULL,
	data     TEXT NOT NULL,
	PRIMARY KEY (resource, id)
);`

// Store keeps tracker records in SQLite, one JSON document per record.
// Query constraints are pushed into SQL through json_extract so listing
// stays correct at any fixture size.
type Store struct {
	db *sql.DB
}

// OpenStore opens and migrates the record store. An empty path keeps the
// database in memory.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection at a time: writes never hit SQLITE_BUSY and an
	// in-memory database is not silently duplicated per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Load replaces the store contents with the fixture records, assigning a
// UUID to any record authored without an id. It returns the number of
// records inserted.
func (s *Store) Load(ctx context.Context, fixtures *Fixtures) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}

	total := 0
	for resource, coll := range fixtures.Resources {
		for _, rec := range coll.Records {
			if rec.ID() == "" {
				rec["id"] = uuid.NewString()
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return 0, fmt.Errorf("%s: marshal record %s: %w", resource, rec.ID(), err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO records (resource, id, data) VALUES (?, ?, ?)`,
				resource, rec.ID(), string(data),
			); err != nil {
				return 0, fmt.Errorf("%s: insert record %s: %w", resource, rec.ID(), err)
			}
			total++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// ListQuery is one page of server-side list constraints. SearchFields names
// the record fields the free-text search scans.
type ListQuery struct {
	Limit        int
	Offset       int
	Ordering     string
	Search       string
	SearchFields []string
	Filters      map[string]string
}

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func jsonPath(field string) (string, error) {
	if !fieldNameRe.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return "json_extract(data, '$." + field + "')", nil
}

// escapeLike neutralizes LIKE wildcards in user search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// filterCondition builds one equality constraint. JSON booleans surface
// from json_extract as integers, so true/false match both spellings;
// everything else compares through a text cast so numeric ids written as
// query strings still hit.
func filterCondition(field, value string) (string, []any, error) {
	path, err := jsonPath(field)
	if err != nil {
		return "", nil, err
	}
	switch strings.ToLower(value) {
	case "true":
		return path + " IN (1, 'true', 'True')", nil, nil
	case "false":
		return path + " IN (0, 'false', 'False')", nil, nil
	}
	return "CAST(" + path + " AS TEXT) = ?", []any{value}, nil
}

// List returns the total match count and one page of records for the
// resource under the given constraints.
func (s *Store) List(ctx context.Context, resource string, q ListQuery) (int, []api.Record, error) {
	conditions := []string{"resource = ?"}
	args := []any{resource}

	// Stable clause order keeps query plans and tests deterministic.
	fields := make([]string, 0, len(q.Filters))
	for field := range q.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		cond, condArgs, err := filterCondition(field, q.Filters[field])
		if err != nil {
			return 0, nil, err
		}
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}

	if q.Search != "" && len(q.SearchFields) > 0 {
		var ors []string
		pattern := "%" + escapeLike(q.Search) + "%"
		for _, field := range q.SearchFields {
			path, err := jsonPath(field)
			if err != nil {
				return 0, nil, err
			}
			ors = append(ors, path+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records "+where, args...,
	).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count %s: %w", resource, err)
	}

	// rowid preserves fixture authoring order as the default sort.
	orderBy := "rowid"
	if q.Ordering != "" {
		field, dir := q.Ordering, "ASC"
		if strings.HasPrefix(field, "-") {
			field, dir = field[1:], "DESC"
		}
		path, err := jsonPath(field)
		if err != nil {
			return 0, nil, err
		}
		orderBy = path + " COLLATE NOCASE " + dir + ", rowid"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM records "+where+" ORDER BY "+orderBy+" LIMIT ? OFFSET ?",
		append(args, limit, offset)...,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("list %s: %w", resource, err)
	}
	defer rows.Close()

	records := []api.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return 0, nil, err
		}
		var rec api.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return 0, nil, fmt.Errorf("corrupt record in %s: %w", resource, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, err
	}
	return total, records, nil
}

// Get fetches one record by id.
func (s *Store) Get(ctx context.Context, resource, id string) (api.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE resource = ? AND id = ?`, resource, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec api.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("corrupt record %s/%s: %w", resource, id, err)
	}
	return rec, nil
}

// Insert stores a new record, assigning a UUID when the payload has no id.
func (s *Store) Insert(ctx context.Context, resource string, rec api.Record) error {
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (resource, id, data) VALUES (?, ?, ?)`,
		resource, rec.ID(), string(data),
	); err != nil {
		return fmt.Errorf("insert %s/%s: %w", resource, rec.ID(), err)
	}
	return nil
}

// Delete removes one record by id.
func (s *Store) Delete(ctx context.Context, resource, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE resource = ? AND id = ?`, resource, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
