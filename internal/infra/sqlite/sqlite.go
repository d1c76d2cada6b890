// Package sqlite is a single-file document store on modernc.org/sqlite.
// Each collection is a table of (id, JSON data) rows read in insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"
)

var tracer = otel.Tracer("sqlite")

// Store implements port.DocumentStore.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database file and provisions every collection.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time; concurrent writers would hit SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store ready", zap.String("path", path))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, coll := range port.Collections {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`, coll)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", coll, err)
		}
	}
	return nil
}

// table guards the table name interpolated into SQL.
func table(coll string) (string, error) {
	if !slices.Contains(port.Collections, coll) {
		return "", &domain.ErrValidation{Field: "collection", Message: "unknown collection " + coll}
	}
	return coll, nil
}

func (s *Store) Add(ctx context.Context, coll string, doc map[string]any) (string, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Add")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll))

	tbl, err := table(coll)
	if err != nil {
		return "", err
	}

	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	stored := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", coll, err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)`, tbl), id, string(data))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", &domain.ErrConflict{Message: fmt.Sprintf("%s already exists: %s", coll, id)}
		}
		return "", s.fail("insert", coll, err)
	}
	return id, nil
}

// Update merges fields with SQLite's json_patch, so fields set to null are
// removed from the document.
func (s *Store) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "SQLite.Update")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll), attribute.String("id", id))

	tbl, err := table(coll)
	if err != nil {
		return err
	}

	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			patch[k] = v
		}
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", coll, err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET data = json_patch(data, ?) WHERE id = ?`, tbl), string(data), id)
	if err != nil {
		return s.fail("update", coll, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: coll, ID: id}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll), attribute.String("id", id))

	tbl, err := table(coll)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, tbl), id)
	if err != nil {
		return s.fail("delete", coll, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: coll, ID: id}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, coll, id string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Get")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll), attribute.String("id", id))

	tbl, err := table(coll)
	if err != nil {
		return nil, err
	}
	var data string
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, tbl), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: coll, ID: id}
	}
	if err != nil {
		return nil, s.fail("get", coll, err)
	}
	return json.RawMessage(data), nil
}

func (s *Store) GetAll(ctx context.Context, coll string) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetAll")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll))

	tbl, err := table(coll)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, coll, fmt.Sprintf(`SELECT data FROM %s ORDER BY rowid`, tbl))
}

// GetFiltered compares the field's text form, so numbers and booleans match
// their JSON spelling.
func (s *Store) GetFiltered(ctx context.Context, coll, field, value string) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetFiltered")
	defer span.End()
	span.SetAttributes(attribute.String("collection", coll), attribute.String("field", field))

	tbl, err := table(coll)
	if err != nil {
		return nil, err
	}
	path := `$."` + strings.ReplaceAll(field, `"`, ``) + `"`
	return s.query(ctx, coll,
		fmt.Sprintf(`SELECT data FROM %s WHERE CAST(json_extract(data, ?) AS TEXT) = ? ORDER BY rowid`, tbl),
		path, value)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) query(ctx context.Context, coll, stmt string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.fail("query", coll, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, s.fail("scan", coll, err)
		}
		out = append(out, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("query", coll, err)
	}
	return out, nil
}

func (s *Store) fail(op, coll string, err error) error {
	s.logger.Error("sqlite: "+op+" failed",
		zap.String("collection", coll),
		zap.Error(err),
	)
	return &domain.ErrExternalService{Service: "sqlite/" + coll, Err: err}
}
