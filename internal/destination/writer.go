package destination

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

// Column describes one column of a destination content table.
type Column struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
	Nullable string `db:"is_nullable"`
}

// IsNullable reports whether the column accepts NULL.
func (c Column) IsNullable() bool { return strings.EqualFold(c.Nullable, "YES") }

// Writer performs schema-mapped inserts and updates against destination
// content tables. Payload keys that have no matching column are dropped, so
// callers can send every known alias for a field and let each destination
// pick the spelling it actually has.
type Writer struct {
	logger logger.Logger
}

// NewWriter creates a destination writer.
func NewWriter(log logger.Logger) *Writer {
	return &Writer{logger: log}
}

// Columns introspects the destination table's column set.
func (w *Writer) Columns(ctx context.Context, db *sqlx.DB, table string) ([]Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`

	var cols []Column
	if err := db.SelectContext(ctx, &cols, query, table); err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", table, err)
	}
	return cols, nil
}

// ResolveTable verifies the table exists, recovering from casing and
// singular/plural mismatches. Returns the actual table name or
// models.ErrTableMissing.
func (w *Writer) ResolveTable(ctx context.Context, db *sqlx.DB, table string) (string, error) {
	names, err := w.listTables(ctx, db)
	if err != nil {
		return "", err
	}

	for _, name := range names {
		if name == table {
			return name, nil
		}
	}
	for _, name := range names {
		if strings.EqualFold(name, table) {
			return name, nil
		}
	}
	// Singular/plural recovery: "blog" finds "blogs" and vice versa.
	singular := strings.TrimSuffix(table, "s")
	for _, name := range names {
		if strings.EqualFold(name, table+"s") || strings.EqualFold(name, singular) {
			return name, nil
		}
	}
	return "", fmt.Errorf("table %s: %w", table, models.ErrTableMissing)
}

func (w *Writer) listTables(ctx context.Context, db *sqlx.DB) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var names []string
	if err := db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Insert maps the payload onto the table's actual columns and inserts one
// row, returning the new row's id when the table has an id column.
func (w *Writer) Insert(ctx context.Context, db *sqlx.DB, table string, payload map[string]any) (int64, error) {
	actual, err := w.ResolveTable(ctx, db, table)
	if err != nil {
		return 0, err
	}
	cols, err := w.Columns(ctx, db, actual)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("table %s: %w", actual, models.ErrTableMissing)
	}

	row := mapPayload(payload, cols)
	autofill(row, cols)
	if len(row) == 0 {
		return 0, fmt.Errorf("no payload fields match columns of %s", actual)
	}

	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	quoted := make([]string, len(names))
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		quoted[i] = `"` + name + `"`
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[name]
	}

	query := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		actual, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if hasColumn(cols, "id") {
		query += ` RETURNING id`
		var id int64
		if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, w.wrapWriteError(actual, err)
		}
		return id, nil
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return 0, w.wrapWriteError(actual, err)
	}
	return 0, nil
}

// Update maps the fields onto the table's columns and updates the row with
// the given id. Unmatched fields are dropped; if nothing matches,
// models.ErrNoFieldsToUpdate is returned.
func (w *Writer) Update(ctx context.Context, db *sqlx.DB, table string, id int64, fields map[string]any) error {
	actual, err := w.ResolveTable(ctx, db, table)
	if err != nil {
		return err
	}
	cols, err := w.Columns(ctx, db, actual)
	if err != nil {
		return err
	}

	row := mapPayload(fields, cols)
	delete(row, "id")
	if len(row) == 0 {
		return models.ErrNoFieldsToUpdate
	}
	if hasColumn(cols, "updated_at") {
		row["updated_at"] = time.Now().UTC()
	}

	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = fmt.Sprintf(`"%s" = $%d`, name, i+1)
		args = append(args, row[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE "%s" SET %s WHERE id = $%d`,
		actual, strings.Join(sets, ", "), len(names)+1)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return w.wrapWriteError(actual, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (w *Writer) wrapWriteError(table string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("write to %s returned no id: %w", table, err)
	}
	if isMissingRelation(err) {
		return fmt.Errorf("table %s: %w", table, models.ErrTableMissing)
	}
	return fmt.Errorf("write to %s: %w", table, err)
}

// isMissingRelation detects the table vanishing between introspection and
// write.
func isMissingRelation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "undefined table") ||
		strings.Contains(msg, "no such table")
}

// mapPayload intersects the payload against the table's actual columns,
// matching keys case-insensitively with underscores and spaces ignored.
// Collection values are serialized to JSON text so they survive text and
// jsonb columns alike.
func mapPayload(payload map[string]any, cols []Column) map[string]any {
	byNorm := make(map[string]string, len(cols))
	for _, c := range cols {
		byNorm[normalizeKey(c.Name)] = c.Name
	}

	row := make(map[string]any, len(payload))
	for key, value := range payload {
		col, ok := byNorm[normalizeKey(key)]
		if !ok || value == nil {
			continue
		}
		row[col] = serializeValue(value)
	}
	return row
}

// autofill sets non-nullable timestamp columns the payload left empty.
func autofill(row map[string]any, cols []Column) {
	now := time.Now().UTC()
	for _, c := range cols {
		if c.IsNullable() {
			continue
		}
		if _, ok := row[c.Name]; ok {
			continue
		}
		switch normalizeKey(c.Name) {
		case "createdat", "updatedat", "datecreated", "datemodified", "publishedat":
			row[c.Name] = now
		}
	}
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	return strings.ReplaceAll(key, " ", "")
}

func serializeValue(value any) any {
	switch v := value.(type) {
	case string, bool, int, int32, int64, float32, float64, time.Time, *time.Time:
		return v
	case []string:
		return marshalJSON(v)
	case []any, map[string]any, []models.FAQItem:
		return marshalJSON(v)
	default:
		return v
	}
}

func marshalJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

func hasColumn(cols []Column, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}
