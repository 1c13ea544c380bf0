// Package migrations reconciles drifted database schemas. Installations of
// this app have been upgraded in place for years, so a live file can be
// missing columns, carry legacy ones (name, start_date, photo, is_legacy),
// or even hold an old_students archive table. The migrator runs on every
// boot, adds whatever is missing, backfills once from the legacy columns,
// and folds all archive variants into the single status enum. Running it N
// times has the same effect as running it once.
package migrations

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dojoadmin_go/models"
)

// ColumnMigration declares one column that must exist, plus an optional
// one-time backfill. When BackfillFrom is set, the backfill only runs if
// the table actually has that source column.
type ColumnMigration struct {
	Table        string
	Column       string
	Type         string
	Backfill     string
	BackfillFrom string
}

// DefaultMigrations is the union of every column any historical schema
// version used, one declarative list replacing the per-deploy scripts that
// used to re-add these defensively.
var DefaultMigrations = []ColumnMigration{
	// students
	{Table: "students", Column: "first_name", Type: "TEXT"},
	{Table: "students", Column: "last_name", Type: "TEXT"},
	{Table: "students", Column: "phone", Type: "TEXT"},
	{Table: "students", Column: "email", Type: "TEXT"},
	{Table: "students", Column: "address", Type: "TEXT"},
	{Table: "students", Column: "age", Type: "INTEGER"},
	{Table: "students", Column: "program", Type: "TEXT"},
	{Table: "students", Column: "referral_source", Type: "TEXT"},
	{Table: "students", Column: "parent_phone", Type: "TEXT"},
	{Table: "students", Column: "notes", Type: "TEXT"},
	{Table: "students", Column: "parents_name", Type: "TEXT",
		Backfill:     `UPDATE students SET parents_name = COALESCE(parents_name, parent_name) WHERE parent_name IS NOT NULL AND parent_name <> ''`,
		BackfillFrom: "parent_name"},
	{Table: "students", Column: "join_date", Type: "TEXT",
		Backfill:     `UPDATE students SET join_date = COALESCE(join_date, start_date) WHERE start_date IS NOT NULL AND start_date <> ''`,
		BackfillFrom: "start_date"},
	{Table: "students", Column: "renewal_date", Type: "TEXT"},
	{Table: "students", Column: "picture_path", Type: "TEXT",
		Backfill:     `UPDATE students SET picture_path = COALESCE(picture_path, photo) WHERE photo IS NOT NULL AND photo <> ''`,
		BackfillFrom: "photo"},
	{Table: "students", Column: "status", Type: "TEXT"},

	// leads
	{Table: "leads", Column: "name", Type: "TEXT"},
	{Table: "leads", Column: "phone", Type: "TEXT"},
	{Table: "leads", Column: "email", Type: "TEXT"},
	{Table: "leads", Column: "interested_program", Type: "TEXT"},
	{Table: "leads", Column: "source", Type: "TEXT"},
	{Table: "leads", Column: "follow_up_date", Type: "TEXT"},
	{Table: "leads", Column: "notes", Type: "TEXT"},
	{Table: "leads", Column: "status", Type: "TEXT",
		Backfill: `UPDATE leads SET status = 'new' WHERE status IS NULL OR status = ''`},

	// payments
	{Table: "payments", Column: "student_id", Type: "INTEGER"},
	{Table: "payments", Column: "amount", Type: "NUMERIC NOT NULL DEFAULT 0"},
	{Table: "payments", Column: "date", Type: "TEXT"},
	{Table: "payments", Column: "method", Type: "TEXT"},
	{Table: "payments", Column: "taxable", Type: "INTEGER NOT NULL DEFAULT 0"},
	{Table: "payments", Column: "note", Type: "TEXT"},
	{Table: "payments", Column: "receipt_no", Type: "TEXT"},
	{Table: "payments", Column: "created_at", Type: "TEXT",
		Backfill: `UPDATE payments SET created_at = COALESCE(created_at, datetime('now'))`},

	// expenses
	{Table: "expenses", Column: "vendor", Type: "TEXT"},
	{Table: "expenses", Column: "amount", Type: "NUMERIC NOT NULL DEFAULT 0"},
	{Table: "expenses", Column: "date", Type: "TEXT"},
	{Table: "expenses", Column: "taxable", Type: "INTEGER NOT NULL DEFAULT 0"},
	{Table: "expenses", Column: "category", Type: "TEXT"},
	{Table: "expenses", Column: "note", Type: "TEXT"},

	// attendance
	{Table: "attendance", Column: "student_id", Type: "INTEGER"},
	{Table: "attendance", Column: "date", Type: "TEXT"},
	{Table: "attendance", Column: "present", Type: "INTEGER NOT NULL DEFAULT 1"},
}

// Run applies DefaultMigrations and the legacy reconciliation steps.
// Failures are logged and counted, never fatal: one bad column must not
// block the rest of the schema or process startup.
func Run(db *gorm.DB) int {
	errCount := 0
	for _, m := range DefaultMigrations {
		if err := EnsureColumn(db, m); err != nil {
			logrus.WithFields(logrus.Fields{
				"table":  m.Table,
				"column": m.Column,
			}).WithError(err).Error("column migration failed")
			errCount++
		}
	}
	errCount += reconcileLegacy(db)
	return errCount
}

// EnsureColumn adds the column if the table doesn't have it and runs the
// associated backfill in the same transaction. Safe to call repeatedly.
func EnsureColumn(db *gorm.DB, m ColumnMigration) error {
	return db.Transaction(func(tx *gorm.DB) error {
		cols, err := TableColumns(tx, m.Table)
		if err != nil {
			return &models.SchemaError{Table: m.Table, Column: m.Column, Err: err}
		}

		added := false
		if !cols[strings.ToLower(m.Column)] {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Type)
			if err := tx.Exec(stmt).Error; err != nil {
				return &models.SchemaError{Table: m.Table, Column: m.Column, Err: err}
			}
			added = true
			logrus.Infof("auto-migrate: added %s.%s", m.Table, m.Column)
		}

		if m.Backfill == "" {
			return nil
		}
		// Backfills copy from legacy columns, so they only make sense when
		// the column was just created or still holds NULLs from a previous
		// partial run. The statements are COALESCE-guarded either way.
		if m.BackfillFrom != "" && !cols[strings.ToLower(m.BackfillFrom)] {
			return nil
		}
		if err := tx.Exec(m.Backfill).Error; err != nil {
			return &models.SchemaError{Table: m.Table, Column: m.Column, Err: fmt.Errorf("backfill: %w", err)}
		}
		if added {
			logrus.Infof("auto-migrate: backfilled %s.%s", m.Table, m.Column)
		}
		return nil
	})
}

// TableColumns returns the lowercased column names of a table. Column
// existence checks are case-insensitive throughout.
func TableColumns(db *gorm.DB, table string) (map[string]bool, error) {
	var names []string
	if err := db.Raw("SELECT name FROM pragma_table_info(?)", table).Scan(&names).Error; err != nil {
		return nil, err
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[strings.ToLower(n)] = true
	}
	return cols, nil
}

// HasTable reports whether a table exists.
func HasTable(db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)", table).Scan(&count).Error
	return count > 0, err
}
