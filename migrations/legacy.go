package migrations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// reconcileLegacy converges the historical archive variants onto the
// status enum and pulls forward data stranded in legacy shapes. Each step
// runs in its own transaction and is skipped silently when the legacy
// column or table it targets doesn't exist. All steps are idempotent.
func reconcileLegacy(db *gorm.DB) int {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"split legacy name", splitLegacyName},
		{"status from legacy flags", statusFromFlags},
		{"merge old_students", mergeOldStudents},
		{"backfill renewal_date", backfillRenewalDate},
	}

	errCount := 0
	for _, step := range steps {
		if err := db.Transaction(step.fn); err != nil {
			logrus.WithError(err).Errorf("legacy reconciliation: %s failed", step.name)
			errCount++
		}
	}
	return errCount
}

// splitLegacyName fills first_name/last_name from a legacy single name
// column: first token before the first space, remainder after it.
func splitLegacyName(tx *gorm.DB) error {
	cols, err := TableColumns(tx, "students")
	if err != nil {
		return err
	}
	if !cols["name"] || !cols["first_name"] || !cols["last_name"] {
		return nil
	}
	return tx.Exec(`
		UPDATE students
		SET first_name = COALESCE(NULLIF(first_name, ''), TRIM(SUBSTR(name, 1, INSTR(name || ' ', ' ') - 1))),
		    last_name  = COALESCE(NULLIF(last_name, ''),  NULLIF(TRIM(SUBSTR(name, INSTR(name || ' ', ' ') + 1)), ''))
		WHERE name IS NOT NULL AND name <> ''
		  AND ((first_name IS NULL OR first_name = '') OR (last_name IS NULL OR last_name = ''))
	`).Error
}

// statusFromFlags maps the three historical lifecycle flags into the
// status enum without overriding a status that is already set:
// is_legacy/legacy set, or active cleared, means archived.
func statusFromFlags(tx *gorm.DB) error {
	cols, err := TableColumns(tx, "students")
	if err != nil {
		return err
	}
	if !cols["status"] {
		return nil
	}

	for _, flag := range []string{"is_legacy", "legacy"} {
		if !cols[flag] {
			continue
		}
		stmt := fmt.Sprintf(`UPDATE students SET status = 'archived' WHERE IFNULL(%s, 0) = 1 AND (status IS NULL OR status = '')`, flag)
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	if cols["active"] {
		if err := tx.Exec(`UPDATE students SET status = 'archived' WHERE IFNULL(active, 1) = 0 AND (status IS NULL OR status = '')`).Error; err != nil {
			return err
		}
	}
	// Everything still unset is live.
	return tx.Exec(`UPDATE students SET status = 'active' WHERE status IS NULL OR status = ''`).Error
}

// mergeOldStudents copies rows from the old_students archive table (one
// deployment physically moved archived students there) into students with
// status = 'archived'. Rows whose id already exists are left alone, and
// the archive table itself is never dropped.
func mergeOldStudents(tx *gorm.DB) error {
	ok, err := HasTable(tx, "old_students")
	if err != nil || !ok {
		return err
	}

	oldCols, err := TableColumns(tx, "old_students")
	if err != nil {
		return err
	}
	newCols, err := TableColumns(tx, "students")
	if err != nil {
		return err
	}

	var shared []string
	for col := range oldCols {
		// status is forced to archived below; id must come over so the
		// not-exists guard keys on it.
		if col == "status" {
			continue
		}
		if newCols[col] {
			shared = append(shared, col)
		}
	}
	if len(shared) == 0 || !newCols["status"] {
		return nil
	}
	sort.Strings(shared)

	colList := strings.Join(shared, ", ")
	stmt := fmt.Sprintf(`
		INSERT INTO students (%s, status)
		SELECT %s, 'archived' FROM old_students o
		WHERE NOT EXISTS (SELECT 1 FROM students s WHERE s.id = o.id)
	`, colList, prefixColumns(shared, "o"))

	res := tx.Exec(stmt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		logrus.Infof("auto-migrate: merged %d row(s) from old_students", res.RowsAffected)
	}
	return nil
}

// backfillRenewalDate restores the renewal invariant on historical rows:
// a student with a join date but no renewal date gets join_date + 28 days.
func backfillRenewalDate(tx *gorm.DB) error {
	cols, err := TableColumns(tx, "students")
	if err != nil {
		return err
	}
	if !cols["join_date"] || !cols["renewal_date"] {
		return nil
	}
	return tx.Exec(`
		UPDATE students
		SET renewal_date = date(join_date, '+28 day')
		WHERE (renewal_date IS NULL OR renewal_date = '')
		  AND join_date IS NOT NULL AND join_date <> ''
	`).Error
}

func prefixColumns(cols []string, alias string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}
