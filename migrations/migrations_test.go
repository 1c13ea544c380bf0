package migrations

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	// one connection so the in-memory database is shared
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func mustExec(t *testing.T, db *gorm.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("Exec %q: %v", stmt, err)
		}
	}
}

func findMigration(t *testing.T, table, column string) ColumnMigration {
	t.Helper()
	for _, m := range DefaultMigrations {
		if m.Table == table && m.Column == column {
			return m
		}
	}
	t.Fatalf("no migration declared for %s.%s", table, column)
	return ColumnMigration{}
}

// minimal tables as the very first deployment created them
func createBareTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db,
		`CREATE TABLE students (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE leads (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE payments (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE expenses (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE attendance (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
	)
}

func TestRunAddsAllMissingColumns(t *testing.T) {
	db := newTestDB(t)
	createBareTables(t, db)

	if errs := Run(db); errs != 0 {
		t.Fatalf("Run returned %d errors, want 0", errs)
	}

	for _, m := range DefaultMigrations {
		cols, err := TableColumns(db, m.Table)
		if err != nil {
			t.Fatalf("TableColumns(%s): %v", m.Table, err)
		}
		if !cols[m.Column] {
			t.Errorf("column %s.%s missing after Run", m.Table, m.Column)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	createBareTables(t, db)

	if errs := Run(db); errs != 0 {
		t.Fatalf("first Run returned %d errors", errs)
	}
	before, _ := TableColumns(db, "students")

	if errs := Run(db); errs != 0 {
		t.Fatalf("second Run returned %d errors", errs)
	}
	after, _ := TableColumns(db, "students")

	if len(before) != len(after) {
		t.Errorf("column count changed across runs: %d != %d", len(before), len(after))
	}
}

func TestEnsureColumnCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db, `CREATE TABLE students (id INTEGER PRIMARY KEY, First_Name TEXT)`)

	err := EnsureColumn(db, ColumnMigration{Table: "students", Column: "first_name", Type: "TEXT"})
	if err != nil {
		t.Fatalf("EnsureColumn on differently-cased existing column: %v", err)
	}

	var count int64
	db.Raw(`SELECT COUNT(*) FROM pragma_table_info('students') WHERE lower(name) = 'first_name'`).Scan(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 first_name column, got %d", count)
	}
}

func TestRunContinuesPastMissingTables(t *testing.T) {
	db := newTestDB(t)
	// Only students exists; the other tables' migrations must fail without
	// stopping the run.
	mustExec(t, db, `CREATE TABLE students (id INTEGER PRIMARY KEY AUTOINCREMENT)`)

	errs := Run(db)
	if errs == 0 {
		t.Fatal("expected errors for missing tables")
	}

	cols, err := TableColumns(db, "students")
	if err != nil {
		t.Fatal(err)
	}
	if !cols["first_name"] || !cols["renewal_date"] {
		t.Error("students columns not added despite other tables failing")
	}
}

func TestLegacyColumnBackfills(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT, start_date TEXT, parent_name TEXT, photo TEXT
		)`,
		`CREATE TABLE leads (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE payments (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE expenses (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`CREATE TABLE attendance (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`INSERT INTO students (name, start_date, parent_name, photo)
		 VALUES ('Aiko Tanaka', '2023-05-01', 'Yuki Tanaka', '/uploads/photos/aiko.jpg')`,
	)

	if errs := Run(db); errs != 0 {
		t.Fatalf("Run returned %d errors", errs)
	}

	var row struct {
		FirstName   string
		LastName    string
		JoinDate    string
		RenewalDate string
		ParentsName string
		PicturePath string
		Status      string
	}
	if err := db.Raw(`SELECT first_name, last_name, join_date, renewal_date, parents_name, picture_path, status FROM students WHERE id = 1`).Scan(&row).Error; err != nil {
		t.Fatal(err)
	}

	if row.FirstName != "Aiko" || row.LastName != "Tanaka" {
		t.Errorf("name split = %q / %q, want Aiko / Tanaka", row.FirstName, row.LastName)
	}
	if row.JoinDate != "2023-05-01" {
		t.Errorf("join_date = %q, want 2023-05-01", row.JoinDate)
	}
	if row.RenewalDate != "2023-05-29" {
		t.Errorf("renewal_date = %q, want 2023-05-29", row.RenewalDate)
	}
	if row.ParentsName != "Yuki Tanaka" {
		t.Errorf("parents_name = %q", row.ParentsName)
	}
	if row.PicturePath != "/uploads/photos/aiko.jpg" {
		t.Errorf("picture_path = %q", row.PicturePath)
	}
	if row.Status != "active" {
		t.Errorf("status = %q, want active", row.Status)
	}
}

func TestBackfillDoesNotOverwrite(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT, last_name TEXT, name TEXT,
			join_date TEXT, start_date TEXT
		)`,
		`INSERT INTO students (first_name, last_name, name, join_date, start_date)
		 VALUES ('Maria', 'Santos', 'Wrong Person', '2024-01-01', '2020-01-01')`,
	)

	if err := EnsureColumn(db, findMigration(t, "students", "join_date")); err != nil {
		t.Fatal(err)
	}
	if err := db.Transaction(splitLegacyName); err != nil {
		t.Fatal(err)
	}

	var row struct {
		FirstName string
		JoinDate  string
	}
	db.Raw(`SELECT first_name, join_date FROM students WHERE id = 1`).Scan(&row)
	if row.FirstName != "Maria" {
		t.Errorf("first_name overwritten: %q", row.FirstName)
	}
	if row.JoinDate != "2024-01-01" {
		t.Errorf("join_date overwritten: %q", row.JoinDate)
	}
}

func TestStatusFromLegacyFlags(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT, is_legacy INTEGER, legacy INTEGER, active INTEGER
		)`,
		`INSERT INTO students (status, is_legacy, legacy, active) VALUES
			('', 1, 0, 1),
			('', 0, 1, 1),
			('', 0, 0, 0),
			('', 0, 0, 1),
			('archived', 0, 0, 1)`,
	)

	if err := db.Transaction(statusFromFlags); err != nil {
		t.Fatal(err)
	}

	want := []string{"archived", "archived", "archived", "active", "archived"}
	var got []string
	db.Raw(`SELECT status FROM students ORDER BY id`).Scan(&got)
	if len(got) != len(want) {
		t.Fatalf("row count = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: status = %q, want %q", i+1, got[i], want[i])
		}
	}
}

func TestMergeOldStudents(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT, last_name TEXT, phone TEXT, status TEXT
		)`,
		`CREATE TABLE old_students (
			id INTEGER PRIMARY KEY,
			first_name TEXT, last_name TEXT, phone TEXT, extra_legacy_col TEXT
		)`,
		`INSERT INTO students (id, first_name, last_name, status) VALUES (1, 'Kenji', 'Watanabe', 'active')`,
		`INSERT INTO old_students (id, first_name, last_name, phone) VALUES
			(1, 'Stale', 'Duplicate', '000'),
			(7, 'Hana', 'Kobayashi', '555-0101')`,
	)

	if err := db.Transaction(mergeOldStudents); err != nil {
		t.Fatal(err)
	}
	// re-run must not duplicate
	if err := db.Transaction(mergeOldStudents); err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Raw(`SELECT COUNT(*) FROM students`).Scan(&count)
	if count != 2 {
		t.Fatalf("students count = %d, want 2", count)
	}

	var row struct {
		FirstName string
		Status    string
	}
	db.Raw(`SELECT first_name, status FROM students WHERE id = 1`).Scan(&row)
	if row.FirstName != "Kenji" || row.Status != "active" {
		t.Errorf("existing row modified: %+v", row)
	}

	db.Raw(`SELECT first_name, status FROM students WHERE id = 7`).Scan(&row)
	if row.FirstName != "Hana" || row.Status != "archived" {
		t.Errorf("merged row = %+v, want Hana/archived", row)
	}

	ok, err := HasTable(db, "old_students")
	if err != nil || !ok {
		t.Error("old_students table must be kept")
	}
}

func TestRenewalBackfillMonthRollover(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE students (id INTEGER PRIMARY KEY AUTOINCREMENT, join_date TEXT, renewal_date TEXT)`,
		`INSERT INTO students (join_date, renewal_date) VALUES
			('2024-01-15', ''),
			('2024-02-10', '2024-03-01'),
			('', '')`,
	)

	if err := db.Transaction(backfillRenewalDate); err != nil {
		t.Fatal(err)
	}

	var dates []string
	db.Raw(`SELECT renewal_date FROM students ORDER BY id`).Scan(&dates)
	if dates[0] != "2024-02-12" {
		t.Errorf("renewal_date = %q, want 2024-02-12", dates[0])
	}
	if dates[1] != "2024-03-01" {
		t.Errorf("set renewal_date overwritten: %q", dates[1])
	}
	if dates[2] != "" {
		t.Errorf("row without join_date got renewal_date %q", dates[2])
	}
}

func TestPaymentsCreatedAtBackfill(t *testing.T) {
	db := newTestDB(t)
	mustExec(t, db,
		`CREATE TABLE payments (id INTEGER PRIMARY KEY AUTOINCREMENT, amount NUMERIC)`,
		`INSERT INTO payments (amount) VALUES (100), (250)`,
	)

	for _, m := range DefaultMigrations {
		if m.Table != "payments" {
			continue
		}
		if err := EnsureColumn(db, m); err != nil {
			t.Fatalf("EnsureColumn(%s.%s): %v", m.Table, m.Column, err)
		}
	}

	var count int64
	db.Raw(`SELECT COUNT(*) FROM payments WHERE created_at IS NULL OR created_at = ''`).Scan(&count)
	if count != 0 {
		t.Errorf("%d payments left without created_at", count)
	}
}
