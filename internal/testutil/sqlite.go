// Package testutil builds throwaway SQLite databases for tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// EHRSchema is a small MIMIC-III shaped fixture.
const EHRSchema = `
CREATE TABLE patients (
	subject_id INTEGER NOT NULL,
	gender TEXT,
	dob TIMESTAMP
);
INSERT INTO patients VALUES
	(1, 'F', '2100-01-01 00:00:00'),
	(2, 'M', '2101-06-15 00:00:00'),
	(3, 'F', '2102-03-10 00:00:00'),
	(4, 'M', NULL);

CREATE TABLE admissions (
	hadm_id INTEGER NOT NULL,
	subject_id INTEGER NOT NULL,
	admittime TIMESTAMP
);
INSERT INTO admissions VALUES
	(100, 1, '2150-01-01 10:00:00'),
	(101, 1, '2150-02-01 10:00:00'),
	(102, 2, '2151-01-01 08:30:00'),
	(103, 3, '2152-05-05 12:00:00'),
	(104, 3, '2152-06-05 12:00:00'),
	(105, 3, '2152-07-05 12:00:00'),
	(106, 4, '2153-01-01 00:00:00');

CREATE TABLE d_labitems (
	row_id INTEGER,
	itemid INTEGER,
	label TEXT
);
INSERT INTO d_labitems VALUES
	(1, 50912, 'Creatinine'),
	(2, 50931, 'Glucose');

CREATE TABLE labevents (
	row_id INTEGER,
	subject_id INTEGER,
	itemid INTEGER,
	charttime TIMESTAMP,
	valuenum REAL
);
INSERT INTO labevents VALUES
	(1, 1, 50912, '2150-01-01 11:00:00', 1.1),
	(2, 1, 50931, '2150-01-01 11:00:00', 95.0),
	(3, 2, 50912, '2151-01-01 09:00:00', 0.8),
	(4, 3, 50931, '2152-05-05 13:00:00', 110.5),
	(5, 3, 99999, '2152-05-05 13:00:00', NULL);

CREATE TABLE d_icd_diagnoses (
	row_id INTEGER,
	icd9_code TEXT,
	short_title TEXT,
	long_title TEXT
);
INSERT INTO d_icd_diagnoses VALUES
	(1, '4019', 'Hypertension NOS', 'Unspecified essential hypertension'),
	(2, '25000', 'DMII wo cmp nt st uncntr', 'Diabetes mellitus without mention of complication');

CREATE TABLE diagnoses_icd (
	row_id INTEGER,
	subject_id INTEGER,
	hadm_id INTEGER,
	seq_num INTEGER,
	icd9_code TEXT
);
INSERT INTO diagnoses_icd VALUES
	(1, 1, 100, 1, '4019'),
	(2, 2, 102, 1, '25000'),
	(3, 3, 103, 1, '4019');

CREATE TABLE d_items (
	row_id INTEGER,
	itemid INTEGER,
	label TEXT
);
INSERT INTO d_items VALUES (1, 211, 'Heart Rate');

CREATE TABLE chartevents (
	row_id INTEGER,
	subject_id INTEGER,
	itemid INTEGER,
	charttime TIMESTAMP,
	valuenum REAL
);
INSERT INTO chartevents VALUES
	(1, 1, 211, '2150-01-01 12:00:00', 80),
	(2, 3, 211, '2152-05-05 14:00:00', 92);

CREATE VIEW female_patients AS SELECT subject_id FROM patients WHERE gender = 'F';
`

// NewDatabase creates a SQLite database file in a temporary directory, runs
// stmts against it and returns its path.
func NewDatabase(t testing.TB, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ehr.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}
	return path
}

// NewEHRDatabase creates a database seeded with EHRSchema.
func NewEHRDatabase(t testing.TB) string {
	t.Helper()
	return NewDatabase(t, EHRSchema)
}

// Open opens path read-write for tests that need a raw handle.
func Open(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
