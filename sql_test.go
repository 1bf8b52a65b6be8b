package snowflake

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, ref TEXT, email TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestID_SQLRoundTrip(t *testing.T) {
	db := openTestDB(t)
	gen, err := New[ID](17)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextIDBulk(50, Hybrid)
	if err != nil {
		t.Fatalf("NextIDBulk() error = %v", err)
	}
	for i, id := range ids {
		_, err := db.Exec(`INSERT INTO users (id, ref, email) VALUES (?, ?, ?)`, id, id.String(), "user"+id.String())
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rows, err := db.Query(`SELECT id, ref FROM users ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var got []ID
	for rows.Next() {
		var id, ref ID
		if err := rows.Scan(&id, &ref); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if id != ref {
			t.Errorf("INTEGER column %d and TEXT column %d disagree", id, ref)
		}
		got = append(got, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	if len(got) != len(ids) {
		t.Fatalf("read %d rows, want %d", len(got), len(ids))
	}
	// Ordering by the primary key reproduces generation order.
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("row %d = %d, want %d", i, got[i], ids[i])
		}
	}
}

func TestID_SQLRejectsNegative(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec(`INSERT INTO users (id, ref, email) VALUES (-5, '-5', 'x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var id ID
	err := db.QueryRow(`SELECT id FROM users`).Scan(&id)
	if !errors.Is(err, ErrNegativeID) {
		t.Errorf("Scan(-5) error = %v, want ErrNegativeID", err)
	}
}

func TestClusterID_SQLRoundTrip(t *testing.T) {
	db := openTestDB(t)
	gen, err := New[ClusterID](15000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want, err := gen.NextID(Hybrid)
	if err != nil {
		t.Fatalf("NextID() error = %v", err)
	}

	if _, err := db.Exec(`INSERT INTO users (id, email) VALUES (?, 'c')`, want); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got ClusterID
	if err := db.QueryRow(`SELECT id FROM users`).Scan(&got); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != want || got.MachineID() != 15000 {
		t.Errorf("read %d (machine %d), want %d", got, got.MachineID(), want)
	}
}
