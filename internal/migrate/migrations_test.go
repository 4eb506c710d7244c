package migrate_test

import (
	"testing"

	"surveyline/internal/db"
	"surveyline/internal/migrate"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn, dialect, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	for i := 0; i < 2; i++ {
		if err := migrate.Migrate(conn, dialect); err != nil {
			t.Fatalf("migrate pass %d: %v", i, err)
		}
	}
	v, err := migrate.Version(conn)
	if err != nil || v != 1 {
		t.Fatalf("version=%d err=%v", v, err)
	}
	for _, table := range []string{"surveys", "question_library", "api_keys", "events"} {
		if _, err := conn.Exec(`SELECT COUNT(*) FROM ` + table); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}
