package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitMigrationContainsCoreConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_assignment_slot",
		"ON match_assignments(match_id, role, position) WHERE deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_job_run_target ON job_runs(job_name, target_key)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_declaration_user_match ON tax_declarations(user_id, match_id)",
		"INSERT INTO site_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING",
		"DROP TABLE IF EXISTS users",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("init migration missing %q", check)
		}
	}
}
