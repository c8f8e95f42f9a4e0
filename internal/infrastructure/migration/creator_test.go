package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add users table":   "add_users_table",
		"Add-Users-Table":   "add_users_table",
		"add__users__table": "add_users_table",
		"Add Users 123":     "add_users_123",
		"   spaces   ":      "spaces",
		"special!@#$chars":  "specialchars",
		"_leading":          "leading",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestListMigrations_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":   {},
		"000010_later.down.sql": {},
		"000002_second.up.sql":  {},
		"000001_first.up.sql":   {},
		"notes.up.sql":          {},
		"README.md":             {},
	}

	entries, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Version: 1, Name: "first"},
		{Version: 2, Name: "second"},
		{Version: 10, Name: "later"},
	}, entries)
}

func TestListMigrations_Embedded(t *testing.T) {
	entries, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2)
	assert.Equal(t, Entry{Version: 1, Name: "init_schema"}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "seed_achievements"}, entries[1])

	for _, e := range entries {
		base := fmt.Sprintf("%06d_%s", e.Version, e.Name)
		for _, suffix := range []string{upSuffix, downSuffix} {
			_, err := fs.Stat(migrations.FS, base+suffix)
			assert.NoError(t, err, base+suffix)
		}
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "Add users table", "users and roles")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_users_table.up.sql"), first.UpPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "000001 add_users_table")
	assert.Contains(t, string(up), "-- users and roles")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "add-index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.FileExists(t, second.DownPath)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}
