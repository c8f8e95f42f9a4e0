package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upSuffix, downSuffix = ".up.sql", ".down.sql"

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Version}} {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Created}}
{{if .Description}}-- {{.Description}}
{{end}}
`))

// Entry is one migration pair found in a source
type Entry struct {
	Version uint
	Name    string
}

// File is the pair written by CreateMigration
type File struct {
	Entry
	UpPath   string
	DownPath string
}

// ListMigrations returns the versioned up migrations in fsys ordered by version
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	matches, err := fs.Glob(fsys, "*"+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	entries := make([]Entry, 0, len(matches))
	for _, name := range matches {
		e, ok := parseEntry(strings.TrimSuffix(name, upSuffix))
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// parseEntry splits "000003_add_index" into its version and name
func parseEntry(base string) (Entry, bool) {
	prefix, name, ok := strings.Cut(base, "_")
	if !ok {
		return Entry{}, false
	}
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Version: uint(v), Name: name}, true
}

// CreateMigration writes an empty up/down pair in dir numbered after the
// highest existing version.
func CreateMigration(dir, name, description string) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := uint(1)
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slug)
	f := &File{
		Entry:    Entry{Version: next, Name: slug},
		UpPath:   filepath.Join(dir, base+upSuffix),
		DownPath: filepath.Join(dir, base+downSuffix),
	}
	created := time.Now().UTC().Format(time.RFC3339)

	if err := writeTemplate(f.UpPath, f, description, created, false); err != nil {
		return nil, err
	}
	if err := writeTemplate(f.DownPath, f, description, created, true); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeTemplate(path string, f *File, description, created string, down bool) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	return fileTemplate.Execute(out, map[string]any{
		"Version":     fmt.Sprintf("%06d", f.Version),
		"Name":        f.Name,
		"Description": description,
		"Created":     created,
		"Down":        down,
	})
}

// sanitizeName lower-cases name and joins its alphanumeric runs with "_"
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}
