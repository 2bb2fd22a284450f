package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const fileTemplate = `-- {{.Name}} ({{.Direction}})
-- Created: {{.Created}}
{{if .Down}}
-- Revert every statement of {{.Base}}.up.sql in reverse order.
{{else}}
-- Money columns are NUMERIC(14,2); business dates are DATE.
{{end}}`

var (
	fileTmpl = template.Must(template.New("migration").Parse(fileTemplate))

	// 000001_init_schema.up.sql
	upFilePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.up\.sql$`)
	nonWord       = regexp.MustCompile(`[^a-z0-9]+`)
)

// versionWidth keeps file names sortable as plain strings
const versionWidth = 6

// File describes one migration pair on disk
type File struct {
	Version  uint   `json:"version"`
	Name     string `json:"name"`
	UpPath   string `json:"up_path,omitempty"`
	DownPath string `json:"down_path,omitempty"`
}

// Base is the shared file name prefix, e.g. 000002_add_wolt_halyk
func (f File) Base() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, f.Version, f.Name)
}

// Create writes the next sequential up/down pair into dir
func Create(dir, name string) (*File, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	f := &File{Version: next, Name: slug}
	f.UpPath = filepath.Join(dir, f.Base()+".up.sql")
	f.DownPath = filepath.Join(dir, f.Base()+".down.sql")

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeFile(f.UpPath, f, created, false); err != nil {
		return nil, err
	}
	if err := writeFile(f.DownPath, f, created, true); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

// List returns the migrations in fsys ordered by version
func List(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := upFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		files = append(files, File{Version: uint(v), Name: m[2]})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func writeFile(path string, f *File, created string, down bool) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	direction := "up"
	if down {
		direction = "down"
	}
	return fileTmpl.Execute(out, map[string]any{
		"Name":      strings.ReplaceAll(f.Name, "_", " "),
		"Base":      f.Base(),
		"Direction": direction,
		"Created":   created,
		"Down":      down,
	})
}

func slugify(name string) string {
	s := nonWord.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}
