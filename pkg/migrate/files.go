package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	versionLayout   = "20060102150405"
	markerUp        = "-- +goose Up"
	markerDown      = "-- +goose Down"
	markerStmtBegin = "-- +goose StatementBegin"
	markerStmtEnd   = "-- +goose StatementEnd"
)

var (
	unsafeNameRe  = regexp.MustCompile(`[^a-z0-9_]+`)
	migrationFile = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

const sqlTemplate = `%[1]s
%[3]s
-- %[5]s
%[4]s

%[2]s
%[3]s
-- rollback %[5]s
%[4]s
`

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q is empty once sanitized", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), slug))
	body := fmt.Sprintf(sqlTemplate, markerUp, markerDown, markerStmtBegin, markerStmtEnd, slug)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("migration already exists: %s", path)
		}
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	_, writeErr := f.WriteString(body)
	if err := multierr.Append(writeErr, f.Close()); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = unsafeNameRe.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

// ValidateDir checks every .sql file in dir and reports all problems at once:
// filename shape, unique versions, an Up section before a Down section and
// balanced statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var problems error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		match := migrationFile.FindStringSubmatch(name)
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := versions[match[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, match[1], prev))
		}
		versions[match[1]] = name

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		problems = multierr.Append(problems, checkSections(name, string(content)))
	}
	return problems
}

func checkSections(name, content string) error {
	up := strings.Index(content, markerUp)
	down := strings.Index(content, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, markerUp)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, markerDown)
	case down < up:
		return fmt.Errorf("%s: down section precedes up section", name)
	}
	if begin, end := strings.Count(content, markerStmtBegin), strings.Count(content, markerStmtEnd); begin != end {
		return fmt.Errorf("%s: %d StatementBegin vs %d StatementEnd", name, begin, end)
	}
	return nil
}
