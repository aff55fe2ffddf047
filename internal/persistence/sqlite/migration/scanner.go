package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fileNamePattern matches {version}_{description}.sql with a numeric version.
var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scanner reads and parses migration files from a filesystem.
type Scanner struct{}

// NewScanner creates a new migration file scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan reads every migration under dir, rejecting duplicate versions and
// returning the set sorted by ascending version.
func (s *Scanner) Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, newError(0, dir, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := s.parseFile(fsys, dir, entry.Name())
		if err != nil {
			return nil, err
		}

		if existing, ok := seen[m.Version]; ok {
			return nil, newError(m.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %03d found in both %s and %s",
					ErrDuplicateVersion, m.Version, existing, entry.Name()))
		}
		seen[m.Version] = entry.Name()

		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseFile validates the filename, reads the content, and builds the
// Migration with its checksum.
func (s *Scanner) parseFile(fsys fs.FS, dir, name string) (*Migration, error) {
	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return nil, newError(0, name, "validate filename",
			fmt.Errorf("%w: name does not match {version}_{description}.sql", ErrInvalidMigrationFile))
	}

	version, err := strconv.Atoi(matches[1])
	if err != nil || version <= 0 {
		return nil, newError(0, name, "validate filename",
			fmt.Errorf("%w: version %q is not a positive number", ErrInvalidMigrationFile, matches[1]))
	}

	content, err := fs.ReadFile(fsys, path.Join(dir, name))
	if err != nil {
		return nil, newError(version, name, "read file", err)
	}

	sqlContent := string(content)
	if strings.TrimSpace(sqlContent) == "" {
		return nil, newError(version, name, "validate content",
			fmt.Errorf("%w: file is empty", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sqlContent)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return &Migration{
		Version:     version,
		Description: description,
		SQL:         sqlContent,
		FileName:    name,
		Checksum:    checksum(sqlContent),
	}, nil
}

// descriptionFromContent returns the first "-- Description:" comment in the
// file's leading comment block, if any.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}
