package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

var (
	upFileRegex   = regexp.MustCompile(`^(\d{14})_([a-z][a-z0-9_]*)\.sql$`)
	downFileRegex = regexp.MustCompile(`^(\d{14})_([a-z][a-z0-9_]*)\.down\.sql$`)
)

// Load reads every revision from the root of fsys and returns them ordered
// by revision timestamp.
//
// Recognized entries:
//   - <14-digit timestamp>_<snake_case_name>.sql       (forward migration)
//   - <14-digit timestamp>_<snake_case_name>.down.sql  (optional rollback)
//
// Any other .sql file is an error rather than silently skipped: a typo in a
// revision filename must not make the revision disappear from the chain.
// Non-SQL files are ignored.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migration source: %w", err)
	}

	byRevision := make(map[string]*Migration)
	var downs []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		if downFileRegex.MatchString(entry.Name()) {
			downs = append(downs, entry.Name())
			continue
		}

		m := upFileRegex.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("unrecognized migration filename %q: want <14-digit timestamp>_<snake_case_name>.sql", entry.Name())
		}

		revision, name := m[1], m[2]
		if prev, ok := byRevision[revision]; ok {
			return nil, fmt.Errorf("%w: %s used by both %s and %s", ErrDuplicateRevision, revision, prev.Name, name)
		}

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		byRevision[revision] = &Migration{
			Revision: revision,
			Name:     name,
			UpSQL:    string(body),
			Checksum: checksum(string(body)),
		}
	}

	for _, downName := range downs {
		m := downFileRegex.FindStringSubmatch(downName)
		mig, ok := byRevision[m[1]]
		if !ok || mig.Name != m[2] {
			return nil, fmt.Errorf("%w: %s", ErrOrphanDownFile, downName)
		}

		body, err := fs.ReadFile(fsys, downName)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", downName, err)
		}
		mig.DownSQL = string(body)
	}

	migrations := make([]Migration, 0, len(byRevision))
	for _, mig := range byRevision {
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Revision < migrations[j].Revision
	})

	return migrations, nil
}
