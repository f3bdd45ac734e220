package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var (
	revisionNameRegex      = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	revisionTimestampRegex = regexp.MustCompile(`^\d{14}$`)
)

// GenerateConfig configures generation of a new revision file pair.
type GenerateConfig struct {
	// OutputFolder is the directory where the revision files are written.
	OutputFolder string

	// Name is the snake_case description used in the filenames
	// (e.g. "add_guest_rsvp").
	Name string

	// Revision is the 14-digit timestamp prefix. Defaults to the current
	// time when empty.
	Revision string

	// WithDown also writes an empty .down.sql rollback file.
	WithDown bool
}

// DefaultGenerateConfig returns a generation config for the given name with
// a current-timestamp revision and a down file.
func DefaultGenerateConfig(name string) GenerateConfig {
	return GenerateConfig{
		OutputFolder: "migrations",
		Name:         name,
		Revision:     time.Now().Format("20060102150405"),
		WithDown:     true,
	}
}

// Generate writes an empty revision template (and optionally its rollback
// counterpart) and returns the forward file's path. Names are validated so
// the generated files always parse back through Load.
func Generate(config *GenerateConfig) (string, error) {
	if config.Name == "" {
		return "", fmt.Errorf("revision name cannot be empty")
	}
	if !revisionNameRegex.MatchString(config.Name) {
		return "", fmt.Errorf("revision name must start with a lowercase letter and contain only lowercase letters, numbers, and underscores (got: %s)", config.Name)
	}
	if config.Revision == "" {
		config.Revision = time.Now().Format("20060102150405")
	}
	if !revisionTimestampRegex.MatchString(config.Revision) {
		return "", fmt.Errorf("revision must be a 14-digit timestamp (got: %s)", config.Revision)
	}

	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}

	upPath := filepath.Join(config.OutputFolder, fmt.Sprintf("%s_%s.sql", config.Revision, config.Name))
	up := fmt.Sprintf(`-- Revision: %s_%s
-- Generated: %s
--
-- Forward schema changes. Applied in a single transaction and recorded in
-- the history table once it succeeds.
`, config.Revision, config.Name, time.Now().Format(time.RFC3339))

	if err := os.WriteFile(upPath, []byte(up), 0o600); err != nil {
		return "", fmt.Errorf("failed to write revision file: %w", err)
	}

	if config.WithDown {
		downPath := filepath.Join(config.OutputFolder, fmt.Sprintf("%s_%s.down.sql", config.Revision, config.Name))
		down := fmt.Sprintf(`-- Revision: %s_%s (rollback)
-- Generated: %s
--
-- Statements that revert the forward migration.
`, config.Revision, config.Name, time.Now().Format(time.RFC3339))

		if err := os.WriteFile(downPath, []byte(down), 0o600); err != nil {
			return "", fmt.Errorf("failed to write rollback file: %w", err)
		}
	}

	return upPath, nil
}
