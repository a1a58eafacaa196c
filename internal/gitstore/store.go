package gitstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Config holds inventory artifact storage settings
type Config struct {
	// Dir is the working tree the artifacts are written into
	Dir string
	// Subdir inside the working tree for inventory artifacts
	Subdir string
	// Push pushes after a successful commit
	Push bool
	// CommandTimeout bounds each git invocation
	CommandTimeout time.Duration
}

// Store writes inventory artifacts into a git working tree and
// optionally commits them. The write and the commit are separate
// failures: a committed=false result with a populated artifact path
// means the file is on disk but not in history.
type Store struct {
	config Config
}

// NewStore creates an artifact store rooted at the configured
// working tree
func NewStore(config Config) (*Store, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("artifact directory not configured")
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 30 * time.Second
	}
	if err := os.MkdirAll(filepath.Join(config.Dir, config.Subdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{config: config}, nil
}

// Write persists an artifact and returns its path relative to the
// working tree root
func (s *Store) Write(name string, content []byte) (string, error) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	relPath := filepath.Join(s.config.Subdir, name)
	absPath := filepath.Join(s.config.Dir, relPath)

	if err := os.WriteFile(absPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	log.Printf("Inventory artifact written: %s (%d bytes)", relPath, len(content))
	return relPath, nil
}

// Commit stages the artifact and commits it. The artifact must
// already exist in the working tree.
func (s *Store) Commit(ctx context.Context, relPath, message string) error {
	if message == "" {
		message = fmt.Sprintf("Add inventory %s", filepath.Base(relPath))
	}

	if out, err := s.git(ctx, "add", relPath); err != nil {
		return fmt.Errorf("git add failed: %w: %s", err, out)
	}
	if out, err := s.git(ctx, "commit", "-m", message, "--", relPath); err != nil {
		return fmt.Errorf("git commit failed: %w: %s", err, out)
	}
	log.Printf("Inventory artifact committed: %s", relPath)

	if s.config.Push {
		if out, err := s.git(ctx, "push"); err != nil {
			return fmt.Errorf("git push failed: %w: %s", err, out)
		}
		log.Printf("Inventory artifact pushed: %s", relPath)
	}
	return nil
}

// git runs one git command in the working tree
func (s *Store) git(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.config.Dir
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
