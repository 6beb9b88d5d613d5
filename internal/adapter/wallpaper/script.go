package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"apod/internal/domain"
)

// ScriptSetter sets the wallpaper by running a user-provided executable
// with the image path as its only argument.
type ScriptSetter struct {
	script string
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

// NewScriptSetter resolves script to an absolute path. The script output is
// passed through to stdout and stderr.
func NewScriptSetter(script string, stdout, stderr io.Writer, log *slog.Logger) *ScriptSetter {
	if abs, err := filepath.Abs(script); err == nil {
		script = abs
	}
	return &ScriptSetter{
		script: script,
		stdout: stdout,
		stderr: stderr,
		log:    log.With(slog.String("component", "wallpaper")),
	}
}

// Script returns the resolved script path.
func (s *ScriptSetter) Script() string {
	return s.script
}

// Check verifies the script is an executable regular file.
func (s *ScriptSetter) Check() error {
	info, err := os.Stat(s.script)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrScriptNotFound, s.script)
		}
		return fmt.Errorf("failed to stat wallpaper script %s: %w", s.script, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", domain.ErrScriptNotFound, s.script)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", domain.ErrScriptNotFound, s.script)
	}
	return nil
}

// Set runs the script with imagePath. A non-zero exit status is logged
// but not returned; only a failure to start the process is an error.
func (s *ScriptSetter) Set(ctx context.Context, imagePath string) error {
	log := s.log.With(slog.String("script", s.script), slog.String("path", imagePath))
	cmd := exec.CommandContext(ctx, s.script, imagePath)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		log.Debug("Wallpaper script finished")
		return nil
	case errors.As(err, &exitErr):
		log.Warn("Wallpaper script exited with non-zero status", slog.Int("exit_code", exitErr.ExitCode()))
		return nil
	default:
		log.Error("Wallpaper script could not be run", slog.Any("error", err))
		return fmt.Errorf("failed to run wallpaper script %s: %w", s.script, err)
	}
}
