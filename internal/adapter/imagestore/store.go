package imagestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"apod/internal/domain"

	"github.com/google/renameio/v2"
)

const (
	imageBaseName   = "image"
	descriptionName = "description.txt"
)

// Store keeps downloaded pictures under imagesDir/{save_name} and exposes
// each one through a symlink at linksDir/{save_name}.
type Store struct {
	imagesDir string
	linksDir  string
	log       *slog.Logger
}

func New(imagesDir, linksDir string, log *slog.Logger) *Store {
	return &Store{
		imagesDir: imagesDir,
		linksDir:  linksDir,
		log:       log.With(slog.String("component", "imagestore")),
	}
}

// SaveDir returns the directory holding the files for saveName.
func (s *Store) SaveDir(saveName string) string {
	return filepath.Join(s.imagesDir, saveName)
}

// LinkPath returns the stable symlink path handed to the wallpaper script.
func (s *Store) LinkPath(saveName string) string {
	return filepath.Join(s.linksDir, saveName)
}

// Exists reports whether the save directory is already present. Only the
// directory is checked, so a run interrupted after Create counts as cached.
func (s *Store) Exists(saveName string) (bool, error) {
	if saveName == "" {
		return false, fmt.Errorf("empty save name")
	}
	_, err := os.Stat(s.SaveDir(saveName))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", s.SaveDir(saveName), err)
}

// Create makes the save directory and its parents.
func (s *Store) Create(saveName string) error {
	dir := s.SaveDir(saveName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create save directory %s: %w", dir, err)
	}
	s.log.Debug("Save directory created", slog.String("path", dir))
	return nil
}

// Save writes the image, then the description, then the symlink, and
// returns the symlink path. Each file is replaced atomically, the sequence
// as a whole is not.
func (s *Store) Save(listing *domain.Listing, image io.Reader) (string, error) {
	saveName := listing.SaveName()
	if saveName == "" {
		return "", fmt.Errorf("listing for %s has no image url", listing.Date)
	}
	dir := s.SaveDir(saveName)
	log := s.log.With(slog.String("save_name", saveName))

	imagePath := filepath.Join(dir, imageBaseName+listing.ImageExt())
	written, err := writeStream(imagePath, image)
	if err != nil {
		log.Error("Image write failed", slog.Any("error", err))
		return "", err
	}
	log.Debug("Image written", slog.String("path", imagePath), slog.Int64("bytes", written))

	descPath := filepath.Join(dir, descriptionName)
	if err := renameio.WriteFile(descPath, []byte(listing.Description()), 0o644); err != nil {
		log.Error("Description write failed", slog.Any("error", err))
		return "", fmt.Errorf("failed to write description %s: %w", descPath, err)
	}

	linkPath, err := s.link(saveName, imagePath)
	if err != nil {
		log.Error("Symlink creation failed", slog.Any("error", err))
		return "", err
	}
	log.Info("Image saved",
		slog.String("image", imagePath),
		slog.String("link", linkPath),
	)
	return linkPath, nil
}

func writeStream(path string, r io.Reader) (int64, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("failed to create pending image file %s: %w", path, err)
	}
	defer pending.Cleanup()
	n, err := io.Copy(pending, r)
	if err != nil {
		return n, fmt.Errorf("failed to write image %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("failed to replace image %s: %w", path, err)
	}
	return n, nil
}

func (s *Store) link(saveName, target string) (string, error) {
	if err := os.MkdirAll(s.linksDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create links directory %s: %w", s.linksDir, err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	linkPath := s.LinkPath(saveName)
	if info, err := os.Lstat(linkPath); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(linkPath); err != nil {
			return "", fmt.Errorf("failed to remove stale link %s: %w", linkPath, err)
		}
	}
	if err := os.Symlink(absTarget, linkPath); err != nil {
		return "", fmt.Errorf("failed to link %s: %w", linkPath, err)
	}
	return linkPath, nil
}
