package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/gator/internal/fsutil"
	"github.com/aretw0/gator/pkg/domain"
)

// Ext is the extension of a stored calibration matrix.
const Ext = ".matrix"

// Store implements ports.CalibrationStore on the local filesystem.
// Each profile is one plain-text file of three whitespace separated rows.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".gator/calibration".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".gator", "calibration")
	}
	return &Store{BasePath: basePath}
}

// Path returns the file that holds the matrix for profile.
func (s *Store) Path(profile string) string {
	return filepath.Join(s.BasePath, profile+Ext)
}

// Save writes the matrix atomically.
func (s *Store) Save(ctx context.Context, profile string, m domain.AffineMatrix) error {
	if err := domain.ValidateProfileName(profile); err != nil {
		return err
	}
	data, err := m.MarshalText()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.Path(profile), data, 0644); err != nil {
		return fmt.Errorf("failed to save calibration %q: %w", profile, err)
	}
	return nil
}

// Load reads the matrix for profile.
func (s *Store) Load(ctx context.Context, profile string) (domain.AffineMatrix, error) {
	var m domain.AffineMatrix
	if err := domain.ValidateProfileName(profile); err != nil {
		return m, err
	}
	data, err := os.ReadFile(s.Path(profile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, domain.ErrCalibrationNotFound
		}
		return m, fmt.Errorf("failed to read calibration file: %w", err)
	}
	if err := m.UnmarshalText(data); err != nil {
		return m, fmt.Errorf("calibration %q: %w", profile, err)
	}
	return m, nil
}

// Delete removes the matrix file.
func (s *Store) Delete(ctx context.Context, profile string) error {
	if err := domain.ValidateProfileName(profile); err != nil {
		return err
	}
	err := os.Remove(s.Path(profile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete calibration file: %w", err)
	}
	return nil
}

// List returns the profiles with a matrix file, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list calibrations: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != Ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		profiles = append(profiles, strings.TrimSuffix(name, Ext))
	}
	sort.Strings(profiles)
	return profiles, nil
}
