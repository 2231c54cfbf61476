package config

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
	"github.com/aretw0/gator/pkg/adapters/file"
	"github.com/aretw0/gator/pkg/domain"
	"gopkg.in/yaml.v3"
)

const registryFile = "_registry.yaml"

// Profiles is a directory of stage profiles. Each profile is <name>.yaml (or
// .yml/.json); its calibration matrix lives under calibration/<name>.matrix.
// _registry.yaml records the default profile.
type Profiles struct {
	Dir string
}

// DefaultDir returns the per-user profile directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gator", "profiles"), nil
}

// NewProfiles opens dir, or DefaultDir when dir is empty.
func NewProfiles(dir string) (*Profiles, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("no profile directory: %w", err)
		}
		dir = d
	}
	return &Profiles{Dir: dir}, nil
}

// Calibrations returns the store holding each profile's matrix.
func (ps *Profiles) Calibrations() *file.Store {
	return file.New(filepath.Join(ps.Dir, "calibration"))
}

func (ps *Profiles) find(name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(ps.Dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Known lists the saved profiles, sorted.
func (ps *Profiles) Known() ([]string, error) {
	entries, err := os.ReadDir(ps.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if ext == ".yaml" || ext == ".yml" || ext == ".json" {
			names = append(names, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Save stores a new profile. It fails if the name is taken.
func (ps *Profiles) Save(p *Profile) error {
	if err := domain.ValidateProfileName(p.Name); err != nil {
		return err
	}
	if _, ok := ps.find(p.Name); ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileExists, p.Name)
	}
	return ps.write(p)
}

// Update overwrites a profile, creating it if needed.
func (ps *Profiles) Update(p *Profile) error {
	if err := domain.ValidateProfileName(p.Name); err != nil {
		return err
	}
	return ps.write(p)
}

func (ps *Profiles) write(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	// Profiles are always written as YAML; a hand-written .yml or .json is replaced.
	path := filepath.Join(ps.Dir, p.Name+".yaml")
	if existing, ok := ps.find(p.Name); ok && existing != path {
		if err := os.Remove(existing); err != nil {
			return fmt.Errorf("failed to replace profile: %w", err)
		}
	}
	return fsutil.WriteFileAtomic(path, data, 0644)
}

// Load reads a profile by name.
func (ps *Profiles) Load(name string) (*Profile, error) {
	if err := domain.ValidateProfileName(name); err != nil {
		return nil, err
	}
	path, ok := ps.find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	return LoadProfileFile(path)
}

// Delete removes a profile and its calibration. If it was the default, the
// default is cleared.
func (ps *Profiles) Delete(ctx context.Context, name string) error {
	if err := domain.ValidateProfileName(name); err != nil {
		return err
	}
	path, ok := ps.find(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if err := ps.Calibrations().Delete(ctx, name); err != nil {
		return err
	}
	if def, err := ps.Default(); err == nil && def == name {
		return ps.writeRegistry(defaults{})
	}
	return nil
}

type defaults struct {
	Default string `yaml:"default,omitempty"`
}

func (ps *Profiles) readRegistry() (defaults, error) {
	var r defaults
	data, err := os.ReadFile(filepath.Join(ps.Dir, registryFile))
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse %s: %w", registryFile, err)
	}
	return r, nil
}

func (ps *Profiles) writeRegistry(r defaults) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(ps.Dir, registryFile), data, 0644)
}

// Default returns the default profile name.
func (ps *Profiles) Default() (string, error) {
	r, err := ps.readRegistry()
	if err != nil {
		return "", err
	}
	if r.Default == "" {
		return "", fmt.Errorf("%w: no default profile set", domain.ErrProfileNotFound)
	}
	return r.Default, nil
}

// SetDefault marks an existing profile as the default.
func (ps *Profiles) SetDefault(name string) error {
	if err := domain.ValidateProfileName(name); err != nil {
		return err
	}
	if _, ok := ps.find(name); !ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	r, err := ps.readRegistry()
	if err != nil {
		return err
	}
	r.Default = name
	return ps.writeRegistry(r)
}

// Resolve loads name, or the default profile when name is empty.
func (ps *Profiles) Resolve(name string) (*Profile, error) {
	if name == "" {
		def, err := ps.Default()
		if err != nil {
			return nil, err
		}
		name = def
	}
	return ps.Load(name)
}
