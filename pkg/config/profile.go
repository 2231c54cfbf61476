package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/gator/pkg/control"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/scan"
	"gopkg.in/yaml.v3"
)

// Driver selects a driver by tag and carries its parameters verbatim.
type Driver struct {
	Driver     string         `yaml:"driver" json:"driver"`
	Parameters map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	// Backlash enables software compensation on an axis: absolute moves
	// downwards overshoot and come back up.
	Backlash float64 `yaml:"backlash,omitempty" json:"backlash,omitempty"`
}

// ScanDefaults override the optimizer defaults for a stage.
type ScanDefaults struct {
	Span            float64 `yaml:"span,omitempty" json:"span,omitempty"`
	CoarseStep      float64 `yaml:"coarse_step,omitempty" json:"coarse_step,omitempty"`
	FineSpan        float64 `yaml:"fine_span,omitempty" json:"fine_span,omitempty"`
	FineStep        float64 `yaml:"fine_step,omitempty" json:"fine_step,omitempty"`
	MaxNonImproving int     `yaml:"max_non_improving,omitempty" json:"max_non_improving,omitempty"`
	SettleSeconds   float64 `yaml:"settle_seconds,omitempty" json:"settle_seconds,omitempty"`
}

// Settle returns the settle time, or the optimizer default when unset.
func (d ScanDefaults) Settle() time.Duration {
	if d.SettleSeconds <= 0 {
		return scan.DefaultSettle
	}
	return time.Duration(d.SettleSeconds * float64(time.Second))
}

// AutoRequest builds an auto scan around center with these defaults.
func (d ScanDefaults) AutoRequest(center domain.Location) scan.AutoRequest {
	return scan.AutoRequest{
		Center:          center,
		Span:            d.Span,
		CoarseStep:      d.CoarseStep,
		FineSpan:        d.FineSpan,
		FineStep:        d.FineStep,
		MaxNonImproving: d.MaxNonImproving,
		Settle:          d.Settle(),
	}
}

// Profile describes one physical stage.
type Profile struct {
	Name string `yaml:"-" json:"-"`

	Axes map[domain.Axis]Driver `yaml:"axes" json:"axes"`
	DAQ  *Driver                `yaml:"daq,omitempty" json:"daq,omitempty"`

	LoadedPosition   domain.Position `yaml:"loaded_position,omitempty" json:"loaded_position,omitempty"`
	UnloadedPosition domain.Position `yaml:"unloaded_position,omitempty" json:"unloaded_position,omitempty"`

	// Selection is the calibration target strategy: "flag" or "corners".
	Selection string         `yaml:"selection,omitempty" json:"selection,omitempty"`
	Scan      ScanDefaults   `yaml:"scan,omitempty" json:"scan,omitempty"`
	Steps     *control.Steps `yaml:"jog_steps,omitempty" json:"jog_steps,omitempty"`
	// Bindings overrides individual keys of the default keyboard layout.
	Bindings control.Bindings `yaml:"bindings,omitempty" json:"bindings,omitempty"`
}

// Validate checks axis names and that every entry names a driver.
func (p *Profile) Validate() error {
	if len(p.Axes) == 0 {
		return fmt.Errorf("profile %q: no axes", p.Name)
	}
	for a, d := range p.Axes {
		if _, err := domain.ParseAxis(string(a)); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
		if d.Driver == "" {
			return fmt.Errorf("profile %q: axis %s has no driver", p.Name, a)
		}
		if d.Backlash < 0 {
			return fmt.Errorf("profile %q: axis %s has negative backlash", p.Name, a)
		}
	}
	if p.DAQ != nil && p.DAQ.Driver == "" {
		return fmt.Errorf("profile %q: daq has no driver", p.Name)
	}
	for _, pos := range []domain.Position{p.LoadedPosition, p.UnloadedPosition} {
		for a := range pos {
			if _, ok := p.Axes[a]; !ok {
				return fmt.Errorf("profile %q: position names unconfigured axis %s", p.Name, a)
			}
		}
	}
	if len(p.Bindings) > 0 {
		b := control.DefaultBindings()
		for a, k := range p.Bindings {
			b[a] = k
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// KeyBindings returns the default layout with the profile overrides applied.
func (p *Profile) KeyBindings() control.Bindings {
	b := control.DefaultBindings()
	for a, k := range p.Bindings {
		b[a] = k
	}
	return b
}

// LoadProfileFile reads a profile from path. JSON is chosen by extension,
// anything else is read as YAML. The name defaults to the file's base name.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := decodeProfile(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeProfile(data []byte, isJSON bool) (*Profile, error) {
	var p Profile
	if isJSON {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse profile: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}
