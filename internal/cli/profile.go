package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/gator/pkg/config"
	"github.com/aretw0/gator/pkg/domain"
)

// InitProfile saves a new profile. With from set the profile is read from that
// file, otherwise a simulated stage with a signal peak at each of peaks is created.
// The first profile becomes the default.
func InitProfile(ps *config.Profiles, out io.Writer, name, from string, peaks []domain.Location) error {
	var p *config.Profile
	if from != "" {
		var err error
		if p, err = config.LoadProfileFile(from); err != nil {
			return err
		}
		p.Name = name
	} else {
		p = config.SimProfile(name, peaks...)
	}
	if err := ps.Save(p); err != nil {
		return err
	}
	printSystemMessage(out, "Profile %q saved in %s", name, ps.Dir)

	if _, err := ps.Default(); errors.Is(err, domain.ErrProfileNotFound) {
		if err := ps.SetDefault(name); err != nil {
			return err
		}
		printSystemMessage(out, "Profile %q is now the default", name)
	}
	return nil
}

// ListProfiles prints the saved profiles, marking the default and those with a
// stored calibration.
func ListProfiles(ctx context.Context, ps *config.Profiles, out io.Writer) error {
	names, err := ps.Known()
	if err != nil {
		return err
	}
	def, _ := ps.Default()
	calibrated, err := ps.Calibrations().List(ctx)
	if err != nil {
		return err
	}
	has := make(map[string]bool, len(calibrated))
	for _, n := range calibrated {
		has[n] = true
	}
	for _, n := range names {
		mark := " "
		if n == def {
			mark = "*"
		}
		cal := ""
		if has[n] {
			cal = " (calibrated)"
		}
		fmt.Fprintf(out, "%s %s%s\n", mark, n, cal)
	}
	return nil
}
