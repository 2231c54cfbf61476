package domain

import (
	"fmt"
	"strings"
)

// ValidateProfileName checks that name can key a stored profile. Names starting
// with "_" are reserved for bookkeeping files such as the default registry.
func ValidateProfileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidProfile)
	case strings.HasPrefix(name, "_"):
		return fmt.Errorf("%w: %q starts with an underscore", ErrInvalidProfile, name)
	case name == "." || name == ".." || strings.ContainsAny(name, `/\:`):
		return fmt.Errorf("%w: %q", ErrInvalidProfile, name)
	}
	return nil
}
