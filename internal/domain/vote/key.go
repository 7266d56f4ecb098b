package vote

import (
	"errors"
	"fmt"
	"strings"
)

// Chamber is a legislative chamber.
type Chamber string

// Supported chambers.
const (
	House  Chamber = "house"
	Senate Chamber = "senate"
)

// ErrInvalidKey is returned when a roll-call key cannot be parsed.
var ErrInvalidKey = errors.New("invalid roll-call key")

// ParseChamber accepts "house"/"senate" in any case.
func ParseChamber(s string) (Chamber, error) {
	switch c := Chamber(strings.ToLower(strings.TrimSpace(s))); c {
	case House, Senate:
		return c, nil
	default:
		return "", fmt.Errorf("unknown chamber %q", s)
	}
}

// RollCallKey identifies one recorded vote.
type RollCallKey struct {
	Chamber  Chamber `json:"chamber"`
	Congress int     `json:"congress"`
	Session  int     `json:"session"`
	Roll     int     `json:"roll"`
}

// String renders the stable mapping key, e.g. "house-119-1-rc42".
func (k RollCallKey) String() string {
	return fmt.Sprintf("%s-%d-%d-rc%d", k.Chamber, k.Congress, k.Session, k.Roll)
}

// ParseKey is the inverse of RollCallKey.String.
func ParseKey(s string) (RollCallKey, error) {
	var (
		k       RollCallKey
		chamber string
	)
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return RollCallKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	chamber = parts[0]
	if _, err := fmt.Sscanf(parts[1], "%d-%d-rc%d", &k.Congress, &k.Session, &k.Roll); err != nil {
		return RollCallKey{}, fmt.Errorf("%w: %q: %w", ErrInvalidKey, s, err)
	}
	c, err := ParseChamber(chamber)
	if err != nil {
		return RollCallKey{}, fmt.Errorf("%w: %q: %w", ErrInvalidKey, s, err)
	}
	k.Chamber = c
	if k.String() != s {
		return RollCallKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return k, nil
}
