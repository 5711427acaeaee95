package leaderboard

import (
	"strings"

	"github.com/pkg/errors"
)

// Retention decides how many laps a driver keeps.
type Retention string

const (
	// RetainFastest keeps only each driver's quickest lap.
	RetainFastest Retention = "fastest"
	// RetainAll keeps every submitted lap.
	RetainAll Retention = "full"
)

var ErrUnknownRetention = errors.New("unknown retention")

// ParseRetention reads a retention name from configuration. An empty string
// selects RetainFastest.
func ParseRetention(s string) (Retention, error) {
	switch Retention(strings.ToLower(strings.TrimSpace(s))) {
	case "", RetainFastest:
		return RetainFastest, nil
	case RetainAll:
		return RetainAll, nil
	default:
		return "", errors.Wrapf(ErrUnknownRetention, "%q", s)
	}
}
