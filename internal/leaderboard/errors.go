package leaderboard

import "github.com/pkg/errors"

var (
	ErrDriverNotFound = errors.New("driver not found")
	ErrNoTrackName    = errors.New("no track name set")
)
