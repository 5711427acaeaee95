// Package leaderboard holds the lap times of a single racing event and keeps
// the fastest-lap flag consistent across every driver.
package leaderboard

import (
	"sync"
)

type LapTime struct {
	Time      string `json:"time"`
	IsFastest bool   `json:"is_fastest"`
}

type Driver struct {
	Name     string    `json:"name"`
	LapTimes []LapTime `json:"lap_times"`
	Team     string    `json:"team"`
}

func (d *Driver) clone() Driver {
	laps := make([]LapTime, len(d.LapTimes))
	copy(laps, d.LapTimes)

	return Driver{
		Name:     d.Name,
		LapTimes: laps,
		Team:     d.Team,
	}
}

// Stats is a point-in-time count of what the store holds.
type Stats struct {
	Drivers  int
	LapTimes int
}

// Store is the in-memory leaderboard. Every method takes the store lock for
// its full duration, so operations are linearizable with respect to each
// other.
type Store struct {
	mu sync.Mutex

	retention Retention

	drivers map[string]*Driver
	// order holds driver names in the order they were first seen. Fastest
	// lap ties and export ordering are resolved by it.
	order []string

	trackName    string
	hasTrackName bool
}

func NewStore(retention Retention) *Store {
	return &Store{
		retention: retention,
		drivers:   make(map[string]*Driver),
	}
}

func (s *Store) Retention() Retention {
	return s.retention
}

// ListDrivers returns a copy of every driver keyed by name.
func (s *Store) ListDrivers() map[string]Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotMapLocked()
}

// Drivers returns a copy of every driver in the order they were added.
func (s *Store) Drivers() []Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) SetTrackName(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackName = name
	s.hasTrackName = true
	return s.trackName
}

// TrackName returns the current track name, or an empty string if none has
// been set.
func (s *Store) TrackName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackName
}

// AddLapTime records a lap for the named driver, creating the driver on first
// sight, and returns the updated drivers.
func (s *Store) AddLapTime(name, team, time string) map[string]Driver {
	s.mu.Lock()
	defer s.mu.Unlock()

	driver, ok := s.drivers[name]
	if !ok {
		driver = &Driver{
			Name:     name,
			LapTimes: []LapTime{},
			Team:     team,
		}
		s.drivers[name] = driver
		s.order = append(s.order, name)
	}

	if driver.Team != team {
		driver.Team = team
	}

	driver.LapTimes = append(driver.LapTimes, LapTime{Time: time})

	if s.retention == RetainFastest {
		retainFastest(driver)
	}

	s.updateFastestLocked()

	return s.snapshotMapLocked()
}

// DeleteLapTime removes every lap of the named driver whose time string is
// exactly time and returns the updated drivers. A driver left without laps is
// removed. ErrDriverNotFound is returned, and nothing changes, if the driver
// is unknown.
func (s *Store) DeleteLapTime(name, time string) (map[string]Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	driver, ok := s.drivers[name]
	if !ok {
		return nil, ErrDriverNotFound
	}

	kept := driver.LapTimes[:0]
	for _, lap := range driver.LapTimes {
		if lap.Time != time {
			kept = append(kept, lap)
		}
	}
	driver.LapTimes = kept

	if len(driver.LapTimes) == 0 {
		s.removeLocked(name)
	}

	s.updateFastestLocked()

	return s.snapshotMapLocked(), nil
}

// Standings is a consistent copy of the leaderboard taken for export.
type Standings struct {
	Track   string
	Drivers []Driver
}

// Snapshot copies the track name and drivers under one lock. It fails with
// ErrNoTrackName if no track name has been set.
func (s *Store) Snapshot() (Standings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTrackName {
		return Standings{}, ErrNoTrackName
	}

	return Standings{
		Track:   s.trackName,
		Drivers: s.snapshotLocked(),
	}, nil
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Drivers: len(s.drivers)}
	for _, d := range s.drivers {
		stats.LapTimes += len(d.LapTimes)
	}
	return stats
}

func (s *Store) removeLocked(name string) {
	delete(s.drivers, name)

	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) snapshotLocked() []Driver {
	out := make([]Driver, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.drivers[name].clone())
	}
	return out
}

func (s *Store) snapshotMapLocked() map[string]Driver {
	out := make(map[string]Driver, len(s.drivers))
	for name, d := range s.drivers {
		out[name] = d.clone()
	}
	return out
}
