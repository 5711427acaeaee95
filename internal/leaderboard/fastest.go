package leaderboard

import (
	"sort"

	"lapboard/internal/laptime"
)

// updateFastestLocked clears every fastest flag and sets it again on the laps
// whose time string matches the quickest lap on the board. The first lap
// found with the minimum value decides the winning string; laps with an equal
// duration written differently are not flagged.
func (s *Store) updateFastestLocked() {
	fastest := laptime.Unparsable
	fastestTime := ""
	found := false

	for _, name := range s.order {
		driver := s.drivers[name]

		for i := range driver.LapTimes {
			driver.LapTimes[i].IsFastest = false

			if seconds := laptime.Seconds(driver.LapTimes[i].Time); seconds < fastest {
				fastest = seconds
				fastestTime = driver.LapTimes[i].Time
				found = true
			}
		}
	}

	if !found {
		return
	}

	for _, name := range s.order {
		driver := s.drivers[name]

		for i := range driver.LapTimes {
			if driver.LapTimes[i].Time == fastestTime {
				driver.LapTimes[i].IsFastest = true
			}
		}
	}
}

// retainFastest collapses the driver's laps to the single quickest one.
func retainFastest(driver *Driver) {
	if len(driver.LapTimes) <= 1 {
		return
	}

	fastest := laptime.Unparsable
	fastestIndex := 0

	for i, lap := range driver.LapTimes {
		if seconds := laptime.Seconds(lap.Time); seconds < fastest {
			fastest = seconds
			fastestIndex = i
		}
	}

	driver.LapTimes = []LapTime{driver.LapTimes[fastestIndex]}
}

// Entry is one ranked lap.
type Entry struct {
	Position int    `json:"position"`
	Driver   string `json:"driver"`
	Team     string `json:"team"`
	Time     string `json:"time"`
	Fastest  bool   `json:"is_fastest"`
}

// Rank flattens the drivers into one entry per lap and orders them fastest
// first. Equal durations keep the order in which they appear in drivers;
// unparsable times sort last.
func Rank(drivers []Driver) []Entry {
	var entries []Entry

	for _, d := range drivers {
		for _, lap := range d.LapTimes {
			entries = append(entries, Entry{
				Driver:  d.Name,
				Team:    d.Team,
				Time:    lap.Time,
				Fastest: lap.IsFastest,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return laptime.Less(entries[i].Time, entries[j].Time)
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	return entries
}
