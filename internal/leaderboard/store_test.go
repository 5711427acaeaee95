package leaderboard

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
)

func countFastest(drivers map[string]Driver) int {
	n := 0
	for _, d := range drivers {
		for _, lap := range d.LapTimes {
			if lap.IsFastest {
				n++
			}
		}
	}
	return n
}

func TestAddLapTimeFlagsFastestAcrossDrivers(t *testing.T) {
	s := NewStore(RetainFastest)

	s.AddLapTime("Max", "RedBull", "1:30.500")
	drivers := s.AddLapTime("Lando", "McLaren", "1:29.999")

	if !drivers["Lando"].LapTimes[0].IsFastest {
		t.Error("expected Lando's lap to be fastest")
	}

	if drivers["Max"].LapTimes[0].IsFastest {
		t.Error("expected Max's lap not to be fastest")
	}

	drivers, err := s.DeleteLapTime("Lando", "1:29.999")
	if err != nil {
		t.Fatalf("DeleteLapTime: %v", err)
	}

	if _, ok := drivers["Lando"]; ok {
		t.Error("expected Lando to be removed along with the last lap")
	}

	if !drivers["Max"].LapTimes[0].IsFastest {
		t.Error("expected Max's lap to become fastest")
	}
}

func TestExactlyOneFastestAfterEveryAdd(t *testing.T) {
	laps := []struct {
		name, team, time string
	}{
		{"Max", "RedBull", "1:31.000"},
		{"Lando", "McLaren", "1:30.200"},
		{"Oscar", "McLaren", "1.30.100"},
		{"Checo", "RedBull", "92.400"},
		{"Max", "RedBull", "1:29.800"},
		{"Lando", "McLaren", "1:35.000"},
		{"Oscar", "McLaren", "89.700"},
	}

	for _, retention := range []Retention{RetainFastest, RetainAll} {
		t.Run(string(retention), func(t *testing.T) {
			s := NewStore(retention)

			for _, lap := range laps {
				drivers := s.AddLapTime(lap.name, lap.team, lap.time)

				if got := countFastest(drivers); got != 1 {
					t.Fatalf("after adding %s %s: %d fastest laps, want 1", lap.name, lap.time, got)
				}
			}

			drivers := s.ListDrivers()
			if !drivers["Oscar"].LapTimes[len(drivers["Oscar"].LapTimes)-1].IsFastest {
				t.Error("expected Oscar's 89.700 to be fastest")
			}
		})
	}
}

func TestRetainFastestKeepsOneLapPerDriver(t *testing.T) {
	s := NewStore(RetainFastest)

	s.AddLapTime("Max", "RedBull", "1:31.000")
	s.AddLapTime("Max", "RedBull", "1:29.500")
	drivers := s.AddLapTime("Max", "RedBull", "1:30.000")

	laps := drivers["Max"].LapTimes
	if len(laps) != 1 || laps[0].Time != "1:29.500" {
		t.Fatalf("expected only 1:29.500 to be kept, got %+v", laps)
	}
}

func TestRetainFastestFirstMinimumWins(t *testing.T) {
	s := NewStore(RetainFastest)

	s.AddLapTime("Max", "RedBull", "1:30.000")
	drivers := s.AddLapTime("Max", "RedBull", "90.000")

	if got := drivers["Max"].LapTimes[0].Time; got != "1:30.000" {
		t.Errorf("expected the first of two equal laps to be kept, got %s", got)
	}
}

func TestRetainAllKeepsHistory(t *testing.T) {
	s := NewStore(RetainAll)

	s.AddLapTime("Max", "RedBull", "1:31.000")
	s.AddLapTime("Max", "RedBull", "1:29.500")
	drivers := s.AddLapTime("Max", "RedBull", "1:30.000")

	laps := drivers["Max"].LapTimes
	if len(laps) != 3 {
		t.Fatalf("expected 3 laps, got %d", len(laps))
	}

	if laps[0].IsFastest || !laps[1].IsFastest || laps[2].IsFastest {
		t.Errorf("expected only the second lap to be fastest, got %+v", laps)
	}
}

func TestTeamIsLastWriteWins(t *testing.T) {
	s := NewStore(RetainAll)

	s.AddLapTime("Checo", "RedBull", "1:31.000")
	drivers := s.AddLapTime("Checo", "Cadillac", "1:32.000")

	if got := drivers["Checo"].Team; got != "Cadillac" {
		t.Errorf("team = %s, want Cadillac", got)
	}
}

func TestFastestFlagUsesTimeString(t *testing.T) {
	s := NewStore(RetainAll)

	s.AddLapTime("Max", "RedBull", "1:30.000")
	s.AddLapTime("Lando", "McLaren", "90.000")
	drivers := s.AddLapTime("Oscar", "McLaren", "1:30.000")

	if !drivers["Max"].LapTimes[0].IsFastest || !drivers["Oscar"].LapTimes[0].IsFastest {
		t.Error("expected byte-identical fastest times to both be flagged")
	}

	if drivers["Lando"].LapTimes[0].IsFastest {
		t.Error("expected an equal time written differently not to be flagged")
	}
}

func TestUnparsableTimesNeverWin(t *testing.T) {
	s := NewStore(RetainAll)

	drivers := s.AddLapTime("Max", "RedBull", "DNF")
	if countFastest(drivers) != 0 {
		t.Error("an unparsable lap must not be flagged fastest")
	}

	drivers = s.AddLapTime("Lando", "McLaren", "1:40.000")
	if !drivers["Lando"].LapTimes[0].IsFastest {
		t.Error("expected the only parsable lap to be fastest")
	}
}

func TestDeleteLapTime(t *testing.T) {
	s := NewStore(RetainAll)

	s.AddLapTime("Max", "RedBull", "1:30.000")
	s.AddLapTime("Max", "RedBull", "1:31.000")
	s.AddLapTime("Max", "RedBull", "1:30.000")

	drivers, err := s.DeleteLapTime("Max", "1:30.000")
	if err != nil {
		t.Fatalf("DeleteLapTime: %v", err)
	}

	laps := drivers["Max"].LapTimes
	if len(laps) != 1 || laps[0].Time != "1:31.000" || !laps[0].IsFastest {
		t.Fatalf("expected only a fastest 1:31.000 to remain, got %+v", laps)
	}

	if _, err := s.DeleteLapTime("Max", "9:99.999"); err != nil {
		t.Errorf("deleting a missing time of a known driver: %v", err)
	}

	if got := len(s.ListDrivers()["Max"].LapTimes); got != 1 {
		t.Errorf("expected 1 lap to remain, got %d", got)
	}
}

func TestDeleteUnknownDriver(t *testing.T) {
	s := NewStore(RetainFastest)
	s.AddLapTime("Max", "RedBull", "1:30.000")

	before := s.ListDrivers()

	drivers, err := s.DeleteLapTime("Lando", "1:30.000")
	if errors.Cause(err) != ErrDriverNotFound || drivers != nil {
		t.Fatalf("err = %v, want ErrDriverNotFound", err)
	}

	after := s.ListDrivers()
	if len(after) != len(before) || after["Max"].LapTimes[0] != before["Max"].LapTimes[0] {
		t.Errorf("store changed after a failed delete: %+v", after)
	}
}

func TestDriversKeepInsertionOrder(t *testing.T) {
	s := NewStore(RetainFastest)

	s.AddLapTime("Max", "RedBull", "1:30.000")
	s.AddLapTime("Lando", "McLaren", "1:31.000")
	s.AddLapTime("Oscar", "McLaren", "1:32.000")
	_, _ = s.DeleteLapTime("Lando", "1:31.000")
	s.AddLapTime("Lando", "McLaren", "1:33.000")

	var names []string
	for _, d := range s.Drivers() {
		names = append(names, d.Name)
	}

	want := []string{"Max", "Oscar", "Lando"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestListDriversReturnsCopy(t *testing.T) {
	s := NewStore(RetainFastest)
	s.AddLapTime("Max", "RedBull", "1:30.000")

	drivers := s.ListDrivers()
	drivers["Max"].LapTimes[0].Time = "0:01.000"

	if got := s.ListDrivers()["Max"].LapTimes[0].Time; got != "1:30.000" {
		t.Errorf("store was mutated through a snapshot: %s", got)
	}
}

func TestTrackName(t *testing.T) {
	s := NewStore(RetainFastest)

	if got := s.TrackName(); got != "" {
		t.Errorf("TrackName() = %q before set, want empty", got)
	}

	if _, err := s.Snapshot(); errors.Cause(err) != ErrNoTrackName {
		t.Errorf("Snapshot() err = %v, want ErrNoTrackName", err)
	}

	if got := s.SetTrackName("Silverstone GP"); got != "Silverstone GP" {
		t.Errorf("SetTrackName returned %q", got)
	}

	if got := s.TrackName(); got != "Silverstone GP" {
		t.Errorf("TrackName() = %q", got)
	}

	s.SetTrackName("")

	standings, err := s.Snapshot()
	if err != nil {
		t.Fatalf("an empty track name is still set: %v", err)
	}
	if standings.Track != "" {
		t.Errorf("Track = %q, want empty", standings.Track)
	}
}

func TestStats(t *testing.T) {
	s := NewStore(RetainAll)
	s.AddLapTime("Max", "RedBull", "1:30.000")
	s.AddLapTime("Max", "RedBull", "1:31.000")
	s.AddLapTime("Lando", "McLaren", "1:32.000")

	stats := s.Stats()
	if stats.Drivers != 2 || stats.LapTimes != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestConcurrentMutations(t *testing.T) {
	s := NewStore(RetainAll)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := []string{"Max", "Lando", "Oscar", "Checo"}[i%4]
			s.AddLapTime(name, "Team", "1:30.000")
			_, _ = s.DeleteLapTime(name, "1:31.000")
			s.ListDrivers()
		}(i)
	}
	wg.Wait()

	if got := s.Stats().LapTimes; got != 20 {
		t.Errorf("LapTimes = %d, want 20", got)
	}

	if got := countFastest(s.ListDrivers()); got != 20 {
		t.Errorf("expected every identical lap to be flagged, got %d", got)
	}
}

func TestRank(t *testing.T) {
	drivers := []Driver{
		{Name: "Max", Team: "RedBull", LapTimes: []LapTime{{Time: "1:30.500"}, {Time: "DNF"}}},
		{Name: "Lando", Team: "McLaren", LapTimes: []LapTime{{Time: "1:29.999", IsFastest: true}}},
		{Name: "Oscar", Team: "McLaren", LapTimes: []LapTime{{Time: "90.500"}}},
	}

	entries := Rank(drivers)

	want := []struct {
		driver, time string
	}{
		{"Lando", "1:29.999"},
		{"Max", "1:30.500"},
		{"Oscar", "90.500"},
		{"Max", "DNF"},
	}

	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}

	for i, w := range want {
		e := entries[i]
		if e.Driver != w.driver || e.Time != w.time || e.Position != i+1 {
			t.Errorf("entry %d = %+v, want %s %s at %d", i, e, w.driver, w.time, i+1)
		}
	}

	if !entries[0].Fastest {
		t.Error("expected the fastest flag to carry over")
	}
}

func TestParseRetention(t *testing.T) {
	for in, want := range map[string]Retention{"": RetainFastest, "fastest": RetainFastest, "FULL": RetainAll} {
		got, err := ParseRetention(in)
		if err != nil || got != want {
			t.Errorf("ParseRetention(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseRetention("weekly"); errors.Cause(err) != ErrUnknownRetention {
		t.Errorf("expected ErrUnknownRetention, got %v", err)
	}
}
