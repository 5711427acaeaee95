// Package export writes the leaderboard to a CSV table and a JSON document
// under a single directory.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lapboard/internal/leaderboard"
)

const DefaultDir = "exports"

// ErrUnsafeTrackName is returned when the track name would place the export
// files outside the export directory.
var ErrUnsafeTrackName = errors.New("track name contains a path separator")

type Document struct {
	Date        string  `json:"date"`
	FastestLaps []Entry `json:"fastest_laps"`
	Track       string  `json:"track"`
}

type Entry struct {
	Driver    string `json:"driver"`
	IsFastest bool   `json:"is_fastest"`
	Position  int    `json:"position"`
	Team      string `json:"team"`
	Time      string `json:"time"`
}

type Exporter struct {
	dir string
	now func() time.Time
}

func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = DefaultDir
	}

	return &Exporter{
		dir: dir,
		now: time.Now,
	}
}

func (e *Exporter) Dir() string {
	return e.dir
}

// Paths returns the CSV and JSON paths used for a track.
func (e *Exporter) Paths(track string) (csvPath, jsonPath string) {
	base := strings.Replace(track, " ", "_", -1) + "_lap_times"

	return filepath.Join(e.dir, base+".csv"), filepath.Join(e.dir, base+".json")
}

// Export writes both files for the given standings and returns the CSV path.
// The CSV file is written first; if the JSON write fails the CSV file is
// left in place.
func (e *Exporter) Export(standings leaderboard.Standings) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", errors.Wrapf(err, "could not create export directory %s", e.dir)
	}

	if strings.ContainsAny(standings.Track, `/\`) {
		return "", errors.Wrapf(ErrUnsafeTrackName, "%q", standings.Track)
	}

	csvPath, jsonPath := e.Paths(standings.Track)
	entries := leaderboard.Rank(standings.Drivers)

	csvData, err := encodeCSV(entries)
	if err != nil {
		return "", errors.Wrap(err, "could not encode csv")
	}

	if err := os.WriteFile(csvPath, csvData, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write %s", csvPath)
	}

	jsonData, err := json.MarshalIndent(e.document(standings.Track, entries), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not encode json")
	}

	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write %s", jsonPath)
	}

	logrus.Infof("Exported lap times to %s and %s", csvPath, jsonPath)

	return csvPath, nil
}

func encodeCSV(entries []leaderboard.Entry) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Position", "Driver", "Team", "Time", "Fastest"}); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		fastest := "No"
		if entry.Fastest {
			fastest = "Yes"
		}

		err := w.Write([]string{
			strconv.Itoa(entry.Position),
			entry.Driver,
			entry.Team,
			entry.Time,
			fastest,
		})

		if err != nil {
			return nil, err
		}
	}

	w.Flush()

	return buf.Bytes(), w.Error()
}

func (e *Exporter) document(track string, entries []leaderboard.Entry) *Document {
	doc := &Document{
		Date:        e.now().Local().Format("2006-01-02"),
		FastestLaps: make([]Entry, 0, len(entries)),
		Track:       track,
	}

	for _, entry := range entries {
		doc.FastestLaps = append(doc.FastestLaps, Entry{
			Driver:    entry.Driver,
			IsFastest: entry.Fastest,
			Position:  positionOf(entries, entry.Driver, entry.Time),
			Team:      entry.Team,
			Time:      entry.Time,
		})
	}

	return doc
}

// positionOf finds the rank of the first entry with the same driver and time.
// Duplicate laps of one driver therefore share the position of the first.
func positionOf(entries []leaderboard.Entry, driver, time string) int {
	for i, entry := range entries {
		if entry.Driver == driver && entry.Time == time {
			return i + 1
		}
	}

	return 0
}
