package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lapboard/internal/export"
	"lapboard/internal/leaderboard"
	"lapboard/internal/live"
	"lapboard/internal/metrics"
)

const maxBodySize = 1 << 20

// API serves the leaderboard over HTTP.
type API struct {
	// mu orders each mutation with its live broadcast, so clients receive
	// updates in the order the store applied them.
	mu sync.Mutex

	store    *leaderboard.Store
	exporter *export.Exporter
	hub      *live.Hub
	metrics  *metrics.Metrics
}

func New(store *leaderboard.Store, exporter *export.Exporter, hub *live.Hub, m *metrics.Metrics) *API {
	return &API{
		store:    store,
		exporter: exporter,
		hub:      hub,
		metrics:  m,
	}
}

type TrackName struct {
	Name string `json:"name"`
}

// Standings is the ranked board, fastest first.
type Standings struct {
	Track   string              `json:"track"`
	Entries []leaderboard.Entry `json:"entries"`
}

type ExportResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

type lapTimeRequest struct {
	Name *string `json:"name"`
	Team *string `json:"team"`
	Time *string `json:"time"`
}

type lapTimeDeleteRequest struct {
	Name *string `json:"name"`
	Time *string `json:"time"`
}

type trackNameRequest struct {
	Name *string `json:"name"`
}

const (
	msgLapTimeDeleted  = "Lap time deleted"
	msgDriverNotFound  = "Driver not found"
	msgExportOK        = "Export successful"
	msgNoTrackName     = "No track name set"
	msgMissingField    = "missing field"
	msgInvalidJSONBody = "invalid json"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Could not encode response")
	}
}

// decode reads a JSON body into v. It answers the request itself and returns
// false when the body cannot be used.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, msgInvalidJSONBody, http.StatusBadRequest)
		return false
	}

	return true
}

func present(fields ...*string) bool {
	for _, f := range fields {
		if f == nil {
			return false
		}
	}
	return true
}

func (a *API) ListDrivers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.ListDrivers())
}

// GetStandings ranks every lap the way exports do, ties in submission order.
func (a *API) GetStandings(w http.ResponseWriter, r *http.Request) {
	entries := leaderboard.Rank(a.store.Drivers())
	if entries == nil {
		entries = []leaderboard.Entry{}
	}

	writeJSON(w, http.StatusOK, Standings{
		Track:   a.store.TrackName(),
		Entries: entries,
	})
}

func (a *API) GetTrackName(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrackName{Name: a.store.TrackName()})
}

func (a *API) SetTrackName(w http.ResponseWriter, r *http.Request) {
	var req trackNameRequest
	if !decode(w, r, &req) {
		return
	}

	if !present(req.Name) {
		http.Error(w, msgMissingField+": name", http.StatusUnprocessableEntity)
		return
	}

	a.mu.Lock()
	resp := TrackName{Name: a.store.SetTrackName(*req.Name)}
	a.hub.Publish(live.TypeTrack, resp)
	a.mu.Unlock()

	logrus.WithField("track", resp.Name).Info("Track name set")

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) AddLapTime(w http.ResponseWriter, r *http.Request) {
	var req lapTimeRequest
	if !decode(w, r, &req) {
		return
	}

	if !present(req.Name, req.Team, req.Time) {
		http.Error(w, msgMissingField+": name, team and time are required", http.StatusUnprocessableEntity)
		return
	}

	a.mu.Lock()
	drivers := a.store.AddLapTime(*req.Name, *req.Team, *req.Time)
	a.hub.Publish(live.TypeDrivers, drivers)
	a.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"driver":   *req.Name,
		"team":     *req.Team,
		"lap_time": *req.Time,
	}).Info("Lap time added")

	a.metrics.LapTimesAdded.Inc()
	a.updateSize()

	writeJSON(w, http.StatusOK, drivers)
}

func (a *API) DeleteLapTime(w http.ResponseWriter, r *http.Request) {
	var req lapTimeDeleteRequest
	if !decode(w, r, &req) {
		return
	}

	if !present(req.Name, req.Time) {
		http.Error(w, msgMissingField+": name and time are required", http.StatusUnprocessableEntity)
		return
	}

	a.mu.Lock()
	drivers, err := a.store.DeleteLapTime(*req.Name, *req.Time)
	if err == nil {
		a.hub.Publish(live.TypeDrivers, drivers)
	}
	a.mu.Unlock()

	switch errors.Cause(err) {
	case nil:
	case leaderboard.ErrDriverNotFound:
		logrus.WithField("driver", *req.Name).Debug("Delete for unknown driver")
		writeJSON(w, http.StatusNotFound, msgDriverNotFound)
		return
	default:
		logrus.WithError(err).Error("Could not delete lap time")
		writeJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	logrus.WithFields(logrus.Fields{
		"driver":   *req.Name,
		"lap_time": *req.Time,
	}).Info("Lap time deleted")

	a.metrics.LapTimesDeleted.Inc()
	a.updateSize()

	writeJSON(w, http.StatusOK, msgLapTimeDeleted)
}

func (a *API) Export(w http.ResponseWriter, r *http.Request) {
	standings, err := a.store.Snapshot()
	if errors.Cause(err) == leaderboard.ErrNoTrackName {
		a.metrics.Exports.WithLabelValues("no_track").Inc()

		writeJSON(w, http.StatusBadRequest, ExportResponse{
			Success: false,
			Message: msgNoTrackName,
		})
		return
	} else if err != nil {
		a.exportFailed(w, err)
		return
	}

	filename, err := a.exporter.Export(standings)
	if err != nil {
		a.exportFailed(w, err)
		return
	}

	a.metrics.Exports.WithLabelValues("ok").Inc()

	resp := ExportResponse{
		Success:  true,
		Filename: filename,
		Message:  msgExportOK,
	}

	a.hub.Publish(live.TypeExport, resp)

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) exportFailed(w http.ResponseWriter, err error) {
	logrus.WithError(err).Error("Export failed")
	a.metrics.Exports.WithLabelValues("error").Inc()

	writeJSON(w, http.StatusInternalServerError, ExportResponse{
		Success: false,
		Message: "Export failed: " + err.Error(),
	})
}

// LiveMessages is the state a newly connected live client starts from.
func (a *API) LiveMessages() []live.Message {
	return []live.Message{
		{Type: live.TypeTrack, Body: TrackName{Name: a.store.TrackName()}},
		{Type: live.TypeDrivers, Body: a.store.ListDrivers()},
	}
}

func (a *API) updateSize() {
	stats := a.store.Stats()
	a.metrics.SetSize(stats.Drivers, stats.LapTimes)
}
