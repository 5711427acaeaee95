package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
)

// NewRouter wires the API, the live feed, metrics and the static pages.
// staticDir may be empty to serve no static files.
func NewRouter(a *API, staticDir string) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/drivers", a.ListDrivers).Methods("GET")
	api.HandleFunc("/standings", a.GetStandings).Methods("GET")
	api.HandleFunc("/track", a.GetTrackName).Methods("GET")
	api.HandleFunc("/track", a.SetTrackName).Methods("POST")
	api.HandleFunc("/laptime", a.AddLapTime).Methods("POST")
	api.HandleFunc("/laptime", a.DeleteLapTime).Methods("DELETE")
	api.HandleFunc("/export", a.Export).Methods("GET")
	api.HandleFunc("/live", a.hub.Handler(a.LiveMessages)).Methods("GET")

	r.Handle("/metrics", a.metrics.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "OK")
	})

	if staticDir != "" {
		for _, page := range []string{"admin", "display"} {
			prefix := "/" + page + "/"
			fs := http.FileServer(http.Dir(filepath.Join(staticDir, page)))

			r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, fs)).Methods("GET", "HEAD")
		}

		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir))).Methods("GET", "HEAD")
	}

	return cors(a.instrument(r))
}
