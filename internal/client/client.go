// Package client talks to a running lapboard server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"lapboard/internal/api"
	"lapboard/internal/leaderboard"
)

var ErrDriverNotFound = leaderboard.ErrDriverNotFound

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status=%d: %s", e.Method, e.Path, e.Code, strings.TrimSpace(e.Body))
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Drivers(ctx context.Context) (map[string]leaderboard.Driver, error) {
	var drivers map[string]leaderboard.Driver

	if err := c.do(ctx, http.MethodGet, "/api/drivers", nil, &drivers); err != nil {
		return nil, err
	}

	return drivers, nil
}

// Standings returns the ranked board as the server orders it.
func (c *Client) Standings(ctx context.Context) (*api.Standings, error) {
	var standings api.Standings

	if err := c.do(ctx, http.MethodGet, "/api/standings", nil, &standings); err != nil {
		return nil, err
	}

	return &standings, nil
}

func (c *Client) TrackName(ctx context.Context) (string, error) {
	var track api.TrackName

	if err := c.do(ctx, http.MethodGet, "/api/track", nil, &track); err != nil {
		return "", err
	}

	return track.Name, nil
}

func (c *Client) SetTrackName(ctx context.Context, name string) (string, error) {
	var track api.TrackName

	if err := c.do(ctx, http.MethodPost, "/api/track", api.TrackName{Name: name}, &track); err != nil {
		return "", err
	}

	return track.Name, nil
}

type lapTime struct {
	Name string `json:"name"`
	Team string `json:"team"`
	Time string `json:"time"`
}

type lapTimeDelete struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

func (c *Client) AddLapTime(ctx context.Context, name, team, time string) (map[string]leaderboard.Driver, error) {
	var drivers map[string]leaderboard.Driver

	err := c.do(ctx, http.MethodPost, "/api/laptime", lapTime{Name: name, Team: team, Time: time}, &drivers)
	if err != nil {
		return nil, err
	}

	return drivers, nil
}

// DeleteLapTime removes a lap. It returns ErrDriverNotFound if the server
// does not know the driver.
func (c *Client) DeleteLapTime(ctx context.Context, name, time string) error {
	err := c.do(ctx, http.MethodDelete, "/api/laptime", lapTimeDelete{Name: name, Time: time}, nil)

	if statusErr, ok := err.(*StatusError); ok && statusErr.Code == http.StatusNotFound {
		return errors.Wrapf(ErrDriverNotFound, "%s", name)
	}

	return err
}

// Export asks the server to write its export files. A failed export is
// reported as an error carrying the server's message.
func (c *Client) Export(ctx context.Context) (*api.ExportResponse, error) {
	var resp api.ExportResponse

	err := c.do(ctx, http.MethodGet, "/api/export", nil, &resp)

	if statusErr, ok := err.(*StatusError); ok {
		if jsonErr := json.Unmarshal([]byte(statusErr.Body), &resp); jsonErr == nil && resp.Message != "" {
			return &resp, errors.New(resp.Message)
		}
	}

	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "could not encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "could not build %s %s", method, path)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read %s %s response", method, path)
	}

	if resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "could not decode %s %s response", method, path)
	}

	return nil
}
