package config

import (
	"os"
	"path/filepath"
	"testing"

	"lapboard/internal/leaderboard"
)

func setEnv(t *testing.T, key, value string) {
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)

	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "lapboard.yml")

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if c.HTTP.Listen != "0.0.0.0:8080" || c.Export.Dir != "exports" || c.Static.Dir != "static" {
		t.Errorf("unexpected defaults: %+v", c)
	}

	if c.Retention() != leaderboard.RetainFastest {
		t.Errorf("retention = %s, want fastest", c.Retention())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  listen: ":9090"
  read_timeout: 5
export:
  dir: /var/lib/lapboard/exports
leaderboard:
  retention: full
log:
  level: debug
  format: json
`)

	setEnv(t, "LAPBOARD_LISTEN_ADDR", ":7070")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if c.HTTP.Listen != ":7070" {
		t.Errorf("listen = %s, want env override :7070", c.HTTP.Listen)
	}

	if c.HTTP.ReadTimeout != 5 || c.HTTP.WriteTimeout != 15 {
		t.Errorf("timeouts = %d/%d", c.HTTP.ReadTimeout, c.HTTP.WriteTimeout)
	}

	if c.Export.Dir != "/var/lib/lapboard/exports" {
		t.Errorf("export dir = %s", c.Export.Dir)
	}

	if c.Retention() != leaderboard.RetainAll {
		t.Errorf("retention = %s, want full", c.Retention())
	}

	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Errorf("log = %+v", c.Log)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, contents := range map[string]string{
		"retention":  "leaderboard:\n  retention: weekly\n",
		"log level":  "log:\n  level: chatty\n",
		"log format": "log:\n  format: xml\n",
		"yaml":       "http: [",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, contents)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
