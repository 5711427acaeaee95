package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"lapboard/internal/export"
	"lapboard/internal/leaderboard"
)

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Static      StaticConfig      `yaml:"static"`
	Export      ExportConfig      `yaml:"export"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Log         LogConfig         `yaml:"log"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`

	// timeouts, in seconds
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	IdleTimeout     int `yaml:"idle_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

type StaticConfig struct {
	Dir string `yaml:"dir"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type LeaderboardConfig struct {
	Retention string `yaml:"retention"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Listen:          "0.0.0.0:8080",
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Static: StaticConfig{
			Dir: "static",
		},
		Export: ExportConfig{
			Dir: export.DefaultDir,
		},
		Leaderboard: LeaderboardConfig{
			Retention: string(leaderboard.RetainFastest),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read config %s", path)
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "could not parse config %s", path)
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() {
	c.HTTP.Listen = getEnv("LAPBOARD_LISTEN_ADDR", c.HTTP.Listen)
	c.Static.Dir = getEnv("LAPBOARD_STATIC_DIR", c.Static.Dir)
	c.Export.Dir = getEnv("LAPBOARD_EXPORT_DIR", c.Export.Dir)
	c.Leaderboard.Retention = getEnv("LAPBOARD_RETENTION", c.Leaderboard.Retention)
	c.Log.Level = getEnv("LAPBOARD_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LAPBOARD_LOG_FORMAT", c.Log.Format)
}

func (c *Config) Validate() error {
	if _, err := leaderboard.ParseRetention(c.Leaderboard.Retention); err != nil {
		return errors.Wrap(err, "leaderboard.retention")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	if c.HTTP.Listen == "" {
		return errors.New("http.listen: must not be empty")
	}

	return nil
}

func (c *Config) Retention() leaderboard.Retention {
	r, _ := leaderboard.ParseRetention(c.Leaderboard.Retention)
	return r
}

// ConfigureLogging applies the log settings to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	logrus.SetLevel(level)

	if strings.ToLower(c.Log.Format) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
