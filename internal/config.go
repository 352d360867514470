package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	BaseURL                string        `env:"BASE_URL,default=https://cdserver.nomadsoft.us"`
	APIPrefix              string        `env:"API_PREFIX,default=/api/v1"`
	HTTPTimeout            time.Duration `env:"HTTP_TIMEOUT,default=30s"`
	PageSize               int           `env:"PAGE_SIZE,default=20"`
	SessionTickInterval    time.Duration `env:"SESSION_TICK_INTERVAL,default=60s"`
	SummaryRefreshInterval time.Duration `env:"SUMMARY_REFRESH_INTERVAL,default=5m"`
	TelemetryInterval      time.Duration `env:"TELEMETRY_INTERVAL,default=1m"`
	RecentEntriesLimit     int           `env:"RECENT_ENTRIES_LIMIT,default=10"`
	RestartInterval        time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	BadgerFilepath         string        `env:"BADGER_FILEPATH"`
	InspectPort            int           `env:"INSPECT_PORT"`
	LogLevel               string        `env:"LOG_LEVEL,default=INFO"`
	AccessToken            string        `env:"ACCESS_TOKEN,required=true"`
	RefreshToken           string        `env:"REFRESH_TOKEN,required=true"`
	ViewerID               string        `env:"VIEWER_ID,required=true"`
}

// APIBase joins the host and the versioned prefix without doubling slashes.
func (c Config) APIBase() string {
	host := strings.TrimRight(c.BaseURL, "/")
	prefix := "/" + strings.Trim(c.APIPrefix, "/")
	return host + prefix
}

func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.SessionTickInterval <= 0 {
		return fmt.Errorf("SESSION_TICK_INTERVAL must be positive, got %s", c.SessionTickInterval)
	}
	if c.SummaryRefreshInterval <= 0 {
		return fmt.Errorf("SUMMARY_REFRESH_INTERVAL must be positive, got %s", c.SummaryRefreshInterval)
	}
	return nil
}
