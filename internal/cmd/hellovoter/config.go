package hellovoter

import (
	"os"
	"path/filepath"
	"time"

	platformcmd "github.com/hellovoter/hellovoter/internal/platform/cmd"
	"github.com/hellovoter/hellovoter/internal/platform/otel"
)

// Config holds the command configuration read from HELLOVOTER_* variables.
// Flags override it per invocation.
type Config struct {
	DBPath          string        `env:"DB_PATH"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"warn"`
	RetryDelay      time.Duration `env:"RETRY_DELAY" envDefault:"12345ms"`
	MaxAttempts     int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	ProgressPeriod  time.Duration `env:"PROGRESS_PERIOD" envDefault:"666ms"`
	OutOfHoursGrace time.Duration `env:"OUT_OF_HOURS_GRACE" envDefault:"600ms"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	DeviceFile      string        `env:"DEVICE_FILE"`
	Latitude        float64       `env:"LATITUDE"`
	Longitude       float64       `env:"LONGITUDE"`
	Locale          string        `env:"LOCALE" envDefault:"en-US"`
	// BaseURL sends every request to one server, for local development.
	BaseURL   string `env:"BASE_URL"`
	Telemetry otel.Settings
}

// LoadConfig reads the environment and fills the database path default.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "hellovoter.db"
	}
	return filepath.Join(dir, "hellovoter", "hellovoter.db")
}
