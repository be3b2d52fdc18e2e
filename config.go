package sekit

import (
	"github.com/gobeaver/beaver-kit/config"
)

// Config holds the process-wide settings a Session is built from. Load it
// from the environment with GetConfig or fill it in programmatically.
type Config struct {
	// DefaultServer is substituted whenever a path lacks a protocol,
	// e.g. "root://cmseos.fnal.gov". Resolving a bare path with no
	// default server set is a configuration error.
	DefaultServer string `env:"SEKIT_DEFAULT_MGM"`

	// MaxWalkRequests caps the number of listings a single walk may
	// issue. This bounds costly network round trips, not true recursion
	// depth.
	MaxWalkRequests int `env:"SEKIT_MAX_WALK_REQUESTS,default:20"`

	// CacheEnabled turns on the on-disk result cache.
	CacheEnabled bool `env:"SEKIT_CACHE,default:false"`

	// CacheDir is where cached results are stored.
	CacheDir string `env:"SEKIT_CACHE_DIR,default:.sekit-cache"`

	// CopyAttempts is the default number of tries per copy.
	CopyAttempts int `env:"SEKIT_COPY_ATTEMPTS,default:1"`

	// RetrySleepSeconds is the pause between copy attempts.
	RetrySleepSeconds int `env:"SEKIT_RETRY_SLEEP_SECONDS,default:10"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"SEKIT_LOG_LEVEL,default:warn"`

	// SSH backend configuration
	SSHUser    string `env:"SEKIT_SSH_USER"`
	SSHKeyFile string `env:"SEKIT_SSH_KEY_FILE"`
	SSHPort    int    `env:"SEKIT_SSH_PORT,default:22"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
