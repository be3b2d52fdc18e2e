package sekit

import (
	"os"
	"testing"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: Config{
				MaxWalkRequests:   20,
				CacheDir:          ".sekit-cache",
				CopyAttempts:      1,
				RetrySleepSeconds: 10,
				LogLevel:          "warn",
				SSHPort:           22,
			},
		},
		{
			name: "server and cache configuration",
			envVars: map[string]string{
				"BEAVER_SEKIT_DEFAULT_MGM": "root://cmseos.fnal.gov",
				"BEAVER_SEKIT_CACHE":       "true",
				"BEAVER_SEKIT_CACHE_DIR":   "/tmp/sekit-cache",
			},
			want: Config{
				DefaultServer:     "root://cmseos.fnal.gov",
				MaxWalkRequests:   20,
				CacheEnabled:      true,
				CacheDir:          "/tmp/sekit-cache",
				CopyAttempts:      1,
				RetrySleepSeconds: 10,
				LogLevel:          "warn",
				SSHPort:           22,
			},
		},
		{
			name: "walk and retry tuning",
			envVars: map[string]string{
				"BEAVER_SEKIT_MAX_WALK_REQUESTS":   "100",
				"BEAVER_SEKIT_COPY_ATTEMPTS":       "3",
				"BEAVER_SEKIT_RETRY_SLEEP_SECONDS": "1",
				"BEAVER_SEKIT_LOG_LEVEL":           "debug",
			},
			want: Config{
				MaxWalkRequests:   100,
				CacheDir:          ".sekit-cache",
				CopyAttempts:      3,
				RetrySleepSeconds: 1,
				LogLevel:          "debug",
				SSHPort:           22,
			},
		},
		{
			name: "ssh configuration",
			envVars: map[string]string{
				"BEAVER_SEKIT_SSH_USER":     "jdoe",
				"BEAVER_SEKIT_SSH_KEY_FILE": "/home/jdoe/.ssh/id_ed25519",
				"BEAVER_SEKIT_SSH_PORT":     "2222",
			},
			want: Config{
				MaxWalkRequests:   20,
				CacheDir:          ".sekit-cache",
				CopyAttempts:      1,
				RetrySleepSeconds: 10,
				LogLevel:          "warn",
				SSHUser:           "jdoe",
				SSHKeyFile:        "/home/jdoe/.ssh/id_ed25519",
				SSHPort:           2222,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				k := k
				os.Setenv(k, v)
				t.Cleanup(func() { os.Unsetenv(k) })
			}

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}
