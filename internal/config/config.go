// Package config provides configuration loading from environment variables
// and endpoint profile files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds defaults shared by the CLI commands. Every field can be
// overridden per invocation with flags.
type Config struct {
	Endpoint       string        // SPARQLX_ENDPOINT, no default
	UpdateEndpoint string        // SPARQLX_UPDATE_ENDPOINT, default "" (same as Endpoint)
	Format         string        // SPARQLX_FORMAT, default "" (per query type)
	Method         string        // SPARQLX_METHOD, default "post"
	Version        string        // SPARQLX_PROTOCOL_VERSION, default ""
	Timeout        time.Duration // SPARQLX_TIMEOUT_MS, default 30000ms
	ProfilesFile   string        // SPARQLX_PROFILES, default ~/.config/sparqlx/profiles.yaml
	JQCacheSize    int           // SPARQLX_JQ_CACHE_SIZE, default 64

	// Logging configuration
	LogLevel      string // SPARQLX_LOG_LEVEL, default "info"
	LogFile       string // SPARQLX_LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // SPARQLX_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // SPARQLX_LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // SPARQLX_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // SPARQLX_LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Endpoint:       getEnvString("SPARQLX_ENDPOINT", ""),
		UpdateEndpoint: getEnvString("SPARQLX_UPDATE_ENDPOINT", ""),
		Format:         getEnvString("SPARQLX_FORMAT", ""),
		Method:         getEnvString("SPARQLX_METHOD", "post"),
		Version:        getEnvString("SPARQLX_PROTOCOL_VERSION", ""),
		Timeout:        getEnvDurationMs("SPARQLX_TIMEOUT_MS", 30000),
		ProfilesFile:   getEnvString("SPARQLX_PROFILES", defaultProfilesPath()),
		JQCacheSize:    getEnvInt("SPARQLX_JQ_CACHE_SIZE", 64),

		LogLevel:      getEnvString("SPARQLX_LOG_LEVEL", "info"),
		LogFile:       getEnvString("SPARQLX_LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("SPARQLX_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("SPARQLX_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("SPARQLX_LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("SPARQLX_LOG_COMPRESS", true),
	}
}

// Profile names a SPARQL endpoint together with per-endpoint defaults, so
// commands can address well-known stores by name instead of URL.
type Profile struct {
	Endpoint       string   `yaml:"endpoint"`
	UpdateEndpoint string   `yaml:"update_endpoint,omitempty"`
	Format         string   `yaml:"format,omitempty"`
	Method         string   `yaml:"method,omitempty"`
	Version        string   `yaml:"version,omitempty"`
	DefaultGraphs  []string `yaml:"default_graphs,omitempty"`
	NamedGraphs    []string `yaml:"named_graphs,omitempty"`
}

// LoadProfiles parses the YAML profile file at path. A missing file is not
// an error; it yields an empty map.
func LoadProfiles(path string) (map[string]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Profile{}, nil
		}
		return nil, fmt.Errorf("reading profiles %s: %w", path, err)
	}
	profiles := make(map[string]Profile)
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}
	for name, p := range profiles {
		if p.Endpoint == "" {
			return nil, fmt.Errorf("profile %q has no endpoint", name)
		}
	}
	return profiles, nil
}

func defaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sparqlx", "profiles.yaml")
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
