// config.go: This file contains the configuration for the CalorieTrack-Go application. It defines the settings struct and functions to load the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/spf13/viper"
)

// LogConfig contains settings for a log output.
type LogConfig struct {
	Enabled bool   // true to enable this log
	Path    string // path to log file
}

// MainSettings contains main application settings.
type MainSettings struct {
	Name string    // name of the node running this instance
	Log  LogConfig // main log settings
}

// WebServerSettings contains settings for the HTTP server.
type WebServerSettings struct {
	Debug   bool   // true to enable debug logging of API requests
	Enabled bool   // true to enable the web server
	Host    string // host address to bind to
	Port    string // port to listen on
	Log     LogConfig
}

// OutputSettings contains settings for the persistence backends.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable SQLite output
		Path    string // path to SQLite database
	}
	MySQL struct {
		Enabled  bool   // true to enable MySQL output
		Username string // MySQL username
		Password string // MySQL password
		Database string // MySQL database name
		Host     string // MySQL host
		Port     string // MySQL port
	}
}

// BroadcastSettings contains settings for the live event fan-out.
type BroadcastSettings struct {
	QueueSize int // per-observer outbound queue size, observer is dropped on overflow
}

// QuerySettings bounds the read-side endpoints.
type QuerySettings struct {
	DefaultLimit int // default page size for recent predictions
	MaxLimit     int // ceiling for caller-supplied limits
	CacheTTL     int // analytics response cache TTL in seconds
}

// Settings contains all runtime settings for the application.
type Settings struct {
	Debug bool // true to enable debug level logging

	Version   string `yaml:"-"` // build version, runtime value
	BuildDate string `yaml:"-"` // build date, runtime value

	Main      MainSettings
	WebServer WebServerSettings
	Output    OutputSettings
	Broadcast BroadcastSettings
	Query     QuerySettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the global instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/calorietrack")
	viper.AddConfigPath("/etc/calorietrack")

	viper.SetEnvPrefix("calorietrack")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, run on defaults
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
