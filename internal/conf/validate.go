// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateBroadcastSettings(&settings.Broadcast); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateQuerySettings(&settings.Query); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateWebServerSettings validates web server listen settings
func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Enabled {
		port, err := strconv.Atoi(settings.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid WebServer port: %s", settings.Port)
		}
	}
	return nil
}

// validateOutputSettings ensures exactly one persistence backend is selected
func validateOutputSettings(settings *OutputSettings) error {
	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		return fmt.Errorf("only one database output can be enabled at a time")
	}
	if !settings.SQLite.Enabled && !settings.MySQL.Enabled {
		return fmt.Errorf("one database output must be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return fmt.Errorf("SQLite path must not be empty")
	}
	if settings.MySQL.Enabled {
		if settings.MySQL.Database == "" || settings.MySQL.Host == "" {
			return fmt.Errorf("MySQL database and host must not be empty")
		}
		if _, err := strconv.Atoi(settings.MySQL.Port); err != nil {
			return fmt.Errorf("invalid MySQL port: %s", settings.MySQL.Port)
		}
	}
	return nil
}

// validateBroadcastSettings validates the fan-out queue settings
func validateBroadcastSettings(settings *BroadcastSettings) error {
	if settings.QueueSize < 1 {
		return fmt.Errorf("broadcast queue size must be at least 1, got %d", settings.QueueSize)
	}
	return nil
}

// validateQuerySettings validates the read-side query bounds
func validateQuerySettings(settings *QuerySettings) error {
	if settings.DefaultLimit < 1 {
		return fmt.Errorf("query default limit must be at least 1, got %d", settings.DefaultLimit)
	}
	if settings.MaxLimit < settings.DefaultLimit {
		return fmt.Errorf("query max limit %d must not be below default limit %d",
			settings.MaxLimit, settings.DefaultLimit)
	}
	return nil
}
