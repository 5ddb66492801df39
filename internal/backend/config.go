package backend

import (
	"fmt"

	"finboard/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:       backendType,
		APIURL:     appConfig.APIURL,
		APITimeout: appConfig.APITimeout,

		Session:          SessionType(appConfig.SessionBackend),
		SessionNamespace: appConfig.SessionNamespace,
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		RedisURL:         appConfig.RedisURL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == APIBackend && c.APIURL == "" {
		return fmt.Errorf("API URL is required for api backend")
	}

	switch c.Session {
	case SQLiteSession:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite sessions")
		}
	case RedisSession:
		if c.RedisURL == "" {
			return fmt.Errorf("Redis URL is required for redis sessions")
		}
	case MemorySession:
	default:
		return fmt.Errorf("invalid session backend: %s", c.Session)
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{APIBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings.
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strs := make([]string, len(types))
	for i, t := range types {
		strs[i] = t.String()
	}
	return strs
}
