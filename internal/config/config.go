package config

import (
	"os"
	"strconv"
	"time"
)

// Features controls which event classes are synced to the target store.
// Each flag maps to one per-class processor.
type Features struct {
	Basal        bool
	Bolus        bool
	Cartridge    bool
	Alarm        bool
	CgmReading   bool
	CgmAlert     bool
	CgmSession   bool
	UserMode     bool
	DeviceStatus bool
	Profile      bool

	// SkipZeroBasal drops basal segments with a zero commanded rate
	// (suspensions already produce their own records).
	SkipZeroBasal bool
}

// PollerConfig tunes the incremental poll driver.
type PollerConfig struct {
	MinSleep        time.Duration // lower clamp for the rolling-average sleep
	MaxSleep        time.Duration // upper clamp for the rolling-average sleep
	NoChangeSleep   time.Duration // fixed sleep after 3 consecutive unchanged polls
	NoDataAfter     time.Duration // device-silent fatal threshold
	NoWritesAfter   time.Duration // pipeline-silent fatal threshold
	InitialLookback time.Duration // first window size when no high-water mark exists
	WindowOverlap   time.Duration // overlap added before the high-water mark each cycle
	ExitOnFatal     bool          // stop the loop on a fatal condition for supervised restart
}

// Config holds the full service configuration, loaded from environment
// variables with defaults.
type Config struct {
	TConnect struct {
		BaseURL      string
		AccessToken  string
		DeviceSerial string // empty = first device returned by metadata
	}

	Nightscout struct {
		URL       string
		APISecret string
	}

	Database struct {
		Enabled  bool // sync journal is optional; enabled when DB_HOST is set
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Enabled  bool // high-water cache is optional; enabled when REDIS_ADDR is set
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Enabled  bool // alarm notifications are optional; enabled when MQTT_BROKER is set
		Broker   string
		ClientID string
		Topic    string
		Username string
		Password string
	}

	Features Features

	Poller PollerConfig

	// Pretend logs every would-be write/delete instead of performing it.
	Pretend bool

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TConnect.BaseURL = getEnv("TCONNECT_BASE_URL", "https://tdcservices.tandemdiabetes.com")
	cfg.TConnect.AccessToken = getEnv("TCONNECT_ACCESS_TOKEN", "")
	cfg.TConnect.DeviceSerial = getEnv("TCONNECT_DEVICE_SERIAL", "")

	cfg.Nightscout.URL = getEnv("NS_URL", "http://localhost:1337")
	cfg.Nightscout.APISecret = getEnv("NS_SECRET", "")

	cfg.Database.Host = getEnv("DB_HOST", "")
	cfg.Database.Enabled = cfg.Database.Host != ""
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "pumpsync")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Enabled = cfg.Redis.Addr != ""
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.Enabled = cfg.MQTT.Broker != ""
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "tconnectsync")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "pump/alarms")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")

	cfg.Features.Basal = getEnvBool("SYNC_BASAL", true)
	cfg.Features.Bolus = getEnvBool("SYNC_BOLUS", true)
	cfg.Features.Cartridge = getEnvBool("SYNC_CARTRIDGE", true)
	cfg.Features.Alarm = getEnvBool("SYNC_ALARM", true)
	cfg.Features.CgmReading = getEnvBool("SYNC_CGM_READING", true)
	cfg.Features.CgmAlert = getEnvBool("SYNC_CGM_ALERT", true)
	cfg.Features.CgmSession = getEnvBool("SYNC_CGM_SESSION", true)
	cfg.Features.UserMode = getEnvBool("SYNC_USER_MODE", true)
	cfg.Features.DeviceStatus = getEnvBool("SYNC_DEVICE_STATUS", true)
	cfg.Features.Profile = getEnvBool("SYNC_PROFILE", false)
	cfg.Features.SkipZeroBasal = getEnvBool("SKIP_ZERO_BASAL", false)

	cfg.Poller.MinSleep = getEnvDuration("POLL_MIN_SLEEP", 60*time.Second)
	cfg.Poller.MaxSleep = getEnvDuration("POLL_MAX_SLEEP", 10*time.Minute)
	cfg.Poller.NoChangeSleep = getEnvDuration("POLL_NO_CHANGE_SLEEP", 5*time.Minute)
	cfg.Poller.NoDataAfter = getEnvDuration("POLL_NO_DATA_AFTER", 3*time.Hour)
	cfg.Poller.NoWritesAfter = getEnvDuration("POLL_NO_WRITES_AFTER", 6*time.Hour)
	cfg.Poller.InitialLookback = getEnvDuration("POLL_INITIAL_LOOKBACK", 24*time.Hour)
	cfg.Poller.WindowOverlap = getEnvDuration("POLL_WINDOW_OVERLAP", 5*time.Minute)
	cfg.Poller.ExitOnFatal = getEnvBool("POLL_EXIT_ON_FATAL", true)

	cfg.Pretend = getEnvBool("PRETEND", false)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
