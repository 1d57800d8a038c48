package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BindHost is the listen address; the API always binds every interface.
const BindHost = "0.0.0.0"

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Readings ReadingsConfig `mapstructure:"readings"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	CORSEnabled        bool          `mapstructure:"cors_enabled"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds storage connection configuration
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"dbname"`
	SSLMode    string `mapstructure:"sslmode"`
	MaxConns   int32  `mapstructure:"max_conns"`
	MinConns   int32  `mapstructure:"min_conns"`
	TableName  string `mapstructure:"table_name"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// MQTTConfig holds the optional MQTT ingestion transport configuration
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

// ReadingsConfig controls ingestion behaviour
type ReadingsConfig struct {
	// ClassifyServerSide replaces caller-supplied statuses with computed ones.
	ClassifyServerSide bool `mapstructure:"classify_server_side"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps every key to its environment variable.
var envBindings = map[string]string{
	"server.port":                 "PORT",
	"server.cors_enabled":         "CORS_ENABLED",
	"server.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"server.shutdown_timeout":     "SERVER_SHUTDOWN_TIMEOUT",

	"database.driver":      "DATABASE_DRIVER",
	"database.url":         "DATABASE_URL",
	"database.host":        "DATABASE_HOST",
	"database.port":        "DATABASE_PORT",
	"database.user":        "DATABASE_USER",
	"database.password":    "DATABASE_PASSWORD",
	"database.dbname":      "DATABASE_DBNAME",
	"database.sslmode":     "DATABASE_SSLMODE",
	"database.max_conns":   "DATABASE_MAX_CONNS",
	"database.min_conns":   "DATABASE_MIN_CONNS",
	"database.table_name":  "DATABASE_TABLE_NAME",
	"database.sqlite_path": "DATABASE_SQLITE_PATH",

	"mqtt.enabled":   "MQTT_ENABLED",
	"mqtt.broker":    "MQTT_BROKER",
	"mqtt.port":      "MQTT_PORT",
	"mqtt.client_id": "MQTT_CLIENT_ID",
	"mqtt.topic":     "MQTT_TOPIC",
	"mqtt.username":  "MQTT_USERNAME",
	"mqtt.password":  "MQTT_PASSWORD",
	"mqtt.qos":       "MQTT_QOS",

	"readings.classify_server_side": "READINGS_CLASSIFY_SERVER_SIDE",

	"log.level":  "LOG_LEVEL",
	"log.format": "LOG_FORMAT",
}

// LoadConfig loads configuration from a .env file, a config file and environment variables
func LoadConfig(path string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	v := viper.New()

	// Set default values first (lowest precedence)
	d := GetDefaultConfig()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_enabled", d.Server.CORSEnabled)
	v.SetDefault("server.cors_allowed_origins", d.Server.CORSAllowedOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("database.table_name", d.Database.TableName)
	v.SetDefault("database.sqlite_path", d.Database.SQLitePath)

	v.SetDefault("mqtt.enabled", d.MQTT.Enabled)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.port", d.MQTT.Port)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)

	v.SetDefault("readings.classify_server_side", d.Readings.ClassifyServerSide)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	// Try to load from config file (medium precedence)
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Environment variables (highest precedence)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Println("No config file found, using environment variables and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               3000,
			CORSEnabled:        true,
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeout:    10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     DriverPostgres,
			Host:       "localhost",
			Port:       5432,
			User:       "postgres",
			Password:   "postgres",
			DBName:     "sensores",
			SSLMode:    "disable",
			MaxConns:   10,
			MinConns:   0,
			TableName:  "sensor_readings",
			SQLitePath: "data/sensores.db",
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost",
			Port:     1883,
			ClientID: "climate-system",
			Topic:    "sensores/#",
			QoS:      1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.TableName) == "" {
		return errors.New("database table name must not be empty")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos %d", c.MQTT.QoS)
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(BindHost, strconv.Itoa(c.Server.Port))
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *Config) GetMQTTBrokerURL() string {
	brokerURL := c.MQTT.Broker

	// Native schemes are used as is, adding the port when missing
	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://"} {
		if strings.HasPrefix(brokerURL, scheme) {
			if !strings.Contains(strings.TrimPrefix(brokerURL, scheme), ":") {
				brokerURL = fmt.Sprintf("%s:%d", brokerURL, c.MQTT.Port)
			}
			return brokerURL
		}
	}

	// http:// and https:// map to tcp:// and ssl://
	for scheme, mapped := range map[string]string{"http://": "tcp", "https://": "ssl"} {
		if strings.HasPrefix(brokerURL, scheme) {
			host := strings.TrimPrefix(brokerURL, scheme)
			if !strings.Contains(host, ":") {
				host = fmt.Sprintf("%s:%d", host, c.MQTT.Port)
			}
			return fmt.Sprintf("%s://%s", mapped, host)
		}
	}

	return fmt.Sprintf("tcp://%s:%d", brokerURL, c.MQTT.Port)
}
