package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RelayConfig holds all configuration for the access relay service.
type RelayConfig struct {
	// MQTT broker configuration
	MQTT MQTTConfig `json:"mqtt"`

	// Topic names for the verification pipeline
	Topics TopicsConfig `json:"topics"`

	// Student directory (MongoDB) configuration
	Mongo MongoConfig `json:"mongo"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Health server configuration
	Server ServerConfig `json:"server"`

	// CORS configuration for the health server
	CORS CORSConfig `json:"cors"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"broker_pass"`
	UseTLS      bool          `json:"use_tls"`
	CACertPath  string        `json:"ca_cert_path"`
	ClientID    string        `json:"client_id"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`
}

// TopicsConfig holds the inbound and outbound topic names.
// All three are overridable; handler logic never hardcodes them.
type TopicsConfig struct {
	Card         string `json:"card"`
	Fingerprint  string `json:"fingerprint"`
	LockOpen     string `json:"lock_open"`
	AccessDenied string `json:"access_denied"`
}

// MongoConfig holds directory connection configuration
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	Collection     string        `json:"collection"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	QueryTimeout   time.Duration `json:"query_timeout"`
}

// ServerConfig holds health server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// LoadRelayConfig loads configuration for the access relay service
func LoadRelayConfig() (*RelayConfig, error) {
	// Try to load .env file, but don't fail if it doesn't exist.
	// Environment variables can also be set directly.
	_ = godotenv.Load()

	config := &RelayConfig{
		MQTT: MQTTConfig{
			BrokerHost:  getEnv("BROKER_HOST", "localhost"),
			BrokerPort:  getInt("BROKER_PORT", 1883),
			BrokerUser:  getEnv("BROKER_USER", ""),
			BrokerPass:  getEnv("BROKER_PASS", ""),
			UseTLS:      getBool("BROKER_TLS", false),
			CACertPath:  getEnv("BROKER_CA_FILE", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", "sg-access-relay"),
			KeepAlive:   getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout: getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
		},
		Topics: TopicsConfig{
			Card:         getEnv("MQTT_TOPIC_CARD", "smartguard/verify/card"),
			Fingerprint:  getEnv("MQTT_TOPIC_FINGERPRINT", "smartguard/verify/fingerprint"),
			LockOpen:     getEnv("MQTT_TOPIC_LOCK_OPEN", "smartguard/lock/open"),
			AccessDenied: getEnv("MQTT_TOPIC_ACCESS_DENIED", "smartguard/access/denied"),
		},
		Mongo: MongoConfig{
			URI:            getRequiredEnv("MONGODB_URI"),
			Database:       getEnv("MONGO_DB", "smartguard"),
			Collection:     getEnv("MONGO_STUDENTS_COLLECTION", "students"),
			ConnectTimeout: getDuration("MONGO_CONNECT_TIMEOUT", 20*time.Second),
			QueryTimeout:   getDuration("MONGO_QUERY_TIMEOUT", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: getBool("LOG_ENABLE_CALLER", false),
		},
		Server: ServerConfig{
			Port:         getEnv("RELAY_PORT", "9004"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getInt("CORS_MAX_AGE", 43200), // 12 hours
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *RelayConfig) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.MQTT.BrokerHost == "" {
		return fmt.Errorf("BROKER_HOST is required")
	}
	if c.Topics.Card == c.Topics.Fingerprint {
		return fmt.Errorf("card and fingerprint topics must differ")
	}
	if c.Topics.LockOpen == c.Topics.Card || c.Topics.LockOpen == c.Topics.Fingerprint {
		return fmt.Errorf("lock-open topic must not overlap a verify topic")
	}
	return nil
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *RelayConfig) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.MQTT.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.BrokerHost, c.MQTT.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable: %s", key)
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
