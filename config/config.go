package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort string `yaml:"server.port"`

	// Google API configuration
	GoogleClientID     string `yaml:"google.client_id"`
	GoogleClientSecret string `yaml:"google.client_secret"`
	YouTubeAPIKey      string `yaml:"google.api_key"`

	// Security configuration
	EncryptionKey string `yaml:"security.encryption_key"` // 64 hex chars, AES-256

	// Publish job configuration
	PublishCron      string        `yaml:"publish.cron"`
	DailyVideoLimit  int           `yaml:"publish.daily_limit"`
	UploadTimeout    time.Duration `yaml:"-"`
	UploadTimeoutStr string        `yaml:"publish.upload_timeout"`
	ClaimLease       time.Duration `yaml:"-"`
	ClaimLeaseStr    string        `yaml:"publish.claim_lease"`

	// Fetch job configuration
	FetchCron       string `yaml:"fetch.cron"`
	FetchMaxResults int    `yaml:"fetch.max_results"`

	// Download configuration
	DownloadDir        string        `yaml:"download.dir"`
	DownloadTimeout    time.Duration `yaml:"-"`
	DownloadTimeoutStr string        `yaml:"download.timeout"`
	YtDlpPath          string        `yaml:"download.yt_dlp_path"`
	CookiesBrowsers    []string      `yaml:"download.cookies_browsers"`
	CookiesFile        string        `yaml:"download.cookies_file"`

	// Database configuration
	DatabaseURL string `yaml:"database.url"`

	// Performance tuning
	HTTPClientTimeout    time.Duration `yaml:"-"`
	HTTPClientTimeoutStr string        `yaml:"performance.http_client_timeout"`
	MaxIdleConns         int           `yaml:"performance.max_idle_conns"`
	MaxConnsPerHost      int           `yaml:"performance.max_conns_per_host"`
	DownloadBufferSize   int           `yaml:"download.buffer_size"`

	// Logging configuration
	LogDirectory  string `yaml:"logging.dir"`
	LogOutputFile string `yaml:"logging.output_file"`
	LogErrorFile  string `yaml:"logging.error_file"`
	LogLevel      string `yaml:"logging.level"`

	// Bootstrap users
	BootstrapUsers []UserBootstrap `yaml:"users"`
}

// UserBootstrap defines a user and its source channels loaded from config.
// Tokens are never bootstrapped from config; they arrive via the OAuth flow.
type UserBootstrap struct {
	Email                  string             `yaml:"email"`
	DestinationChannelID   string             `yaml:"destination_channel_id"`
	DestinationChannelName string             `yaml:"destination_channel_name"`
	MaxVideosPerDay        int                `yaml:"max_videos_per_day"`
	SourceChannels         []ChannelBootstrap `yaml:"source_channels"`
}

// ChannelBootstrap defines a source channel loaded from config
type ChannelBootstrap struct {
	ChannelID   string `yaml:"channel_id"`
	ChannelName string `yaml:"channel_name"`
}

// configFile represents the YAML structure
type configFile struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Google struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		APIKey       string `yaml:"api_key"`
	} `yaml:"google"`
	Security struct {
		EncryptionKey string `yaml:"encryption_key"`
	} `yaml:"security"`
	Publish struct {
		Cron          string `yaml:"cron"`
		DailyLimit    int    `yaml:"daily_limit"`
		UploadTimeout string `yaml:"upload_timeout"`
		ClaimLease    string `yaml:"claim_lease"`
	} `yaml:"publish"`
	Fetch struct {
		Cron       string `yaml:"cron"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"fetch"`
	Download struct {
		Dir             string   `yaml:"dir"`
		Timeout         string   `yaml:"timeout"`
		BufferSize      int      `yaml:"buffer_size"`
		YtDlpPath       string   `yaml:"yt_dlp_path"`
		CookiesBrowsers []string `yaml:"cookies_browsers"`
		CookiesFile     string   `yaml:"cookies_file"`
	} `yaml:"download"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Performance struct {
		HTTPClientTimeout string `yaml:"http_client_timeout"`
		MaxIdleConns      int    `yaml:"max_idle_conns"`
		MaxConnsPerHost   int    `yaml:"max_conns_per_host"`
	} `yaml:"performance"`
	Logging struct {
		Directory  string `yaml:"dir"`
		OutputFile string `yaml:"output_file"`
		ErrorFile  string `yaml:"error_file"`
		Level      string `yaml:"level"`
	} `yaml:"logging"`
	Users []UserBootstrap `yaml:"users"`
}

// Manager handles configuration loading
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	if configPath == "" {
		configPath = "config.yaml"
	}
	return &Manager{
		configPath: configPath,
	}
}

// Load reads configuration from the YAML file, applies environment overrides
// for secrets and fills in defaults.
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cfgFile configFile
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine; env vars and defaults still apply
	} else if err := yaml.Unmarshal(data, &cfgFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := &Config{
		ServerPort:           cfgFile.Server.Port,
		GoogleClientID:       cfgFile.Google.ClientID,
		GoogleClientSecret:   cfgFile.Google.ClientSecret,
		YouTubeAPIKey:        cfgFile.Google.APIKey,
		EncryptionKey:        cfgFile.Security.EncryptionKey,
		PublishCron:          cfgFile.Publish.Cron,
		DailyVideoLimit:      cfgFile.Publish.DailyLimit,
		UploadTimeoutStr:     cfgFile.Publish.UploadTimeout,
		ClaimLeaseStr:        cfgFile.Publish.ClaimLease,
		FetchCron:            cfgFile.Fetch.Cron,
		FetchMaxResults:      cfgFile.Fetch.MaxResults,
		DownloadDir:          cfgFile.Download.Dir,
		DownloadTimeoutStr:   cfgFile.Download.Timeout,
		YtDlpPath:            cfgFile.Download.YtDlpPath,
		CookiesBrowsers:      cfgFile.Download.CookiesBrowsers,
		CookiesFile:          cfgFile.Download.CookiesFile,
		DatabaseURL:          cfgFile.Database.URL,
		HTTPClientTimeoutStr: cfgFile.Performance.HTTPClientTimeout,
		MaxIdleConns:         cfgFile.Performance.MaxIdleConns,
		MaxConnsPerHost:      cfgFile.Performance.MaxConnsPerHost,
		DownloadBufferSize:   cfgFile.Download.BufferSize,
		LogDirectory:         cfgFile.Logging.Directory,
		LogOutputFile:        cfgFile.Logging.OutputFile,
		LogErrorFile:         cfgFile.Logging.ErrorFile,
		LogLevel:             cfgFile.Logging.Level,
		BootstrapUsers:       cfgFile.Users,
	}

	// Secrets may come from the environment instead of the file
	applyEnvOverride(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	applyEnvOverride(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	applyEnvOverride(&cfg.YouTubeAPIKey, "YOUTUBE_API_KEY")
	applyEnvOverride(&cfg.EncryptionKey, "ENCRYPTION_KEY")
	applyEnvOverride(&cfg.DatabaseURL, "DATABASE_URL")

	// Set defaults if empty
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.PublishCron == "" {
		cfg.PublishCron = "*/30 * * * *"
	}
	if cfg.DailyVideoLimit <= 0 {
		cfg.DailyVideoLimit = 2
	}
	if cfg.FetchCron == "" {
		cfg.FetchCron = "0 0 * * *"
	}
	if cfg.FetchMaxResults <= 0 {
		cfg.FetchMaxResults = 25
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "./downloads"
	}
	if len(cfg.CookiesBrowsers) == 0 {
		cfg.CookiesBrowsers = []string{"chrome", "firefox", "edge", "brave"}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sqlite3:./data.db"
	}
	if cfg.LogDirectory == "" {
		cfg.LogDirectory = "./logs"
	}
	if cfg.LogOutputFile == "" {
		cfg.LogOutputFile = "app.log"
	}
	if cfg.LogErrorFile == "" {
		cfg.LogErrorFile = "app.error.log"
	}

	// Parse durations
	cfg.DownloadTimeout = parseDurationOr(cfg.DownloadTimeoutStr, 10*time.Minute)
	cfg.UploadTimeout = parseDurationOr(cfg.UploadTimeoutStr, 30*time.Minute)
	cfg.ClaimLease = parseDurationOr(cfg.ClaimLeaseStr, 15*time.Minute)
	cfg.HTTPClientTimeout = parseDurationOr(cfg.HTTPClientTimeoutStr, 60*time.Second)

	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 50
	}
	if cfg.DownloadBufferSize == 0 {
		cfg.DownloadBufferSize = 1024 * 1024
	}

	m.config = cfg
	return cfg, nil
}

func applyEnvOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Global config manager instance
var globalManager *Manager

// Load loads configuration using the default config file locations.
func Load() (*Config, error) {
	if globalManager == nil {
		configPath := "config.yaml"
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
		globalManager = NewManager(configPath)
	}
	return globalManager.Load()
}
