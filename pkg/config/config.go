package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv
const EnvPrefix = "COURSEMIRROR_"

// Config holds all configuration options for the course mirror
type Config struct {
	// Portal endpoints and page markers
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Traversal bounds and URL normalization
	Traversal TraversalConfig `yaml:"traversal" json:"traversal"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Browser login settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PortalConfig describes the course portal and how its listing pages look
type PortalConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	StartURL        string        `yaml:"start_url" json:"start_url"`
	LoginURL        string        `yaml:"login_url" json:"login_url"`
	Cookies         string        `yaml:"cookies" json:"cookies"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	BreadcrumbStyle string        `yaml:"breadcrumb_style" json:"breadcrumb_style"`
	FolderIcon      string        `yaml:"folder_icon" json:"folder_icon"`
	DocumentIcons   []string      `yaml:"document_icons" json:"document_icons"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// TraversalConfig bounds the recursive walk
type TraversalConfig struct {
	MaxDepth            int      `yaml:"max_depth" json:"max_depth"`
	MaxPages            int      `yaml:"max_pages" json:"max_pages"`
	VolatileQueryParams []string `yaml:"volatile_query_params" json:"volatile_query_params"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	BaseDirectory    string `yaml:"base_directory" json:"base_directory"`
	ChunkSize        int    `yaml:"chunk_size" json:"chunk_size"`
	FallbackFilename string `yaml:"fallback_filename" json:"fallback_filename"`
}

// RateLimitConfig holds rate limiting configuration. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// BrowserConfig controls the browser-driven login
type BrowserConfig struct {
	Headless      bool          `yaml:"headless" json:"headless"`
	LoginTimeout  time.Duration `yaml:"login_timeout" json:"login_timeout"`
	ChromePath    string        `yaml:"chrome_path" json:"chrome_path"`
	UsernameField string        `yaml:"username_field" json:"username_field"`
	PasswordField string        `yaml:"password_field" json:"password_field"`
	SubmitButton  string        `yaml:"submit_button" json:"submit_button"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:         "https://ninova.itu.edu.tr",
			LoginURL:        "https://ninova.itu.edu.tr/Kampus1",
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			BreadcrumbStyle: "background-color: #90D1E7; color: #fff;padding:4px;",
			FolderIcon:      "folder.png",
			DocumentIcons:   []string{"ikon-pdf.png"},
			RequestTimeout:  60 * time.Second,
		},
		Traversal: TraversalConfig{
			MaxDepth:            32,
			MaxPages:            10000,
			VolatileQueryParams: []string{"_", "nocache", "rnd", "timestamp", "ts"},
		},
		Download: DownloadConfig{
			BaseDirectory:    "./downloads",
			ChunkSize:        8192,
			FallbackFilename: "downloaded_file.pdf",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Browser: BrowserConfig{
			Headless:      true,
			LoginTimeout:  2 * time.Minute,
			UsernameField: "#ContentPlaceHolder1_tbUserName",
			PasswordField: "#ContentPlaceHolder1_tbPassword",
			SubmitButton:  "#ContentPlaceHolder1_btnLogin",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from COURSEMIRROR_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}

	setString("BASE_URL", &c.Portal.BaseURL)
	setString("START_URL", &c.Portal.StartURL)
	setString("LOGIN_URL", &c.Portal.LoginURL)
	setString("COOKIES", &c.Portal.Cookies)
	setString("USER_AGENT", &c.Portal.UserAgent)
	setString("OUTPUT_DIR", &c.Download.BaseDirectory)
	setString("CHROME_PATH", &c.Browser.ChromePath)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	setInt("MAX_DEPTH", &c.Traversal.MaxDepth)
	setInt("MAX_PAGES", &c.Traversal.MaxPages)
	setInt("CHUNK_SIZE", &c.Download.ChunkSize)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	if headless := os.Getenv(EnvPrefix + "HEADLESS"); headless != "" {
		b, err := strconv.ParseBool(headless)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHEADLESS: %w", EnvPrefix, err))
		} else {
			c.Browser.Headless = b
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "coursemirror", "config.yaml")
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".coursemirror.yaml",
		".coursemirror.yml",
		DefaultPath(),
		filepath.Join(os.Getenv("HOME"), ".coursemirror.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := validateAbsoluteURL("portal base URL", c.Portal.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Portal.StartURL != "" {
		if err := validateAbsoluteURL("start URL", c.Portal.StartURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Portal.BreadcrumbStyle == "" {
		errs = append(errs, errors.New("breadcrumb style is required"))
	}
	if c.Portal.FolderIcon == "" {
		errs = append(errs, errors.New("folder icon token is required"))
	}
	if len(c.Portal.DocumentIcons) == 0 {
		errs = append(errs, errors.New("at least one document icon token is required"))
	}
	if c.Portal.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Traversal.MaxDepth <= 0 {
		errs = append(errs, errors.New("max depth must be positive"))
	}
	if c.Traversal.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}

	if c.Download.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Download.FallbackFilename == "" {
		errs = append(errs, errors.New("fallback filename is required"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Browser.LoginTimeout <= 0 {
		errs = append(errs, errors.New("browser login timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

func validateAbsoluteURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Zero values are ignored so unset flags never override other sources.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["start-url"].(string); ok && v != "" {
		c.Portal.StartURL = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Portal.BaseURL = v
	}
	if v, ok := flags["cookies"].(string); ok && v != "" {
		c.Portal.Cookies = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Download.BaseDirectory = v
	}
	if v, ok := flags["max-depth"].(int); ok && v > 0 {
		c.Traversal.MaxDepth = v
	}
	if v, ok := flags["max-pages"].(int); ok && v > 0 {
		c.Traversal.MaxPages = v
	}
	if v, ok := flags["rate"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".coursemirror.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
