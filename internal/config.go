package internal

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/coursepress/internal/publish"
	"github.com/starford/coursepress/internal/store"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Content  ContentConfig     `yaml:"content"`
	Store    StoreConfig       `yaml:"store"`
	Export   ExportConfig      `yaml:"export"`
	Resolver ResolverConfig    `yaml:"resolver"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	return c.Auth.Validate()
}

// ApplyEnv overrides selected values from the process environment. It runs
// after the file is loaded, so the environment always wins.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.App.HTTP.Port = port
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Environment = v
	}
	if v := os.Getenv("CONTENT_DIR"); v != "" {
		c.Content.Path = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel    slog.Level `yaml:"log_level"`
	Environment string     `yaml:"environment"`
	HTTP        HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Environment, validation.Required),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig locates the Markdown tree and controls ingestion.
type ContentConfig struct {
	Path           string        `yaml:"path"`
	Extension      string        `yaml:"extension"`
	RequiredFields []string      `yaml:"required_fields"`
	Watch          bool          `yaml:"watch"`
	Debounce       time.Duration `yaml:"debounce"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.Match(extensionPattern)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// StoreConfig selects the persistent store.
type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(store.DriverSQLite, store.DriverBolt)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// ExportConfig configures the static export and its optional S3 mirror.
type ExportConfig struct {
	Path    string   `yaml:"path"`
	BaseURL string   `yaml:"base_url"`
	S3      S3Config `yaml:"s3"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// S3Config mirrors the export to a bucket. An empty bucket disables it.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	CacheControl string `yaml:"cache_control"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Enabled reports whether a bucket is configured.
func (c *S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Publisher returns the publish.Config for this mirror.
func (c *S3Config) Publisher() publish.Config {
	return publish.Config{
		Bucket:       c.Bucket,
		Prefix:       c.Prefix,
		Region:       c.Region,
		Profile:      c.Profile,
		CacheControl: c.CacheControl,
		UsePathStyle: c.UsePathStyle,
	}
}

// ResolverConfig controls the read cache. A zero TTL keeps entries until
// the next sync clears them.
type ResolverConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Validate validates the resolver configuration.
func (c *ResolverConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:    slog.LevelInfo,
			Environment: "development",
			HTTP: HTTPConfig{
				Port: 3001,
			},
		},
		Content: ContentConfig{
			Path:      "./content",
			Extension: ".md",
			Debounce:  500 * time.Millisecond,
		},
		Store: StoreConfig{
			Driver:  store.DriverSQLite,
			Path:    "./coursepress.db",
			Timeout: 30 * time.Second,
		},
		Export: ExportConfig{
			Path:    "./data",
			BaseURL: "http://localhost:3000",
			S3: S3Config{
				CacheControl: "public, max-age=300",
			},
		},
		Resolver: ResolverConfig{
			CacheTTL: 5 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
