package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Document storage drivers.
const (
	DocumentsDriverFS = "fs"
	DocumentsDriverS3 = "s3"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Seed      SeedConfig        `yaml:"seed"`
	Index     IndexConfig       `yaml:"index"`
	Documents DocumentsConfig   `yaml:"documents"`
	Presenter PresenterConfig   `yaml:"presenter"`
	Events    EventsConfig      `yaml:"events"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Documents.Validate(); err != nil {
		return err
	}
	if err := c.Presenter.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
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

// SeedConfig selects the client seed. An empty Path uses the built-in seed;
// Watch reloads the store whenever the file at Path changes.
type SeedConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// IndexConfig holds the SQLite search index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DocumentsConfig selects where uploaded document files are kept.
type DocumentsConfig struct {
	Driver string   `yaml:"driver"`
	Path   string   `yaml:"path"`
	S3     S3Config `yaml:"s3"`
}

// Validate validates the documents configuration.
func (c *DocumentsConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DocumentsDriverFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DocumentsDriverFS, DocumentsDriverS3)),
		validation.Field(&c.Path, validation.When(c.Driver == DocumentsDriverFS, validation.Required)),
	); err != nil {
		return err
	}
	if c.Driver == DocumentsDriverS3 {
		return c.S3.Validate()
	}
	return nil
}

// S3Config holds the S3 bucket used by the s3 documents driver. Credentials
// come from the default AWS chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Bucket, validation.Required),
	)
}

// PresenterConfig holds dashboard session options.
//
// ResetOnSwitch clears field edits and expanded items whenever a session
// expands a different client. It is off by default, so drafts started on one
// client stay visible on the next.
type PresenterConfig struct {
	ResetOnSwitch      bool          `yaml:"reset_on_switch"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
	MaxSessions        int           `yaml:"max_sessions"`
}

// Validate validates the presenter configuration.
func (c *PresenterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SessionIdleTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxSessions, validation.Min(0)),
	)
}

// EventsConfig holds the SSE broadcast options.
type EventsConfig struct {
	CountsThrottle time.Duration `yaml:"counts_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CountsThrottle, validation.Min(time.Duration(0))),
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
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Index: IndexConfig{
			Path: "file:dealroom?mode=memory&cache=shared",
		},
		Documents: DocumentsConfig{
			Driver: DocumentsDriverFS,
			Path:   "./documents",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Presenter: PresenterConfig{
			SessionIdleTimeout: 30 * time.Minute,
			MaxSessions:        1000,
		},
		Events: EventsConfig{
			CountsThrottle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
