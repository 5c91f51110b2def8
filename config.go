package draftpub

import (
	"time"

	charmlog "github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/draftpub/media"
	"github.com/eringen/draftpub/wechat"
)

// Config holds all configuration for a draftpub service.
type Config struct {
	Addr         string `mapstructure:"addr"`          // Listen address (default ":8001")
	DatabasePath string `mapstructure:"database_path"` // SQLite draft log (default "data/drafts.db")
	DefaultCover string `mapstructure:"default_cover"` // Fallback cover file (default "cover.jpg")

	DownloadTimeout time.Duration `mapstructure:"download_timeout"` // Per image (default 30s)
	PublishTimeout  time.Duration `mapstructure:"publish_timeout"`  // Gateway call timeout and shutdown grace (default 60s)
	ThumbMaxWidth   int           `mapstructure:"thumb_max_width"`  // Cover width limit (default 900)
	HighlightStyle  string        `mapstructure:"highlight_style"`  // Chroma style for code blocks (default "github")

	MaxBodySize       string        `mapstructure:"max_body_size"`       // Echo body limit (default "4M")
	PublishRateLimit  int           `mapstructure:"publish_rate_limit"`  // Publishes per window per IP (default 30)
	PublishRateWindow time.Duration `mapstructure:"publish_rate_window"` // (default 1min)

	WeChat wechat.Config `mapstructure:"wechat"`
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8001"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/drafts.db"
	}
	if c.DefaultCover == "" {
		c.DefaultCover = "cover.jpg"
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = media.DefaultDownloadTimeout
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 60 * time.Second
	}
	if c.ThumbMaxWidth == 0 {
		c.ThumbMaxWidth = media.DefaultThumbMaxWidth
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = "github"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "4M"
	}
	if c.PublishRateLimit == 0 {
		c.PublishRateLimit = 30
	}
	if c.PublishRateWindow == 0 {
		c.PublishRateWindow = time.Minute
	}
	if c.WeChat.Timeout == 0 {
		c.WeChat.Timeout = c.PublishTimeout
	}
}

// Validate checks the service settings. Gateway credentials are checked
// separately by wechat.Config.Validate, since a custom gateway needs none.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.DownloadTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.PublishTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ThumbMaxWidth, validation.Min(16)),
		validation.Field(&c.MaxBodySize, validation.Required),
		validation.Field(&c.PublishRateLimit, validation.Min(1)),
		validation.Field(&c.PublishRateWindow, validation.Min(time.Second)),
	)
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger shared by the server, pipeline and gateway.
func WithLogger(l *charmlog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithGateway replaces the WeChat client, e.g. with a fake in tests.
func WithGateway(g Gateway) Option {
	return func(a *App) {
		a.Gateway = g
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
