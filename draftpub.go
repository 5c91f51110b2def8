// Package draftpub publishes AI-generated articles as WeChat Official Account
// drafts. It accepts payloads of uncertain shape, normalizes them, moves
// their images into the account's material library, renders markdown into
// the inline-styled HTML the WeChat editor accepts and creates the draft.
//
// The App type serves the pipeline over HTTP; Pipeline can be used on its
// own, as the draftpub command does for one-off publishes.
package draftpub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eringen/draftpub/wechat"
)

// App is the central draftpub application. It wires together the store,
// gateway, pipeline, handlers and middleware.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Gateway  Gateway
	Pipeline *Pipeline
	Logger   *charmlog.Logger

	publishLimiter *RequestLimiter
	customRoutes   []func(*App)
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Logger: charmlog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init validates the configuration and sets up the store, gateway,
// pipeline, middleware and routes. Start calls it; tests call it directly
// and drive a.Echo with httptest.
func (a *App) Init() error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("draftpub: invalid config: %w", err)
	}

	if a.Gateway == nil {
		if err := a.Config.WeChat.Validate(); err != nil {
			return fmt.Errorf("draftpub: invalid wechat config: %w", err)
		}
		a.Gateway = wechat.NewClient(a.Config.WeChat, wechat.WithLogger(a.Logger.WithPrefix("wechat")))
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("draftpub: init store: %w", err)
	}
	a.Store = store

	a.Pipeline = NewPipeline(a.Config, a.Gateway,
		WithRecorder(a.Store),
		WithPipelineLogger(a.Logger),
	)

	a.publishLimiter = NewRequestLimiter(a.Config.PublishRateLimit, a.Config.PublishRateWindow)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", "addr", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/health", a.handleHealth)
	e.POST("/publish-draft", a.handlePublishDraft, rateLimit(a.publishLimiter))
	e.POST("/preview", a.handlePreview)

	e.GET("/drafts", a.handleListDrafts)
	e.POST("/drafts/:media_id/publish", a.handleSubmitPublish)
	e.GET("/publish/:publish_id", a.handlePublishStatus)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.publishLimiter != nil {
		a.publishLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
