// Package wechat is a client for the WeChat Official Account publishing
// API: access tokens, permanent materials, the draft box and free publish.
package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the production gateway.
const DefaultBaseURL = "https://api.weixin.qq.com/cgi-bin"

const defaultTimeout = 60 * time.Second

// Config holds the official account credentials and gateway settings.
type Config struct {
	AppID     string        `mapstructure:"app_id"`
	AppSecret string        `mapstructure:"app_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// StableToken switches token retrieval to the stable_token endpoint.
	StableToken bool `mapstructure:"stable_token"`
}

// Validate checks that credentials are present.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AppID, validation.Required),
		validation.Field(&c.AppSecret, validation.Required),
	)
}

// Client talks to the gateway. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *resty.Client
	tokens *TokenSource
	log    *charmlog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *charmlog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc)
	}
}

// WithTokenOptions passes options to the client's TokenSource.
func WithTokenOptions(opts ...TokenOption) Option {
	return func(c *Client) {
		c.tokens = NewTokenSource(c.fetchToken, opts...)
	}
}

// NewClient builds a Client for cfg. Requests are never retried.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:  cfg,
		http: resty.New(),
		log:  charmlog.Default(),
	}
	c.tokens = NewTokenSource(c.fetchToken)
	for _, opt := range opts {
		opt(c)
	}
	c.http.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return c
}

// Tokens exposes the client's token cache.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

type tokenResponse struct {
	apiStatus
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	var (
		resp *resty.Response
		err  error
		path string
	)
	if c.cfg.StableToken {
		path = "/stable_token"
		var body []byte
		body, err = encodeJSON(map[string]any{
			"grant_type":    "client_credential",
			"appid":         c.cfg.AppID,
			"secret":        c.cfg.AppSecret,
			"force_refresh": false,
		})
		if err != nil {
			return "", 0, err
		}
		resp, err = c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", jsonContentType).
			SetBody(body).
			Post(path)
	} else {
		path = "/token"
		resp, err = c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"grant_type": "client_credential",
				"appid":      c.cfg.AppID,
				"secret":     c.cfg.AppSecret,
			}).
			Get(path)
	}
	if err != nil {
		return "", 0, fmt.Errorf("wechat %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", 0, fmt.Errorf("wechat %s: unexpected status %d", path, resp.StatusCode())
	}

	var tr tokenResponse
	if err := decode(path, resp.Body(), &tr); err != nil {
		return "", 0, err
	}
	if tr.AccessToken == "" {
		return "", 0, missingField("access_token", resp.Body())
	}
	c.log.Debug("access token refreshed", "expires_in", tr.ExpiresIn)
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}

const jsonContentType = "application/json; charset=utf-8"

// encodeJSON marshals v without HTML escaping so article markup reaches the
// gateway byte for byte.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decode checks the errcode envelope and unmarshals body into out.
func decode(path string, body []byte, out any) error {
	var st apiStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return fmt.Errorf("wechat %s: decode response: %w", path, err)
	}
	if st.ErrCode != 0 {
		return newAPIError(st.ErrCode, st.ErrMsg, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("wechat %s: decode response: %w", path, err)
	}
	return nil
}

// call performs an authenticated request. build adds the body or multipart
// fields. A rejected token is dropped from the cache before the error is
// returned; the call itself is not repeated.
func (c *Client) call(ctx context.Context, method, path string, build func(*resty.Request), out any) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("access_token", token)
	if build != nil {
		build(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("wechat %s: %w", path, err)
	}
	c.log.Debug("wechat call", "path", path, "status", resp.StatusCode(), "took", time.Since(start))
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("wechat %s: unexpected status %d", path, resp.StatusCode())
	}

	if err := decode(path, resp.Body(), out); err != nil {
		if apiErr, ok := IsAPIError(err); ok && apiErr.TokenRejected() {
			c.log.Warn("access token rejected, dropping cache", "errcode", apiErr.Code)
			c.tokens.Invalidate()
		}
		return resp.Body(), err
	}
	return resp.Body(), nil
}

// postJSON sends v as a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, v any, out any) ([]byte, error) {
	body, err := encodeJSON(v)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, http.MethodPost, path, func(r *resty.Request) {
		r.SetHeader("Content-Type", jsonContentType).SetBody(body)
	}, out)
}
