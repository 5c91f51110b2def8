package wechat

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenTTL is used when the gateway omits expires_in.
	DefaultTokenTTL = 7200 * time.Second
	// RefreshMargin is how long before expiry a token is considered stale.
	RefreshMargin = 5 * time.Minute
)

// FetchFunc obtains a fresh access token and its lifetime.
type FetchFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// TokenSource caches the gateway access token. Readers share the cached
// value under a read lock; concurrent refreshes collapse into one fetch.
type TokenSource struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	fetch  FetchFunc
	group  singleflight.Group
	now    func() time.Time
	margin time.Duration
}

// TokenOption configures a TokenSource.
type TokenOption func(*TokenSource)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenSource) {
		s.now = now
	}
}

// WithRefreshMargin overrides RefreshMargin.
func WithRefreshMargin(d time.Duration) TokenOption {
	return func(s *TokenSource) {
		s.margin = d
	}
}

// NewTokenSource returns a TokenSource that calls fetch when the cached
// token is missing or about to expire.
func NewTokenSource(fetch FetchFunc, opts ...TokenOption) *TokenSource {
	s := &TokenSource{
		fetch:  fetch,
		now:    time.Now,
		margin: RefreshMargin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenSource) valid() bool {
	return s.token != "" && s.now().Before(s.expiresAt)
}

// Token returns the cached token, refreshing it first when stale.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.valid() {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()
	return s.Refresh(ctx)
}

// Refresh fetches a token if the cached one is stale. Concurrent callers
// wait on the same fetch.
func (s *TokenSource) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.group.Do("token", func() (any, error) {
		s.mu.RLock()
		if s.valid() {
			token := s.token
			s.mu.RUnlock()
			return token, nil
		}
		s.mu.RUnlock()

		token, ttl, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		if ttl <= 0 {
			ttl = DefaultTokenTTL
		}

		s.mu.Lock()
		s.token = token
		s.expiresAt = s.now().Add(ttl - s.margin)
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}
