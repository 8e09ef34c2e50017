// internal/domain/session/jar.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elegant-store/storefront/internal/infrastructure/storage"
)

// CookieStorageKey is where the first-party cookies of the session live
const CookieStorageKey = "cookies"

// Jar is the browsing session as the storefront page sees it: its user
// agent, the page URL and first-party cookies that survive restarts.
type Jar struct {
	mu      sync.RWMutex
	cookies map[string]string

	store  storage.Store
	agent  string
	url    string
	logger logrus.FieldLogger
}

// NewJar restores the cookies saved in store. Unreadable cookies are
// dropped and the session starts without any.
func NewJar(ctx context.Context, store storage.Store, agent, pageURL string, logger logrus.FieldLogger) *Jar {
	j := &Jar{
		cookies: make(map[string]string),
		store:   store,
		agent:   agent,
		url:     pageURL,
		logger:  logger,
	}

	data, err := store.Get(ctx, CookieStorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		logger.WithError(err).Warn("Failed to read session cookies")
	default:
		if err := json.Unmarshal(data, &j.cookies); err != nil || j.cookies == nil {
			logger.WithError(err).Warn("Discarding corrupt session cookies")
			j.cookies = make(map[string]string)
		}
	}

	return j
}

// Get returns a cookie value
func (j *Jar) Get(name string) (string, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v, ok := j.cookies[name]
	return v, ok && v != ""
}

// Set stores a cookie and saves the jar. A failed save keeps the cookie
// for this session only.
func (j *Jar) Set(name, value string) {
	j.mu.Lock()
	j.cookies[name] = value
	data, err := json.Marshal(j.cookies)
	j.mu.Unlock()

	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := j.store.Set(ctx, CookieStorageKey, data); err != nil {
		j.logger.WithError(err).WithField("cookie", name).Warn("Failed to save session cookie")
	}
}

// Cookie implements tracking.Environment
func (j *Jar) Cookie(name string) (string, bool) { return j.Get(name) }
func (j *Jar) UserAgent() string                 { return j.agent }
func (j *Jar) PageURL() string                   { return j.url }
