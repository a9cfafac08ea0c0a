// Package cookies implements the domain-partitioned cookie store shared by
// engine executions. The jar interface matches the external collaborator
// boundary, so callers may swap in a persistent implementation.
package cookies

import (
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

type Jar interface {
	ListCookies(rawURL string) ([]model.Cookie, error)
	SetCookies(rawURL string, cookies []model.Cookie) error
	DeleteCookies(rawURL, name string) error
}

// MemoryJar is the in-memory jar. Parallel project runs share one jar, so
// every operation takes the lock.
type MemoryJar struct {
	mu    sync.RWMutex
	store map[string]model.Cookie
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{store: make(map[string]model.Cookie)}
}

func storeKey(c model.Cookie) string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

// SetCookies canonicalizes and stores cookies scoped to the request URL.
// Cookies whose declared domain cannot legally be set from the URL host are
// dropped rather than failing the batch.
func (j *MemoryJar) SetCookies(rawURL string, list []model.Cookie) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return errdef.New(errdef.CodeCookies, "invalid cookie url %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range list {
		normalized, ok := Normalize(c, host, u.Path)
		if !ok {
			continue
		}
		j.store[storeKey(normalized)] = normalized
	}
	return nil
}

// ListCookies returns the cookies matching the URL by domain, path, scheme
// and expiry, most specific path first.
func (j *MemoryJar) ListCookies(rawURL string) ([]model.Cookie, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errdef.New(errdef.CodeCookies, "invalid cookie url %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	path := u.Path
	if path == "" {
		path = "/"
	}
	secure := u.Scheme == "https"
	now := time.Now().UnixMilli()

	j.mu.RLock()
	defer j.mu.RUnlock()

	var matched []model.Cookie
	for _, c := range j.store {
		if c.ExpirationDate != 0 && c.ExpirationDate <= now {
			continue
		}
		if c.Secure && !secure {
			continue
		}
		if !domainMatch(c, host) || !pathMatch(c.Path, path) {
			continue
		}
		matched = append(matched, c)
	}

	sort.Slice(matched, func(a, b int) bool {
		if len(matched[a].Path) != len(matched[b].Path) {
			return len(matched[a].Path) > len(matched[b].Path)
		}
		return matched[a].Name < matched[b].Name
	})
	return matched, nil
}

// DeleteCookies removes cookies matching the URL, optionally narrowed to a
// single name.
func (j *MemoryJar) DeleteCookies(rawURL, name string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return errdef.New(errdef.CodeCookies, "invalid cookie url %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	j.mu.Lock()
	defer j.mu.Unlock()
	for key, c := range j.store {
		if !domainMatch(c, host) {
			continue
		}
		if name != "" && c.Name != name {
			continue
		}
		delete(j.store, key)
	}
	return nil
}

// Normalize applies the stored-form invariants: leading-dot domain unless
// host-only, non-empty path defaulting to the request path, host-only
// derivation when the domain attribute is absent. Returns false when the
// cookie must be rejected (public suffix or foreign domain).
func Normalize(c model.Cookie, host, requestPath string) (model.Cookie, bool) {
	if c.Name == "" {
		return model.Cookie{}, false
	}

	domain := strings.ToLower(strings.TrimSpace(c.Domain))
	switch {
	case domain == "":
		c.HostOnly = true
		c.Domain = host
	case c.HostOnly:
		c.Domain = strings.TrimPrefix(domain, ".")
	default:
		bare := strings.TrimPrefix(domain, ".")
		if suffix, _ := publicsuffix.PublicSuffix(bare); suffix == bare {
			return model.Cookie{}, false
		}
		if host != bare && !strings.HasSuffix(host, "."+bare) {
			return model.Cookie{}, false
		}
		c.Domain = "." + bare
	}

	if c.Path == "" {
		if requestPath == "" {
			requestPath = "/"
		}
		c.Path = requestPath
	}
	if c.ExpirationDate == 0 {
		c.Session = true
	}
	return c, true
}

func domainMatch(c model.Cookie, host string) bool {
	if c.HostOnly {
		return c.Domain == host
	}
	bare := strings.TrimPrefix(c.Domain, ".")
	return host == bare || strings.HasSuffix(host, "."+bare)
}

// pathMatch implements RFC 6265 path matching.
func pathMatch(cookiePath, requestPath string) bool {
	if cookiePath == requestPath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// Header renders cookies as a single Cookie request header value.
func Header(list []model.Cookie) string {
	var b strings.Builder
	for i, c := range list {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		b.WriteString("=")
		b.WriteString(c.Value)
	}
	return b.String()
}
