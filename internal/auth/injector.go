// Package auth mutates an outgoing request according to its enabled
// authorization configurations: headers, query parameters or the client
// certificate list.
package auth

import (
	"encoding/base64"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/headerblock"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

// ErrOIDCTokenSelection marks the acknowledged gap: picking an access token
// out of an open id token list has no defined policy yet.
// TODO: define the token selection policy for multi-token open id configs.
var ErrOIDCTokenSelection = errdef.New(errdef.CodeAuth,
	"open id token selection from the tokens list is not implemented")

// CertificateStore is the external client-certificate collaborator.
type CertificateStore interface {
	Read(id string) (*model.Certificate, error)
}

// BasicCache remembers basic credentials per host so later requests to the
// same host are authenticated without an explicit config. Its lifetime is
// owned by whoever builds the engine, never by a package global.
type BasicCache struct {
	mu     sync.Mutex
	byHost map[string]model.BasicAuth
}

func NewBasicCache() *BasicCache {
	return &BasicCache{byHost: make(map[string]model.BasicAuth)}
}

func (c *BasicCache) Store(host string, creds model.BasicAuth) {
	if c == nil || host == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byHost[host] = creds
}

func (c *BasicCache) Lookup(host string) (model.BasicAuth, bool) {
	if c == nil {
		return model.BasicAuth{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	creds, ok := c.byHost[host]
	return creds, ok
}

// Injector applies authorization configs to a request. Missing data on a
// single config is a soft no-op so the request still goes out and the
// server's 401 stays the visible signal.
type Injector struct {
	Certs  CertificateStore
	Cache  *BasicCache
	Logger zerolog.Logger
}

// Process walks the enabled configs in list order. The basic-auth cache
// fallback always runs last and only when no Authorization header exists.
func (in *Injector) Process(req *model.Request) error {
	headers := headerblock.Parse(req.Headers)

	for i := range req.Authorization {
		cfg := req.Authorization[i]
		if !cfg.Enabled {
			continue
		}
		if err := in.apply(cfg, req, &headers); err != nil {
			return err
		}
	}

	in.applyCachedBasic(req, &headers)
	req.Headers = headers.String()
	return nil
}

func (in *Injector) apply(cfg model.Authorization, req *model.Request, headers *headerblock.List) error {
	switch cfg.Type {
	case model.AuthBasic:
		if cfg.Basic == nil || cfg.Basic.Username == "" {
			return nil
		}
		headers.Set("authorization", "Basic "+basicToken(*cfg.Basic))
		if u, err := url.Parse(req.URL); err == nil {
			in.Cache.Store(u.Host, *cfg.Basic)
		}
	case model.AuthBearer:
		if cfg.Bearer == nil || cfg.Bearer.Token == "" {
			return nil
		}
		headers.Add("authorization", "Bearer "+cfg.Bearer.Token)
	case model.AuthOAuth2:
		if cfg.OAuth2 == nil {
			return nil
		}
		return applyOAuth2(*cfg.OAuth2, req, headers)
	case model.AuthOpenID:
		if cfg.OpenID == nil {
			return nil
		}
		if cfg.OpenID.AccessToken != "" {
			return applyOAuth2(cfg.OpenID.OAuth2Auth, req, headers)
		}
		if len(cfg.OpenID.Tokens) > 0 {
			return ErrOIDCTokenSelection
		}
	case model.AuthClientCertificate:
		in.applyCertificate(cfg.ClientCertificate, req)
	}
	return nil
}

// applyOAuth2 is a silent no-op without an access token.
func applyOAuth2(cfg model.OAuth2Auth, req *model.Request, headers *headerblock.List) error {
	if cfg.AccessToken == "" {
		return nil
	}

	tokenType := cfg.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	value := tokenType + " " + cfg.AccessToken

	name := cfg.DeliveryName
	if cfg.DeliveryMethod == model.DeliveryQuery {
		u, err := url.Parse(req.URL)
		if err != nil {
			return errdef.Wrap(errdef.CodeAuth, err, "parse request url")
		}
		if name == "" {
			name = "access_token"
		}
		query := u.Query()
		query.Set(name, cfg.AccessToken)
		u.RawQuery = query.Encode()
		req.URL = u.String()
		return nil
	}

	if name == "" {
		name = "authorization"
	}
	headers.Set(name, value)
	return nil
}

// applyCertificate is additive: a resolved certificate joins the request's
// list, it never replaces an existing match. Store or id gaps are soft.
func (in *Injector) applyCertificate(ref *model.CertificateRef, req *model.Request) {
	if ref == nil || ref.ID == "" || in.Certs == nil {
		return
	}
	cert, err := in.Certs.Read(ref.ID)
	if err != nil {
		in.Logger.Debug().Err(err).Str("id", ref.ID).Msg("client certificate lookup failed")
		return
	}
	if cert == nil {
		return
	}
	req.Certificates = append(req.Certificates, *cert)
}

func (in *Injector) applyCachedBasic(req *model.Request, headers *headerblock.List) {
	if headers.Has("authorization") {
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return
	}
	if creds, ok := in.Cache.Lookup(u.Host); ok {
		headers.Set("authorization", "Basic "+basicToken(creds))
	}
}

func basicToken(creds model.BasicAuth) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}
