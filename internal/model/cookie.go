package model

type SameSite string

const (
	SameSiteUnspecified SameSite = "unspecified"
	SameSiteLax         SameSite = "lax"
	SameSiteStrict      SameSite = "strict"
	SameSiteNone        SameSite = "no_restriction"
)

// Cookie is the domain-normalized stored form: Domain carries a leading dot
// unless the cookie is host-only, and Path is never empty.
type Cookie struct {
	Name           string   `json:"name" yaml:"name"`
	Value          string   `json:"value" yaml:"value"`
	Domain         string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Path           string   `json:"path,omitempty" yaml:"path,omitempty"`
	ExpirationDate int64    `json:"expirationDate,omitempty" yaml:"expirationDate,omitempty"`
	HostOnly       bool     `json:"hostOnly,omitempty" yaml:"hostOnly,omitempty"`
	HTTPOnly       bool     `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
	Secure         bool     `json:"secure,omitempty" yaml:"secure,omitempty"`
	Session        bool     `json:"session,omitempty" yaml:"session,omitempty"`
	SameSite       SameSite `json:"sameSite,omitempty" yaml:"sameSite,omitempty"`
}
