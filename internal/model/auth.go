package model

type AuthType string

const (
	AuthBasic             AuthType = "basic"
	AuthBearer            AuthType = "bearer"
	AuthOAuth2            AuthType = "oauth 2"
	AuthOpenID            AuthType = "open id"
	AuthClientCertificate AuthType = "client certificate"
)

type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

type BearerAuth struct {
	Token string `json:"token" yaml:"token"`
}

type OAuth2Delivery string

const (
	DeliveryHeader OAuth2Delivery = "header"
	DeliveryQuery  OAuth2Delivery = "query"
)

type OAuth2Auth struct {
	AccessToken    string         `json:"accessToken,omitempty" yaml:"accessToken,omitempty"`
	TokenType      string         `json:"tokenType,omitempty" yaml:"tokenType,omitempty"`
	DeliveryMethod OAuth2Delivery `json:"deliveryMethod,omitempty" yaml:"deliveryMethod,omitempty"`
	DeliveryName   string         `json:"deliveryName,omitempty" yaml:"deliveryName,omitempty"`
}

type OIDCToken struct {
	AccessToken string `json:"accessToken,omitempty" yaml:"accessToken,omitempty"`
	TokenType   string `json:"tokenType,omitempty" yaml:"tokenType,omitempty"`
	IDToken     string `json:"idToken,omitempty" yaml:"idToken,omitempty"`
}

type OIDCAuth struct {
	OAuth2Auth `json:",inline" yaml:",inline"`
	Tokens     []OIDCToken `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

type CertificateRef struct {
	ID string `json:"id" yaml:"id"`
}

// Authorization carries exactly one populated config matching Type.
type Authorization struct {
	Type              AuthType        `json:"type" yaml:"type"`
	Enabled           bool            `json:"enabled" yaml:"enabled"`
	Basic             *BasicAuth      `json:"basic,omitempty" yaml:"basic,omitempty"`
	Bearer            *BearerAuth     `json:"bearer,omitempty" yaml:"bearer,omitempty"`
	OAuth2            *OAuth2Auth     `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`
	OpenID            *OIDCAuth       `json:"openId,omitempty" yaml:"openId,omitempty"`
	ClientCertificate *CertificateRef `json:"certificate,omitempty" yaml:"certificate,omitempty"`
}

type CertificateData struct {
	Data       []byte `json:"data" yaml:"data"`
	Passphrase string `json:"passphrase,omitempty" yaml:"passphrase,omitempty"`
}

// Certificate is a client certificate as stored by the certificate store.
// Type is either "p12" or "pem"; pem certificates carry a separate key.
type Certificate struct {
	ID   string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name string           `json:"name,omitempty" yaml:"name,omitempty"`
	Type string           `json:"type" yaml:"type"`
	Cert *CertificateData `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key  *CertificateData `json:"key,omitempty" yaml:"key,omitempty"`
}
