package model

// SourceKind selects where the data extractor reads from.
type SourceKind string

const (
	SourceValue   SourceKind = "value"
	SourceURL     SourceKind = "url"
	SourceHeaders SourceKind = "headers"
	SourceStatus  SourceKind = "status"
	SourceMethod  SourceKind = "method"
	SourceBody    SourceKind = "body"
)

// SourceSide picks the request or response side of the exchange.
type SourceSide string

const (
	SideRequest  SourceSide = "request"
	SideResponse SourceSide = "response"
)

// DataSource declaratively addresses a value inside an exchange. It never
// executes code.
type DataSource struct {
	Source SourceKind `json:"source" yaml:"source"`
	Side   SourceSide `json:"type,omitempty" yaml:"type,omitempty"`
	Path   string     `json:"path,omitempty" yaml:"path,omitempty"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
}

type Operator string

const (
	OpEqual            Operator = "equal"
	OpNotEqual         Operator = "not-equal"
	OpGreaterThan      Operator = "greater-than"
	OpGreaterThanEqual Operator = "greater-than-equal"
	OpLessThan         Operator = "less-than"
	OpLessThanEqual    Operator = "less-than-equal"
	OpContains         Operator = "contains"
	OpRegex            Operator = "regex"
)

// Condition guards a runnable action. A nil Enabled means enabled.
type Condition struct {
	Source     DataSource `json:"source" yaml:"source"`
	Operator   Operator   `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value      string     `json:"value,omitempty" yaml:"value,omitempty"`
	AlwaysPass bool       `json:"alwaysPass,omitempty" yaml:"alwaysPass,omitempty"`
	Enabled    *bool      `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled treats an unset flag as enabled.
func (c *Condition) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}
